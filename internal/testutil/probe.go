package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/atlanticdynamic/coffeemaker/internal/activity"
	"github.com/atlanticdynamic/coffeemaker/internal/channel"
	"github.com/atlanticdynamic/coffeemaker/internal/message"
	"github.com/stretchr/testify/require"
)

// Probe is an activity that records every message it receives, so tests can
// talk to subsystems with a real sender identity.
type Probe struct {
	*activity.Activity
	deliveries chan activity.Delivery
}

// StartProbe creates a probe named name in ns. It is destroyed when the test
// ends.
func StartProbe(t *testing.T, ns *channel.Namespace, name string, catalog *message.Catalog) *Probe {
	t.Helper()
	p := &Probe{deliveries: make(chan activity.Delivery, 64)}

	a, err := activity.Create(activity.Descriptor{
		ID:   99,
		Name: name,
		Behavior: activity.BehaviorFuncs{
			RunFunc: func(a *activity.Activity) error {
				for {
					d, err := activity.WaitForMessage(a, catalog, activity.Forever)
					if a.Context().Err() != nil {
						return nil
					}
					if err != nil || d.Message == nil {
						continue
					}
					select {
					case p.deliveries <- d:
					case <-a.Context().Done():
						return nil
					}
				}
			},
		},
	}, channel.Blocking, activity.WithNamespace(ns))
	require.NoError(t, err)
	p.Activity = a
	t.Cleanup(func() { _ = a.Destroy() })
	return p
}

// Send sends msg from the probe's identity.
func (p *Probe) Send(t *testing.T, to activity.Descriptor, msg message.Message) {
	t.Helper()
	require.NoError(t, activity.SendMessage(context.Background(), p.Activity, to, msg, channel.Medium))
}

// Next returns the next delivery or fails the test after timeout.
func (p *Probe) Next(t *testing.T, timeout time.Duration) activity.Delivery {
	t.Helper()
	select {
	case d := <-p.deliveries:
		return d
	case <-time.After(timeout):
		t.Fatalf("probe %s: no message within %s", p.Name(), timeout)
		return activity.Delivery{}
	}
}

// NextOf skips deliveries until one holds a T, failing the test after
// timeout.
func NextOf[T message.Message](t *testing.T, p *Probe, timeout time.Duration) (T, activity.Delivery) {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case d := <-p.deliveries:
			if msg, ok := message.As[T](d.Message); ok {
				return msg, d
			}
		case <-deadline:
			var zero T
			t.Fatalf("probe %s: no %T within %s", p.Name(), zero, timeout)
			return zero, activity.Delivery{}
		}
	}
}

// Drain discards everything received so far.
func (p *Probe) Drain() {
	for {
		select {
		case <-p.deliveries:
		default:
			return
		}
	}
}

// Quiet asserts that nothing arrives for d.
func (p *Probe) Quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case got := <-p.deliveries:
		t.Fatalf("probe %s: unexpected %#v", p.Name(), got.Message)
	case <-time.After(d):
	}
}
