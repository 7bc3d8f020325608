// Package activity is the runtime every subsystem is built on. An Activity owns
// a named inbox channel and one dedicated goroutine, locked to its OS thread,
// that executes the descriptor's Behavior: SetUp once, then Run until the
// activity is destroyed. TearDown runs exactly once on that goroutine's unwind
// path, whether Run returns, panics or is cancelled.
//
// Activities never share mutable state. They exchange envelopes through
// channels, addressed by descriptor name:
//
//	grinder, err := activity.Create(powder.Descriptor(deps), channel.Blocking)
//	if err != nil {
//		return err // *activity.StartupError
//	}
//	defer grinder.Destroy()
//
// Inside Run, the usual loop waits on the inbox with a timeout:
//
//	for {
//		n, err := a.WaitForEvent(buf, 100*time.Millisecond)
//		if a.Context().Err() != nil {
//			return nil
//		}
//		...
//	}
package activity
