// Package channel implements named, bounded, priority-ordered message channels.
//
// A Namespace plays the role of the operating system's message queue file
// system: every channel is registered under a system-wide id derived from the
// owning activity's name. Exactly one Receiver binds to a channel; any number of
// Senders may write to it. Opening a receiver always recreates the channel so
// that a restarted activity never inherits messages queued for a crashed
// predecessor.
//
// Within a channel, higher priority messages are delivered first and messages
// of equal priority are delivered in send order.
package channel
