// SPDX-FileCopyrightText: 2024 The Go-Collapse Authors
//
// SPDX-License-Identifier: MIT

package collapse

// Bus is the message-delivery boundary between participants. Peers are
// flat and fully connected; there is no routing. A concurrent
// implementation must treat each participant's queue as a mutually
// exclusive shared resource, with broadcast fanning out as independent
// enqueues that never interleave with a drain.
type Bus interface {
	// Register announces a participant to the bus and creates its
	// inbound queue. Registering twice is a no-op.
	Register(Identity)

	// SendTo enqueues one message for one recipient. Unknown
	// recipients are a no-op.
	SendTo(to Identity, msg Message)

	// Broadcast enqueues the message for every registered participant
	// except from.
	Broadcast(from Identity, msg Message)

	// Drain returns and clears all messages currently queued for me,
	// FIFO. Delivery is at-most-once per drain; there is no redelivery.
	Drain(me Identity) []Message
}
