// Package room abstracts the audio-room transport. The backend only ever
// needs two things from it: the identity of the single remote participant
// and the ability to invoke RPC methods on that participant's device.
package room

import "context"

// Client is the narrow view of the audio-room connection used by tools and
// the session runner. The transport behind it (SIP trunk, mobile app, test
// fake) is opaque.
type Client interface {
	// RemoteParticipant returns the identity of the one remote participant
	// in the room. Errors when the room is empty or torn down.
	RemoteParticipant() (string, error)

	// PerformRPC invokes a method on the remote participant's device with a
	// JSON payload and returns the raw response. The context bounds the
	// response timeout.
	PerformRPC(ctx context.Context, identity, method, payload string) (string, error)
}
