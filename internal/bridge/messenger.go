// Package bridge dispatches user messages between a remote messenger
// and the agent session: command routing, context preamble injection,
// live progress editing, reply delivery, and new-file forwarding.
package bridge

import "context"

// MessageRef identifies a previously sent message so it can be edited
// or deleted. Its concrete type belongs to the Messenger that issued it.
type MessageRef any

// Messenger is the outbound side of a transport. Implementations are
// expected to be safe for use from the invocation goroutine plus the
// progress callback.
type Messenger interface {
	// SendText delivers a text message and returns a reference to it.
	SendText(ctx context.Context, text string) (MessageRef, error)

	// EditText replaces the content of a previously sent message.
	EditText(ctx context.Context, ref MessageRef, text string) error

	// DeleteMessage removes a previously sent message. Deleting an
	// already-deleted message is not an error worth surfacing.
	DeleteMessage(ctx context.Context, ref MessageRef) error

	// SendFile delivers a file as a document attachment.
	SendFile(ctx context.Context, path string) error

	// SendPhoto delivers an image file as an inline picture.
	SendPhoto(ctx context.Context, path string) error
}
