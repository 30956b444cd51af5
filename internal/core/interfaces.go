package core

import "context"

// Frontend defines the interface for user-facing frontends (CLI, Telegram)
type Frontend interface {
	// Start starts the frontend and blocks until ctx is canceled
	Start(ctx context.Context) error

	// Stop stops the frontend
	Stop(ctx context.Context) error

	// SendMessage sends a message to the user
	SendMessage(ctx context.Context, userID string, message string) error

	// Name returns the frontend name (e.g., "cli", "telegram")
	Name() string
}
