package model

import "context"

// Generator is an opaque generation provider. GenerateText returns the
// assistant reply; GenerateImage returns a URL to the generated image.
type Generator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// QuotaTracker bounds unauthenticated usage per client key. Allow either
// consumes one unit and reports the remaining allowance, or fails with
// ErrGuestLimitReached without consuming.
type QuotaTracker interface {
	Allow(ctx context.Context, key string) (remaining int, err error)
}
