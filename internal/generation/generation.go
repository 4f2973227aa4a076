// Package generation defines the text generation gateway used by counsel.
package generation

import "context"

// Generator completes a single system + user turn.
type Generator interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}
