package interfaces

import (
	"context"

	"github.com/customeros/cardstack/dto"
)

// CompletionGateway is implemented once per generative backend and selected at startup.
type CompletionGateway interface {
	Name() string
	Complete(ctx context.Context, request dto.CompletionRequest) (string, error)
	AnalyzeImage(ctx context.Context, image []byte, filename string) (*dto.ContactGuess, error)
}
