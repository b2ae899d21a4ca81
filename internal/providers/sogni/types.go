package sogni

import "context"

// Model describes one generation model advertised by the provider.
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// ProjectParams carries everything needed for one generation request.
type ProjectParams struct {
	ModelID               string
	PositivePrompt        string
	NegativePrompt        string
	StartingImage         []byte
	StartingImageStrength float64
	Guidance              float64
	Steps                 int
	NumberOfImages        int
	OutputFormat          string
	Width                 int
	Height                int
	TokenType             string
}

// ProjectHandle identifies a submitted project for completion polling.
type ProjectHandle struct {
	ID string
}

// GenerationClient is the provider contract the worker depends on. The
// completion result is deliberately loosely typed: depending on provider
// version it arrives as a raw URL string, a list of URLs, or an object
// with a URL-bearing field. Extraction is the caller's concern.
type GenerationClient interface {
	Authenticate(ctx context.Context, username, token, refreshToken string) error
	AvailableModels(ctx context.Context) ([]Model, error)
	Submit(ctx context.Context, params ProjectParams) (ProjectHandle, error)
	AwaitCompletion(ctx context.Context, handle ProjectHandle) (any, error)
}
