package extract

//go:generate mockgen -source=transport.go -destination=transport_mock.go -package=extract

import (
	"context"
	"errors"
)

// ErrResponseFormatUnsupported is returned by a Transport that cannot honor
// a native structured-output request.
var ErrResponseFormatUnsupported = errors.New("response format not supported")

// FileRef points to a document previously uploaded to the model provider.
type FileRef struct {
	URI      string
	MIMEType string
}

// Request is one model call. When Native is set the transport must ask the
// model for JSON conforming to Schema.
type Request struct {
	System string
	Prompt string
	Schema map[string]any
	Native bool
	File   *FileRef
}

// Transport sends requests to a language model.
type Transport interface {
	Generate(ctx context.Context, req Request) (string, error)
	Upload(ctx context.Context, data []byte, mimeType string) (*FileRef, error)
}
