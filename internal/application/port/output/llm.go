package output

import (
	"context"

	"manifest-agent/internal/domain/entity"
)

type LLMPort interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

type ChatRequest struct {
	Messages    []entity.Message
	Tools       []entity.ToolDefinition
	Temperature float32
	// JSONResponse requests a json_object response format; used by the
	// reduction collaborator which must return structured steps.
	JSONResponse bool
}

type ChatResponse struct {
	Message entity.Message
}
