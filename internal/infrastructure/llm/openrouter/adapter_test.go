package openrouter

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"manifest-agent/internal/domain/entity"
)

func TestConvertResponseMessage_WithContent(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "Hello, world!",
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Equal(t, "Hello, world!", result.Content)
	assert.Empty(t, result.ToolCalls)
}

func TestConvertResponseMessage_WithToolCalls(t *testing.T) {
	msg := openai.ChatCompletionMessage{
		Role:    "assistant",
		Content: "",
		ToolCalls: []openai.ToolCall{
			{
				ID:   "call_123",
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      "navigate",
					Arguments: `{"url":"https://example.com"}`,
				},
			},
		},
	}

	result := convertResponseMessage(msg)

	assert.Equal(t, entity.RoleAssistant, result.Role)
	assert.Len(t, result.ToolCalls, 1)
	assert.Equal(t, "call_123", result.ToolCalls[0].ID)
	assert.Equal(t, "navigate", result.ToolCalls[0].Name)
	assert.Equal(t, `{"url":"https://example.com"}`, result.ToolCalls[0].Arguments)
}

func TestConvertMessages(t *testing.T) {
	messages := []entity.Message{
		{
			Role:    entity.RoleSystem,
			Content: "You are an agent",
		},
		{
			Role:    entity.RoleUser,
			Content: "Hello",
		},
		{
			Role: entity.RoleAssistant,
			ToolCalls: []entity.ToolCall{
				{ID: "call_1", Name: "click", Arguments: `{"index":3}`},
			},
		},
		{
			Role:       entity.RoleTool,
			Content:    "clicked",
			ToolCallID: "call_1",
			Name:       "click",
		},
	}

	result := convertMessages(messages)

	assert.Len(t, result, 4)
	assert.Equal(t, "system", result[0].Role)
	assert.Equal(t, "user", result[1].Role)
	assert.Equal(t, "Hello", result[1].Content)

	assert.Len(t, result[2].ToolCalls, 1)
	assert.Equal(t, "click", result[2].ToolCalls[0].Function.Name)

	assert.Equal(t, "tool", result[3].Role)
	assert.Equal(t, "call_1", result[3].ToolCallID)
	assert.Equal(t, "click", result[3].Name)
}

func TestConvertTools(t *testing.T) {
	tools := []entity.ToolDefinition{
		{
			Name:        "navigate",
			Description: "Open a URL",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{"type": "string"},
				},
			},
		},
	}

	result := convertTools(tools)

	assert.Len(t, result, 1)
	assert.Equal(t, openai.ToolTypeFunction, result[0].Type)
	assert.Equal(t, "navigate", result[0].Function.Name)
	assert.Equal(t, "Open a URL", result[0].Function.Description)
}
