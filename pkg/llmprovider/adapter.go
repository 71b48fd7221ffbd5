package llmprovider

import (
	"context"

	"talk-support/pkg/openai"
)

// OpenAIAdapter adapts an openai.IOpenAI client to the Provider interface.
// Any OpenAI-compatible endpoint (OpenAI itself, Sakura AI, vLLM) goes
// through this adapter.
type OpenAIAdapter struct {
	client openai.IOpenAI
	name   string
}

var _ Provider = (*OpenAIAdapter)(nil)

// NewOpenAIAdapter creates an adapter. name identifies the endpoint in
// logs and errors ("openai", "sakura", ...).
func NewOpenAIAdapter(client openai.IOpenAI, name string) *OpenAIAdapter {
	if name == "" {
		name = "openai"
	}
	return &OpenAIAdapter{client: client, name: name}
}

// GenerateContent translates the normalized request to the OpenAI wire
// shape and back.
func (a *OpenAIAdapter) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrInvalidRequest
	}

	oaReq := &openai.Request{
		SystemInstruction: req.SystemInstruction,
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		Messages:          make([]openai.Message, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		oaReq.Messages = append(oaReq.Messages, openai.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	oaResp, err := a.client.GenerateContent(ctx, oaReq)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		Text:         oaResp.Text,
		ProviderName: a.name,
		ModelName:    a.client.Model(),
	}
	if oaResp.Usage != nil {
		resp.Usage = &Usage{
			InputTokens:  oaResp.Usage.InputTokens,
			OutputTokens: oaResp.Usage.OutputTokens,
			TotalTokens:  oaResp.Usage.TotalTokens,
		}
	}

	return resp, nil
}

// Name returns the provider name.
func (a *OpenAIAdapter) Name() string {
	return a.name
}

// Model returns the model being used.
func (a *OpenAIAdapter) Model() string {
	return a.client.Model()
}
