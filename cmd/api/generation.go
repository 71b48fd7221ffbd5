package main

import (
	"context"

	"talk-support/internal/suggestion"
	"talk-support/pkg/llmprovider"
)

// generationPort adapts the provider manager to the engine's
// generation contract.
type generationPort struct {
	manager *llmprovider.Manager
}

var _ suggestion.GenerationPort = (*generationPort)(nil)

func newGenerationPort(manager *llmprovider.Manager) *generationPort {
	return &generationPort{manager: manager}
}

func (g *generationPort) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	resp, err := g.manager.GenerateContent(ctx, &llmprovider.Request{
		SystemInstruction: systemInstruction,
		Messages: []llmprovider.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}
