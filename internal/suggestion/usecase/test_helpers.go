package usecase

import (
	"context"

	"talk-support/internal/model"
)

// Mock logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Debugf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Info(ctx context.Context, arg ...any)                     {}
func (m *mockLogger) Infof(ctx context.Context, template string, arg ...any)   {}
func (m *mockLogger) Warn(ctx context.Context, arg ...any)                     {}
func (m *mockLogger) Warnf(ctx context.Context, template string, arg ...any)   {}
func (m *mockLogger) Error(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Errorf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) Fatal(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Fatalf(ctx context.Context, template string, arg ...any)  {}
func (m *mockLogger) DPanic(ctx context.Context, arg ...any)                   {}
func (m *mockLogger) DPanicf(ctx context.Context, template string, arg ...any) {}
func (m *mockLogger) Panic(ctx context.Context, arg ...any)                    {}
func (m *mockLogger) Panicf(ctx context.Context, template string, arg ...any)  {}

// fakeEmbedder implements the embedding port with function fields.
// The default maps any text to a deterministic one-hot vector.
type fakeEmbedder struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float32, error)
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if f.embedFunc != nil {
		return f.embedFunc(ctx, texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVec(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// fakeLLM implements the generation port with a function field.
type fakeLLM struct {
	generateFunc func(ctx context.Context, systemInstruction, prompt string) (string, error)
}

func (f *fakeLLM) Generate(ctx context.Context, systemInstruction, prompt string) (string, error) {
	if f.generateFunc != nil {
		return f.generateFunc(ctx, systemInstruction, prompt)
	}
	return `["テスト提案"]`, nil
}

const testDim = 8

// hashVec maps text to a deterministic unit vector so similarity math
// has stable inputs without a real embedding service.
func hashVec(text string) []float32 {
	v := make([]float32, testDim)
	var h uint32 = 2166136261
	for _, b := range []byte(text) {
		h = (h ^ uint32(b)) * 16777619
	}
	v[int(h%testDim)] = 1
	return v
}

// unitVec is a one-hot vector on axis i.
func unitVec(i int) []float32 {
	v := make([]float32, testDim)
	v[i%testDim] = 1
	return v
}

func testTurn(userID, text string) model.ConversationTurn {
	return model.ConversationTurn{UserID: userID, Text: text}
}
