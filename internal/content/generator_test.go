package content

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiaot623/workforce/internal/adapter/llm"
	"github.com/xiaot623/workforce/internal/domain"
)

func TestTemplateRotation(t *testing.T) {
	g := NewTemplateGenerator()
	ctx := context.Background()

	// Engineering has two templates; the shared counter starts at zero so
	// the first call lands on index 1, the second on index 0, and so on.
	first, err := g.Generate(ctx, domain.DepartmentEngineering, "Workforce Worker 1")
	require.NoError(t, err)
	assert.Equal(t, "Code Review Request", first.Subject)

	second, err := g.Generate(ctx, domain.DepartmentEngineering, "Workforce Worker 1")
	require.NoError(t, err)
	assert.Equal(t, "Sprint Update", second.Subject)

	third, err := g.Generate(ctx, domain.DepartmentEngineering, "Workforce Worker 1")
	require.NoError(t, err)
	assert.Equal(t, first.Subject, third.Subject)
}

func TestTemplateGenericFallback(t *testing.T) {
	g := NewTemplateGenerator()

	out, err := g.Generate(context.Background(), domain.DepartmentFinance, "Workforce Worker 2")
	require.NoError(t, err)
	assert.Equal(t, "Work Update", out.Subject)
	assert.Contains(t, out.Body, "Workforce Worker 2")
	assert.NotContains(t, out.Body, "%s")
}

type scriptedLLM struct {
	content string
	err     error
}

func (s *scriptedLLM) CreateChatCompletion(ctx context.Context, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.ChatCompletionResponse{
		Choices: []llm.Choice{{Message: &llm.ChatMessage{Role: "assistant", Content: s.content}}},
	}, nil
}

func TestLLMGeneratorParsesResponse(t *testing.T) {
	client := &scriptedLLM{content: "Subject: Q3 Planning\nHi team,\n\nLet's sync on Q3 goals.\n\nBest,\nWorker"}
	g := NewLLMGenerator(client, "", nil)

	out, err := g.Generate(context.Background(), domain.DepartmentSales, "Workforce Worker 1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Planning", out.Subject)
	assert.Contains(t, out.Body, "Q3 goals")
}

func TestLLMGeneratorFallsBackOnError(t *testing.T) {
	client := &scriptedLLM{err: errors.New("upstream unavailable")}
	g := NewLLMGenerator(client, "", nil)

	out, err := g.Generate(context.Background(), domain.DepartmentEngineering, "Workforce Worker 1")
	require.NoError(t, err, "fallback must absorb LLM failures")
	assert.Equal(t, "Code Review Request", out.Subject)
}

func TestLLMGeneratorFallsBackOnEmptyContent(t *testing.T) {
	client := &scriptedLLM{content: "   "}
	g := NewLLMGenerator(client, "", nil)

	out, err := g.Generate(context.Background(), domain.DepartmentSales, "Workforce Worker 1")
	require.NoError(t, err)
	assert.Equal(t, "Pipeline Update", out.Subject)
}

func TestParseEmailResponse(t *testing.T) {
	cases := []struct {
		name        string
		content     string
		wantSubject string
		wantBody    string
	}{
		{
			name:        "plain subject line",
			content:     "Weekly Sync\nAgenda attached.",
			wantSubject: "Weekly Sync",
			wantBody:    "Agenda attached.",
		},
		{
			name:        "subject prefix stripped",
			content:     "Subject: Weekly Sync\nAgenda attached.",
			wantSubject: "Weekly Sync",
			wantBody:    "Agenda attached.",
		},
		{
			name:        "stacked prefixes stripped in order",
			content:     "Subject: Re: Weekly Sync\nAgenda attached.",
			wantSubject: "Weekly Sync",
			wantBody:    "Agenda attached.",
		},
		{
			name:        "single line synthesizes subject",
			content:     "Just checking in on the migration status.",
			wantSubject: "Update from Workforce Worker 4",
			wantBody:    "Just checking in on the migration status.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseEmailResponse(tc.content, "Workforce Worker 4")
			assert.Equal(t, tc.wantSubject, got.Subject)
			assert.Equal(t, tc.wantBody, got.Body)
		})
	}
}

func TestNewGeneratorSelection(t *testing.T) {
	client := llm.NewMockClient()

	_, isTemplate := NewGenerator(false, "", client).(*TemplateGenerator)
	assert.True(t, isTemplate, "AI disabled must select the template variant")

	_, isLLM := NewGenerator(true, "", client).(*LLMGenerator)
	assert.True(t, isLLM, "AI enabled with a client must select the LLM variant")

	_, isTemplate = NewGenerator(true, "", nil).(*TemplateGenerator)
	assert.True(t, isTemplate, "missing client must still select the template variant")
}
