// Package content resolves the text of simulated messages. Two generator
// variants sit behind one interface: an LLM-backed generator and a
// deterministic template generator. The LLM variant delegates to the
// template variant on any failure, so Generate never fails upward.
package content

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"github.com/xiaot623/workforce/internal/adapter/llm"
	"github.com/xiaot623/workforce/internal/domain"
)

// Generated is one resolved email.
type Generated struct {
	Subject string
	Body    string
}

// Generator produces email content for a worker.
type Generator interface {
	Generate(ctx context.Context, department domain.Department, workerName string) (Generated, error)
}

// NewGenerator selects the generator variant at construction time. The LLM
// variant is used only when AI generation is enabled and a client exists.
func NewGenerator(enableAI bool, directive string, client llm.Client) Generator {
	tmpl := NewTemplateGenerator()
	if enableAI && client != nil {
		return NewLLMGenerator(client, directive, tmpl)
	}
	return tmpl
}

// TemplateGenerator cycles through a small per-department rotation of
// pre-written emails. Successive calls step a shared counter so repeated
// fallbacks do not produce the same email every time.
type TemplateGenerator struct {
	counter atomic.Int64
}

// NewTemplateGenerator creates a template generator with a fresh counter.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

type emailTemplate struct {
	subject string
	body    string // %s is the worker's display name
}

var departmentTemplates = map[domain.Department][]emailTemplate{
	domain.DepartmentEngineering: {
		{"Sprint Update", "Hi team,\n\nJust a quick update on the current sprint. We're on track with the planned deliverables.\n\nBest,\n%s"},
		{"Code Review Request", "Hi,\n\nCould you take a look at my latest PR when you get a chance? It addresses the performance issue we discussed.\n\nThanks,\n%s"},
	},
	domain.DepartmentSales: {
		{"Client Follow-up", "Hi team,\n\nFollowing up on today's client call. They're interested in moving forward with the proposal.\n\nBest,\n%s"},
		{"Pipeline Update", "Hi,\n\nQuick update on the Q4 pipeline - we're tracking well against targets.\n\nRegards,\n%s"},
	},
}

var genericTemplates = []emailTemplate{
	{"Work Update", "Hi,\n\nSharing a quick update on current priorities.\n\nBest,\n%s"},
}

// Generate returns the next template in the department's rotation. It
// never returns an error.
func (g *TemplateGenerator) Generate(ctx context.Context, department domain.Department, workerName string) (Generated, error) {
	n := g.counter.Add(1)

	templates, ok := departmentTemplates[department]
	if !ok {
		templates = genericTemplates
	}
	t := templates[n%int64(len(templates))]

	return Generated{
		Subject: t.subject,
		Body:    strings.ReplaceAll(t.body, "%s", workerName),
	}, nil
}

// LLMGenerator produces email content via an LLM client, degrading to the
// template generator when the call or parse fails.
type LLMGenerator struct {
	client    llm.Client
	directive string
	fallback  *TemplateGenerator
}

// NewLLMGenerator creates an LLM-backed generator with a template fallback.
func NewLLMGenerator(client llm.Client, directive string, fallback *TemplateGenerator) *LLMGenerator {
	if fallback == nil {
		fallback = NewTemplateGenerator()
	}
	return &LLMGenerator{client: client, directive: directive, fallback: fallback}
}

// Generate asks the LLM for an email and parses it. Any failure falls back
// to the template rotation, so the returned error is always nil.
func (g *LLMGenerator) Generate(ctx context.Context, department domain.Department, workerName string) (Generated, error) {
	maxTokens := 500
	temperature := 0.8

	resp, err := g.client.CreateChatCompletion(ctx, &llm.ChatCompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: emailSystemPrompt},
			{Role: "user", Content: buildEmailPrompt(department, workerName, g.directive)},
		},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		log.Printf("WARN: LLM generation failed, using fallback: %v", err)
		return g.fallback.Generate(ctx, department, workerName)
	}

	content := strings.TrimSpace(resp.Content())
	if content == "" {
		log.Printf("WARN: LLM returned empty content, using fallback")
		return g.fallback.Generate(ctx, department, workerName)
	}

	return parseEmailResponse(content, workerName), nil
}

var subjectPrefixes = []string{"Subject:", "subject:", "RE:", "Re:"}

// parseEmailResponse splits an LLM response into subject and body. The
// first line is the subject with known prefixes stripped; a response
// without a line break becomes the body under a synthesized subject.
func parseEmailResponse(content, workerName string) Generated {
	parts := strings.SplitN(strings.TrimSpace(content), "\n", 2)

	if len(parts) < 2 {
		return Generated{
			Subject: "Update from " + workerName,
			Body:    strings.TrimSpace(content),
		}
	}

	subject := strings.TrimSpace(parts[0])
	for _, prefix := range subjectPrefixes {
		if strings.HasPrefix(subject, prefix) {
			subject = strings.TrimSpace(strings.TrimPrefix(subject, prefix))
		}
	}

	return Generated{
		Subject: subject,
		Body:    strings.TrimSpace(parts[1]),
	}
}
