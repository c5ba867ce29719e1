package llm

import (
	"log"
	"os"
	"time"
)

const (
	// EnvWorkforceMode is the environment variable name for mode selection.
	EnvWorkforceMode = "WORKFORCE_MODE"
	// ModeMock indicates mock mode should be used.
	ModeMock = "MOCK"
)

// NewLLMClient creates an LLM client based on the WORKFORCE_MODE environment
// variable. If WORKFORCE_MODE=MOCK, returns a MockClient; otherwise returns
// a real HTTP client.
func NewLLMClient(baseURL, apiKey, model string, timeout time.Duration) Client {
	if os.Getenv(EnvWorkforceMode) == ModeMock {
		log.Println("WORKFORCE_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	return NewClient(baseURL, apiKey, model, timeout)
}
