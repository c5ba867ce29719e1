package directory

import (
	"log"
	"os"
	"time"
)

// NewDirectoryClient creates a directory client based on the WORKFORCE_MODE
// environment variable. If WORKFORCE_MODE=MOCK, returns an in-memory mock;
// otherwise a Graph client with the given credentials.
func NewDirectoryClient(creds Credentials, baseURL, authorityURL string, timeout time.Duration) Client {
	if os.Getenv("WORKFORCE_MODE") == "MOCK" {
		log.Println("WORKFORCE_MODE=MOCK detected, using mock directory client")
		return NewMockClient()
	}
	return NewGraphClient(creds, baseURL, authorityURL, timeout)
}
