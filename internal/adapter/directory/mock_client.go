package directory

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is an in-memory directory implementation for testing and
// mock-mode runs.
type MockClient struct {
	mu    sync.Mutex
	users map[string]User
	seq   int

	// FailCreateFor makes CreateUser fail for matching principal names.
	FailCreateFor map[string]bool
	// FailDelete makes every DeleteUser call fail.
	FailDelete bool
}

// Ensure MockClient implements Client interface.
var _ Client = (*MockClient)(nil)

// NewMockClient creates an empty in-memory directory.
func NewMockClient() *MockClient {
	return &MockClient{users: make(map[string]User)}
}

// Ready always succeeds for the mock directory.
func (m *MockClient) Ready() error { return nil }

// CreateUser records the account in memory.
func (m *MockClient) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateFor[req.UserPrincipalName] {
		return nil, fmt.Errorf("mock directory: create refused for %s", req.UserPrincipalName)
	}

	m.seq++
	user := User{
		ObjectID:          fmt.Sprintf("mock-object-%04d", m.seq),
		DisplayName:       req.DisplayName,
		UserPrincipalName: req.UserPrincipalName,
	}
	m.users[user.ObjectID] = user
	return &user, nil
}

// DeleteUser removes the account from memory.
func (m *MockClient) DeleteUser(ctx context.Context, objectID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailDelete {
		return fmt.Errorf("mock directory: delete refused for %s", objectID)
	}
	if _, ok := m.users[objectID]; !ok {
		return fmt.Errorf("mock directory: unknown object %s", objectID)
	}
	delete(m.users, objectID)
	return nil
}

// UserCount returns the number of accounts currently held.
func (m *MockClient) UserCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}
