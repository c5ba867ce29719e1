// Package directory provides the external identity directory client used to
// provision and delete simulated worker accounts.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/xiaot623/workforce/internal/domain"
)

// User is a created directory account.
type User struct {
	ObjectID          string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// CreateUserRequest describes the account to create.
type CreateUserRequest struct {
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
	Password          string `json:"password"`
}

// Client defines the directory operations the simulator consumes.
type Client interface {
	// Ready reports whether the client is configured well enough to
	// provision identities. Called before any account is created.
	Ready() error
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	DeleteUser(ctx context.Context, objectID string) error
}

// Credentials are the named keys required to talk to the directory tenant.
type Credentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// Missing reports whether any required credential is absent.
func (c Credentials) Missing() bool {
	return c.TenantID == "" || c.ClientID == "" || c.ClientSecret == ""
}

// GraphClient talks to a Microsoft-Graph-style directory API using
// client-credential auth. Tokens are fetched lazily on first use. One
// client is shared by every deployment, so the token cache is guarded.
type GraphClient struct {
	creds        Credentials
	baseURL      string
	authorityURL string
	httpClient   *http.Client

	tokenMu     sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Ensure GraphClient implements Client interface.
var _ Client = (*GraphClient)(nil)

// NewGraphClient creates a directory client. Missing credentials are not an
// error here; they surface from Ready or the first provisioning call.
func NewGraphClient(creds Credentials, baseURL, authorityURL string, timeout time.Duration) *GraphClient {
	if baseURL == "" {
		baseURL = "https://graph.microsoft.com/v1.0"
	}
	if authorityURL == "" {
		authorityURL = "https://login.microsoftonline.com"
	}
	return &GraphClient{
		creds:        creds,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		authorityURL: strings.TrimSuffix(authorityURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Ready fails with a configuration error when credentials are incomplete.
func (c *GraphClient) Ready() error {
	if c.creds.Missing() {
		return domain.ErrMissingCredentials
	}
	return nil
}

// CreateUser creates a directory account.
func (c *GraphClient) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := c.Ready(); err != nil {
		return nil, err
	}
	token, err := c.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"accountEnabled":    true,
		"displayName":       req.DisplayName,
		"mailNickname":      strings.SplitN(req.UserPrincipalName, "@", 2)[0],
		"userPrincipalName": req.UserPrincipalName,
		"passwordProfile": map[string]interface{}{
			"forceChangePasswordNextSignIn": false,
			"password":                      req.Password,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal user payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("directory create user failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory returned status %d creating %s", resp.StatusCode, req.UserPrincipalName)
	}

	var user User
	if err := json.Unmarshal(respBody, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// DeleteUser deletes a directory account by object id.
func (c *GraphClient) DeleteUser(ctx context.Context, objectID string) error {
	if err := c.Ready(); err != nil {
		return err
	}
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/users/"+url.PathEscape(objectID), nil)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("directory delete user failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("directory returned status %d deleting %s", resp.StatusCode, objectID)
	}
	return nil
}

// ensureToken fetches or reuses a client-credentials token. The lock is
// held across the fetch so concurrent callers never race on the cache and
// at most one token request is in flight.
func (c *GraphClient) ensureToken(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.creds.ClientID)
	form.Set("client_secret", c.creds.ClientSecret)
	form.Set("scope", "https://graph.microsoft.com/.default")

	tokenURL := fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.authorityURL, c.creds.TenantID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(respBody, &tok); err != nil {
		return "", fmt.Errorf("failed to unmarshal token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	c.token = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn-60) * time.Second)
	return c.token, nil
}
