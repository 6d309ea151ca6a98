package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
)

// RemoteNode is one label or folder as the mailbox reports it. Name is the
// node's own display name, never a full path.
type RemoteNode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	// Adopted is set by CreateNode when the node already existed and was
	// reused instead of created.
	Adopted bool `json:"-"`
}

// Provider is the generic shape of a mailbox label/folder API.
type Provider interface {
	// Kind names the backing service, e.g. "gmail".
	Kind() string

	// ListNodes returns a point-in-time snapshot of every user-created node.
	ListNodes(ctx context.Context) ([]RemoteNode, error)

	// CreateNode creates name under parentID ("" for top level). color is a
	// hint the provider may ignore.
	CreateNode(ctx context.Context, name, parentID, color string) (RemoteNode, error)
}

// ProviderError wraps every failure talking to a provider. Retriable errors
// (rate limits, 5xx, transport failures) are worth another attempt.
type ProviderError struct {
	Op         string
	StatusCode int
	Retriable  bool
	RetryAfter time.Duration
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsRetriable reports whether err is a retriable ProviderError.
func IsRetriable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Retriable
}

// CredentialSupplier hands out a token source for a tenant's mailbox. Token
// acquisition and refresh live outside this service.
type CredentialSupplier interface {
	TokenSource(ctx context.Context, tenantID string) (oauth2.TokenSource, error)
}

var ErrNoCredentials = errors.New("no mailbox credentials for tenant")

// StaticCredentials serves a bearer token supplied with the request.
type StaticCredentials struct {
	AccessToken string
}

func (s StaticCredentials) TokenSource(_ context.Context, tenantID string) (oauth2.TokenSource, error) {
	if s.AccessToken == "" {
		return nil, fmt.Errorf("%w %s", ErrNoCredentials, tenantID)
	}
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.AccessToken, TokenType: "Bearer"}), nil
}
