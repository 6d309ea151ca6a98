package factory

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/gmail"
	"email-onboarding-be/pkg/provider/httpclient"
	"email-onboarding-be/pkg/provider/outlook"

	"golang.org/x/oauth2"
)

var ErrUnsupportedProvider = errors.New("unsupported mail provider")

// CanonicalKind folds provider aliases onto the adapter kinds.
func CanonicalKind(kind string) string {
	switch k := strings.ToLower(strings.TrimSpace(kind)); k {
	case "google":
		return gmail.Kind
	case "microsoft", "graph", "office365":
		return outlook.Kind
	default:
		return k
	}
}

func NewProvider(kind, baseURL string, hc *http.Client) (provider.Provider, error) {
	switch CanonicalKind(kind) {
	case gmail.Kind:
		if baseURL == "" {
			baseURL = gmail.DefaultBaseURL
		}
		return gmail.New(httpclient.New(baseURL, hc)), nil
	case outlook.Kind:
		if baseURL == "" {
			baseURL = outlook.DefaultBaseURL
		}
		return outlook.New(httpclient.New(baseURL, hc)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, kind)
	}
}

// Resolver builds an authenticated provider for a tenant.
type Resolver struct {
	DefaultKind string
	BaseURLs    map[string]string
}

// Resolve picks kind (or the default), asks credentials for a token source
// and wraps it in an oauth2 HTTP client.
func (r *Resolver) Resolve(ctx context.Context, tenantID, kind string, credentials provider.CredentialSupplier) (provider.Provider, error) {
	if kind == "" {
		kind = r.DefaultKind
	}
	ts, err := credentials.TokenSource(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	// The client outlives ctx: it is used for the whole reconciliation run.
	hc := oauth2.NewClient(context.WithoutCancel(ctx), ts)
	return NewProvider(kind, r.BaseURLs[CanonicalKind(kind)], hc)
}
