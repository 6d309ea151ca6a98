package outlook

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/httpclient"
)

const (
	Kind           = "outlook"
	DefaultBaseURL = "https://graph.microsoft.com"

	foldersPath = "/v1.0/me/mailFolders"
	pageSize    = "100"
)

// Provider maps Microsoft Graph mail folders onto the generic node shape.
// Folders carry no color, so color hints are dropped.
type Provider struct {
	client *httpclient.Client
}

var _ provider.Provider = (*Provider)(nil)

func New(client *httpclient.Client) *Provider {
	return &Provider{client: client}
}

type mailFolder struct {
	ID               string `json:"id,omitempty"`
	DisplayName      string `json:"displayName"`
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	ChildFolderCount int    `json:"childFolderCount,omitempty"`
}

type folderPage struct {
	Value    []mailFolder `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

func (p *Provider) Kind() string { return Kind }

// ListNodes walks the folder tree breadth-first. Top-level folders report an
// empty parent id even though Graph parents them under msgfolderroot.
func (p *Provider) ListNodes(ctx context.Context) ([]provider.RemoteNode, error) {
	top, err := p.listPages(ctx, foldersPath)
	if err != nil {
		return nil, err
	}

	var nodes []provider.RemoteNode
	queue := make([]mailFolder, 0, len(top))
	for _, f := range top {
		nodes = append(nodes, provider.RemoteNode{ID: f.ID, Name: f.DisplayName})
		queue = append(queue, f)
	}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.ChildFolderCount == 0 {
			continue
		}
		children, err := p.listPages(ctx, childPath(f.ID))
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			nodes = append(nodes, provider.RemoteNode{ID: c.ID, Name: c.DisplayName, ParentID: f.ID})
			queue = append(queue, c)
		}
	}
	return nodes, nil
}

func childPath(parentID string) string {
	return foldersPath + "/" + url.PathEscape(parentID) + "/childFolders"
}

func (p *Provider) listPages(ctx context.Context, path string) ([]mailFolder, error) {
	var out []mailFolder
	query := url.Values{"$top": {pageSize}}
	for path != "" {
		var page folderPage
		if err := p.client.DoJSON(ctx, "graph list folders", http.MethodGet, path, query, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Value...)
		// nextLink already carries the query.
		path, query = page.NextLink, nil
	}
	return out, nil
}

// CreateNode creates a folder. Graph answers 409 when a sibling with the same
// display name exists; that folder is adopted.
func (p *Provider) CreateNode(ctx context.Context, name, parentID, _ string) (provider.RemoteNode, error) {
	path := foldersPath
	if parentID != "" {
		path = childPath(parentID)
	}

	var created mailFolder
	err := p.client.DoJSON(ctx, "graph create folder", http.MethodPost, path, nil, mailFolder{DisplayName: name}, &created)
	if err == nil {
		return provider.RemoteNode{ID: created.ID, Name: name, ParentID: parentID}, nil
	}

	var pe *provider.ProviderError
	if !errors.As(err, &pe) || pe.StatusCode != http.StatusConflict {
		return provider.RemoteNode{}, err
	}
	siblings, listErr := p.listPages(ctx, path)
	if listErr != nil {
		return provider.RemoteNode{}, listErr
	}
	for _, f := range siblings {
		if strings.EqualFold(f.DisplayName, name) {
			return provider.RemoteNode{ID: f.ID, Name: name, ParentID: parentID, Adopted: true}, nil
		}
	}
	return provider.RemoteNode{}, err
}
