package gmail

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/httpclient"
)

const (
	Kind           = "gmail"
	DefaultBaseURL = "https://gmail.googleapis.com"

	labelsPath = "/gmail/v1/users/me/labels"
	separator  = "/"
	textColor  = "#ffffff"
)

// Provider maps Gmail labels onto the generic node shape. Gmail nests labels
// by "/" in the label name, so a node's parent is the label holding the path
// prefix.
type Provider struct {
	client *httpclient.Client

	mu    sync.Mutex
	paths map[string]string // label id -> full label name
}

var _ provider.Provider = (*Provider)(nil)

func New(client *httpclient.Client) *Provider {
	return &Provider{client: client, paths: make(map[string]string)}
}

type labelColor struct {
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
}

type label struct {
	ID                    string      `json:"id,omitempty"`
	Name                  string      `json:"name"`
	Type                  string      `json:"type,omitempty"`
	LabelListVisibility   string      `json:"labelListVisibility,omitempty"`
	MessageListVisibility string      `json:"messageListVisibility,omitempty"`
	Color                 *labelColor `json:"color,omitempty"`
}

type listResponse struct {
	Labels []label `json:"labels"`
}

func (p *Provider) Kind() string { return Kind }

func (p *Provider) ListNodes(ctx context.Context) ([]provider.RemoteNode, error) {
	labels, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}

	byPath := make(map[string]string, len(labels))
	for _, l := range labels {
		byPath[l.Name] = l.ID
	}

	nodes := make([]provider.RemoteNode, 0, len(labels))
	for _, l := range labels {
		node := provider.RemoteNode{ID: l.ID, Name: l.Name}
		if i := strings.LastIndex(l.Name, separator); i > 0 {
			if parentID, ok := byPath[l.Name[:i]]; ok {
				node.Name = l.Name[i+1:]
				node.ParentID = parentID
			}
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// fetch lists user labels and refreshes the id -> path index.
func (p *Provider) fetch(ctx context.Context) ([]label, error) {
	var resp listResponse
	if err := p.client.DoJSON(ctx, "gmail list labels", http.MethodGet, labelsPath, nil, nil, &resp); err != nil {
		return nil, err
	}

	var labels []label
	p.mu.Lock()
	for _, l := range resp.Labels {
		if l.Type == "system" {
			continue
		}
		labels = append(labels, l)
		p.paths[l.ID] = l.Name
	}
	p.mu.Unlock()
	return labels, nil
}

func (p *Provider) parentPath(ctx context.Context, parentID string) (string, error) {
	if parentID == "" {
		return "", nil
	}
	p.mu.Lock()
	path, ok := p.paths[parentID]
	p.mu.Unlock()
	if ok {
		return path, nil
	}

	if _, err := p.fetch(ctx); err != nil {
		return "", err
	}
	p.mu.Lock()
	path, ok = p.paths[parentID]
	p.mu.Unlock()
	if !ok {
		return "", &provider.ProviderError{Op: "gmail create label", StatusCode: http.StatusNotFound, Err: errors.New("parent label " + parentID + " not found")}
	}
	return path, nil
}

// CreateNode creates the label at parent path + "/" + name. A 409 means the
// label already exists, typically created by someone else after the snapshot;
// the existing label is adopted.
func (p *Provider) CreateNode(ctx context.Context, name, parentID, color string) (provider.RemoteNode, error) {
	prefix, err := p.parentPath(ctx, parentID)
	if err != nil {
		return provider.RemoteNode{}, err
	}
	fullName := name
	if prefix != "" {
		fullName = prefix + separator + name
	}

	req := label{
		Name:                  fullName,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}
	if color != "" {
		req.Color = &labelColor{BackgroundColor: strings.ToLower(color), TextColor: textColor}
	}

	var created label
	err = p.client.DoJSON(ctx, "gmail create label", http.MethodPost, labelsPath, nil, req, &created)
	if err != nil {
		var pe *provider.ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusConflict {
			return p.adopt(ctx, fullName, name, parentID, err)
		}
		return provider.RemoteNode{}, err
	}

	p.mu.Lock()
	p.paths[created.ID] = fullName
	p.mu.Unlock()
	return provider.RemoteNode{ID: created.ID, Name: name, ParentID: parentID}, nil
}

func (p *Provider) adopt(ctx context.Context, fullName, name, parentID string, cause error) (provider.RemoteNode, error) {
	labels, err := p.fetch(ctx)
	if err != nil {
		return provider.RemoteNode{}, err
	}
	for _, l := range labels {
		if strings.EqualFold(l.Name, fullName) {
			return provider.RemoteNode{ID: l.ID, Name: name, ParentID: parentID, Adopted: true}, nil
		}
	}
	return provider.RemoteNode{}, cause
}
