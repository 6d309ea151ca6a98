package gmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGmail struct {
	mu      sync.Mutex
	labels  []label
	created []label
	lists   int
	// conflictOn makes the create of that name answer 409 after inserting it,
	// as if another client won the race.
	conflictOn string
}

func (f *fakeGmail) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path != labelsPath {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		f.lists++
		json.NewEncoder(w).Encode(listResponse{Labels: f.labels})
	case http.MethodPost:
		var req label
		json.NewDecoder(r.Body).Decode(&req)
		req.ID = fmt.Sprintf("Label_%d", len(f.labels)+1)
		req.Type = "user"
		f.labels = append(f.labels, req)
		if req.Name == f.conflictOn {
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"error":{"message":"Label name exists or conflicts"}}`))
			return
		}
		f.created = append(f.created, req)
		json.NewEncoder(w).Encode(req)
	}
}

func newFake(labels ...label) (*fakeGmail, *Provider, func()) {
	fake := &fakeGmail{labels: labels}
	srv := httptest.NewServer(fake)
	return fake, New(httpclient.New(srv.URL, nil)), srv.Close
}

func TestListNodesNestsByPath(t *testing.T) {
	_, p, done := newFake(
		label{ID: "INBOX", Name: "INBOX", Type: "system"},
		label{ID: "L1", Name: "Urgent", Type: "user"},
		label{ID: "L2", Name: "Urgent/No Power", Type: "user"},
		label{ID: "L3", Name: "Old/Thing", Type: "user"},
	)
	defer done()

	nodes, err := p.ListNodes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []provider.RemoteNode{
		{ID: "L1", Name: "Urgent"},
		{ID: "L2", Name: "No Power", ParentID: "L1"},
		{ID: "L3", Name: "Old/Thing"},
	}, nodes)
}

func TestCreateNodeUnderParent(t *testing.T) {
	fake, p, done := newFake(label{ID: "L1", Name: "Urgent", Type: "user"})
	defer done()

	node, err := p.CreateNode(context.Background(), "Burst Pipe", "L1", "#FB4C2F")

	require.NoError(t, err)
	assert.Equal(t, "Burst Pipe", node.Name)
	assert.Equal(t, "L1", node.ParentID)
	assert.False(t, node.Adopted)
	require.Len(t, fake.created, 1)
	assert.Equal(t, "Urgent/Burst Pipe", fake.created[0].Name)
	require.NotNil(t, fake.created[0].Color)
	assert.Equal(t, "#fb4c2f", fake.created[0].Color.BackgroundColor)
	assert.Equal(t, 1, fake.lists, "unknown parent id triggers one refresh")

	child, err := p.CreateNode(context.Background(), "Basement", node.ID, "")
	require.NoError(t, err)
	assert.Equal(t, node.ID, child.ParentID)
	assert.Equal(t, "Urgent/Burst Pipe/Basement", fake.created[1].Name)
	assert.Nil(t, fake.created[1].Color)
	assert.Equal(t, 1, fake.lists, "created labels are indexed without a refresh")
}

func TestCreateNodeAdoptsOnConflict(t *testing.T) {
	fake, p, done := newFake()
	fake.conflictOn = "Sales"
	defer done()

	node, err := p.CreateNode(context.Background(), "Sales", "", "")

	require.NoError(t, err)
	assert.Equal(t, "Label_1", node.ID)
	assert.True(t, node.Adopted)
	assert.Empty(t, fake.created)
}

func TestCreateNodeUnknownParent(t *testing.T) {
	_, p, done := newFake()
	defer done()

	_, err := p.CreateNode(context.Background(), "Child", "missing", "")

	require.Error(t, err)
	assert.False(t, provider.IsRetriable(err))
}
