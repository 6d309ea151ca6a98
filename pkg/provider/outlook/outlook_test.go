package outlook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/provider/httpclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph serves a folder tree. Top-level listings are split into pages of
// one folder to exercise nextLink handling.
type fakeGraph struct {
	mu      sync.Mutex
	url     string
	folders []mailFolder
	posts   []string
}

func (f *fakeGraph) children(parentID string) []mailFolder {
	var out []mailFolder
	for _, folder := range f.folders {
		if folder.ParentFolderID == parentID {
			folder.ChildFolderCount = 0
			for _, c := range f.folders {
				if c.ParentFolderID == folder.ID {
					folder.ChildFolderCount++
				}
			}
			out = append(out, folder)
		}
	}
	return out
}

func (f *fakeGraph) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parentID := "root"
	if rest := strings.TrimPrefix(r.URL.Path, foldersPath+"/"); rest != r.URL.Path {
		parentID = strings.TrimSuffix(rest, "/childFolders")
	}

	switch r.Method {
	case http.MethodGet:
		list := f.children(parentID)
		if parentID == "root" {
			page := 0
			fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
			resp := folderPage{}
			if page < len(list) {
				resp.Value = list[page : page+1]
			}
			if page+1 < len(list) {
				resp.NextLink = fmt.Sprintf("%s%s?page=%d", f.url, foldersPath, page+1)
			}
			json.NewEncoder(w).Encode(resp)
			return
		}
		json.NewEncoder(w).Encode(folderPage{Value: list})
	case http.MethodPost:
		var req mailFolder
		json.NewDecoder(r.Body).Decode(&req)
		for _, existing := range f.children(parentID) {
			if strings.EqualFold(existing.DisplayName, req.DisplayName) {
				w.WriteHeader(http.StatusConflict)
				w.Write([]byte(`{"error":{"code":"ErrorFolderExists"}}`))
				return
			}
		}
		req.ID = fmt.Sprintf("F%d", len(f.folders)+1)
		req.ParentFolderID = parentID
		f.folders = append(f.folders, req)
		f.posts = append(f.posts, r.URL.Path)
		json.NewEncoder(w).Encode(req)
	}
}

func newFake(folders ...mailFolder) (*fakeGraph, *Provider, func()) {
	fake := &fakeGraph{folders: folders}
	srv := httptest.NewServer(fake)
	fake.url = srv.URL
	return fake, New(httpclient.New(srv.URL, nil)), srv.Close
}

func TestListNodesWalksTreeAndPages(t *testing.T) {
	_, p, done := newFake(
		mailFolder{ID: "A", DisplayName: "Urgent", ParentFolderID: "root"},
		mailFolder{ID: "B", DisplayName: "Sales", ParentFolderID: "root"},
		mailFolder{ID: "C", DisplayName: "No Power", ParentFolderID: "A"},
		mailFolder{ID: "D", DisplayName: "Basement", ParentFolderID: "C"},
	)
	defer done()

	nodes, err := p.ListNodes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []provider.RemoteNode{
		{ID: "A", Name: "Urgent"},
		{ID: "B", Name: "Sales"},
		{ID: "C", Name: "No Power", ParentID: "A"},
		{ID: "D", Name: "Basement", ParentID: "C"},
	}, nodes)
}

func TestCreateNodeTopLevelAndChild(t *testing.T) {
	fake, p, done := newFake()
	defer done()

	top, err := p.CreateNode(context.Background(), "Urgent", "", "#fb4c2f")
	require.NoError(t, err)
	child, err := p.CreateNode(context.Background(), "No Power", top.ID, "")
	require.NoError(t, err)

	assert.Equal(t, "", top.ParentID)
	assert.False(t, top.Adopted)
	assert.Equal(t, top.ID, child.ParentID)
	assert.Equal(t, []string{foldersPath, foldersPath + "/" + top.ID + "/childFolders"}, fake.posts)
}

func TestCreateNodeAdoptsExistingSibling(t *testing.T) {
	fake, p, done := newFake(mailFolder{ID: "A", DisplayName: "Urgent", ParentFolderID: "root"})
	defer done()

	node, err := p.CreateNode(context.Background(), "urgent", "", "")

	require.NoError(t, err)
	assert.Equal(t, "A", node.ID)
	assert.True(t, node.Adopted)
	assert.Empty(t, fake.posts)
}
