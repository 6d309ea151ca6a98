package schema

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"email-onboarding-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	Source
	reads atomic.Int32
}

func (c *countingSource) Read(layer Layer, slug string) ([]byte, error) {
	c.reads.Add(1)
	return c.Source.Read(layer, slug)
}

const bakeryTaxonomy = `
businessType: Bakery
version: 1
nodes:
  - name: Orders
    color: "#16a766"
    children:
      - name: Wholesale
  - name: Catering
    parentName: Orders
  - name: Staff
    children:
      - name: "{{member}}"
        dynamicTemplate: true
        dynamicSource: team_members
`

func fixture(files map[string]string) *FSSource {
	fsys := fstest.MapFS{}
	for name, body := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(body)}
	}
	return NewFSSource(fsys, ".")
}

func TestLoadCachesPerLayerAndType(t *testing.T) {
	src := &countingSource{Source: fixture(map[string]string{"taxonomy/bakery.yaml": bakeryTaxonomy})}
	repo := NewRepository(src, logger.NewNopLogger())

	first, err := repo.Taxonomy("Bakery")
	require.NoError(t, err)
	second, err := repo.Taxonomy("bakery")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.EqualValues(t, 1, src.reads.Load())
}

func TestLoadConcurrentFirstAccess(t *testing.T) {
	repo := NewRepository(fixture(map[string]string{"taxonomy/bakery.yaml": bakeryTaxonomy}), logger.NewNopLogger())

	var wg sync.WaitGroup
	results := make([]*TaxonomySchema, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			doc, err := repo.Taxonomy("Bakery")
			if err == nil {
				results[i] = doc
			}
		}(i)
	}
	wg.Wait()

	for _, doc := range results {
		require.NotNil(t, doc)
		assert.Same(t, results[0], doc)
	}
}

func TestLoadAttachesParentNameNodes(t *testing.T) {
	repo := NewRepository(fixture(map[string]string{"taxonomy/bakery.yaml": bakeryTaxonomy}), logger.NewNopLogger())

	tax, err := repo.Taxonomy("Bakery")
	require.NoError(t, err)
	require.Len(t, tax.Nodes, 2)

	orders := tax.Nodes[0]
	require.NotNil(t, orders.FindChild("catering"))
	assert.Equal(t, "Orders", orders.FindChild("Catering").ParentName)

	member := tax.Nodes[1].Children[0]
	assert.True(t, member.DynamicTemplate)
	assert.Equal(t, SourceTeamMembers, member.DynamicSource)
}

func TestLoadNotFound(t *testing.T) {
	repo := NewRepository(fixture(nil), logger.NewNopLogger())

	_, err := repo.Load(LayerBehavior, "Roofer")

	var nf *SchemaNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, LayerBehavior, nf.Layer)
	assert.Equal(t, "Roofer", nf.BusinessType)
}

func TestLoadRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{
			name: "unknown field",
			file: "behavior/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nvoiceProfile: {tone: warm}\nmood: happy\n",
		},
		{
			name: "missing tone",
			file: "behavior/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nvoiceProfile: {formality: casual}\n",
		},
		{
			name: "bad color",
			file: "taxonomy/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nnodes:\n  - name: Orders\n    color: green\n",
		},
		{
			name: "slash in name",
			file: "taxonomy/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nnodes:\n  - name: Orders/Retail\n",
		},
		{
			name: "duplicate siblings",
			file: "taxonomy/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nnodes:\n  - name: Orders\n  - name: orders\n",
		},
		{
			name: "dynamic node at top level",
			file: "taxonomy/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nnodes:\n  - name: Staff\n    dynamicTemplate: true\n    dynamicSource: team_members\n",
		},
		{
			name: "dynamic node with unknown source",
			file: "taxonomy/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nnodes:\n  - name: Staff\n    children:\n      - name: x\n        dynamicTemplate: true\n        dynamicSource: customers\n",
		},
		{
			name: "empty intent map",
			file: "classification/bakery.yaml",
			body: "businessType: Bakery\nversion: 1\nintentMap: {}\n",
		},
		{
			name: "declared type mismatch",
			file: "classification/bakery.yaml",
			body: "businessType: Florist\nversion: 1\nintentMap: {order: Orders}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewRepository(fixture(map[string]string{tt.file: tt.body}), logger.NewNopLogger())
			layer := Layer(tt.file[:len(tt.file)-len("/bakery.yaml")])

			_, err := repo.Load(layer, "Bakery")

			var invalid *SchemaInvalidError
			require.True(t, errors.As(err, &invalid), "got %v", err)
			assert.Equal(t, layer, invalid.Layer)
		})
	}
}

func TestLayeredSourceShadowsEmbedded(t *testing.T) {
	override := fixture(map[string]string{
		"behavior/plumber.yaml": "businessType: Plumber\nversion: 9\nvoiceProfile: {tone: terse}\n",
	})
	repo := NewRepository(LayeredSource{override, NewEmbeddedSource()}, logger.NewNopLogger())

	beh, err := repo.Behavior("Plumber")
	require.NoError(t, err)
	assert.Equal(t, 9, beh.Version())

	cls, err := repo.Classification("Plumber")
	require.NoError(t, err)
	assert.Equal(t, 2, cls.Version())
}

func TestEmbeddedCorpusLoads(t *testing.T) {
	repo := NewRepository(NewEmbeddedSource(), logger.NewNopLogger())

	types, err := repo.BusinessTypes()
	require.NoError(t, err)

	var slugs []string
	for _, bt := range types {
		slugs = append(slugs, bt.Slug)
		for _, layer := range Layers() {
			doc, err := repo.Load(layer, bt.Name)
			require.NoError(t, err, "%s/%s", layer, bt.Name)
			assert.Equal(t, layer, doc.Layer())
		}
	}
	assert.Equal(t, []string{"electrician", "hvac", "plumber", "pools_spas"}, slugs)
	assert.Equal(t, "Pools & Spas", types[3].Name)
}

func TestBusinessTypesRequiresAllLayers(t *testing.T) {
	repo := NewRepository(fixture(map[string]string{
		"taxonomy/bakery.yaml": bakeryTaxonomy,
	}), logger.NewNopLogger())

	types, err := repo.BusinessTypes()
	require.NoError(t, err)
	assert.Empty(t, types)
}
