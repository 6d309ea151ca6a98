package schema

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"email-onboarding-be/internal/pkg/logger"

	"github.com/patrickmn/go-cache"
)

// BusinessType is one entry of the catalogue: available in all three layers.
type BusinessType struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Repository loads schema documents once per process. Documents are static
// per deploy, so the cache never expires and is never invalidated.
type Repository struct {
	source Source
	cache  *cache.Cache
	logger logger.ILogger
}

func NewRepository(source Source, log logger.ILogger) *Repository {
	return &Repository{
		source: source,
		cache:  cache.New(cache.NoExpiration, 0),
		logger: log,
	}
}

func cacheKey(layer Layer, slug string) string {
	return string(layer) + ":" + slug
}

// Load returns the document for (layer, businessType).
func (r *Repository) Load(layer Layer, businessType string) (Document, error) {
	slug := Slug(businessType)
	if slug == "" {
		return nil, &SchemaNotFoundError{Layer: layer, BusinessType: businessType}
	}

	key := cacheKey(layer, slug)
	if doc, found := r.cache.Get(key); found {
		return doc.(Document), nil
	}

	start := time.Now()
	data, err := r.source.Read(layer, slug)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SchemaNotFoundError{Layer: layer, BusinessType: businessType}
		}
		return nil, fmt.Errorf("read %s schema %q: %w", layer, slug, err)
	}

	doc, err := decode(layer, data)
	if err != nil {
		r.logger.Warn(logger.ModuleSchema, "Rejected malformed schema", map[string]interface{}{
			"layer": layer, "business_type": slug, "error": err.Error(),
		})
		return nil, &SchemaInvalidError{Layer: layer, BusinessType: businessType, Err: err}
	}
	if Slug(doc.BusinessType()) != slug {
		return nil, &SchemaInvalidError{
			Layer:        layer,
			BusinessType: businessType,
			Err:          fmt.Errorf("document declares business type %q", doc.BusinessType()),
		}
	}

	// Concurrent first loads race here; everyone returns the instance that won.
	if err := r.cache.Add(key, doc, cache.NoExpiration); err != nil {
		if cached, found := r.cache.Get(key); found {
			return cached.(Document), nil
		}
	}

	r.logger.Debug(logger.ModuleSchema, "Schema loaded", map[string]interface{}{
		"layer": layer, "business_type": slug, "version": doc.Version(), "took_ms": time.Since(start).Milliseconds(),
	})
	return doc, nil
}

func (r *Repository) Classification(businessType string) (*ClassificationSchema, error) {
	doc, err := r.Load(LayerClassification, businessType)
	if err != nil {
		return nil, err
	}
	return doc.(*ClassificationSchema), nil
}

func (r *Repository) Behavior(businessType string) (*BehaviorSchema, error) {
	doc, err := r.Load(LayerBehavior, businessType)
	if err != nil {
		return nil, err
	}
	return doc.(*BehaviorSchema), nil
}

func (r *Repository) Taxonomy(businessType string) (*TaxonomySchema, error) {
	doc, err := r.Load(LayerTaxonomy, businessType)
	if err != nil {
		return nil, err
	}
	return doc.(*TaxonomySchema), nil
}

// BusinessTypes lists the types that have a document in every layer, with the
// display name declared by the classification document.
func (r *Repository) BusinessTypes() ([]BusinessType, error) {
	counts := make(map[string]int)
	var order []string
	for _, layer := range Layers() {
		slugs, err := r.source.List(layer)
		if err != nil {
			return nil, fmt.Errorf("list %s schemas: %w", layer, err)
		}
		for _, slug := range slugs {
			if counts[slug] == 0 {
				order = append(order, slug)
			}
			counts[slug]++
		}
	}

	var out []BusinessType
	for _, slug := range SortBusinessTypes(order) {
		if counts[slug] != len(Layers()) {
			continue
		}
		cls, err := r.Classification(slug)
		if err != nil {
			return nil, err
		}
		out = append(out, BusinessType{Slug: slug, Name: cls.BusinessType()})
	}
	return out, nil
}
