package merge

import (
	"context"
	"errors"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/schema"

	"golang.org/x/sync/errgroup"
)

var ErrNoBusinessTypes = errors.New("at least one business type is required")

// SchemaLoader is the read side of the schema repository.
type SchemaLoader interface {
	Classification(businessType string) (*schema.ClassificationSchema, error)
	Behavior(businessType string) (*schema.BehaviorSchema, error)
	Taxonomy(businessType string) (*schema.TaxonomySchema, error)
}

// Engine loads the three layers for a business-type selection and merges
// each of them. It performs no network I/O.
type Engine struct {
	loader SchemaLoader
	opts   Options
	logger logger.ILogger
}

func NewEngine(loader SchemaLoader, opts Options, log logger.ILogger) *Engine {
	return &Engine{loader: loader, opts: opts.withDefaults(), logger: log}
}

func (e *Engine) Merge(ctx context.Context, businessTypes []string, tenant *TenantProfile) (*MergedConfiguration, error) {
	types := schema.SortBusinessTypes(businessTypes)
	if len(types) == 0 {
		return nil, ErrNoBusinessTypes
	}
	start := time.Now()

	var (
		classification *MergedClassification
		behavior       *MergedBehavior
		taxonomy       *MergedTaxonomy
		names          []string
		clsWarnings    []Warning
		taxWarnings    []Warning
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		docs := make([]*schema.ClassificationSchema, 0, len(types))
		for _, t := range types {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := e.loader.Classification(t)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		classification, clsWarnings = MergeClassification(docs)
		for _, d := range sortClassification(docs) {
			names = append(names, d.BusinessType())
		}
		return nil
	})

	g.Go(func() error {
		docs := make([]*schema.BehaviorSchema, 0, len(types))
		for _, t := range types {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := e.loader.Behavior(t)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		behavior = MergeBehavior(docs, tenant, e.opts)
		return nil
	})

	g.Go(func() error {
		docs := make([]*schema.TaxonomySchema, 0, len(types))
		for _, t := range types {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := e.loader.Taxonomy(t)
			if err != nil {
				return err
			}
			docs = append(docs, doc)
		}
		taxonomy, taxWarnings = MergeTaxonomy(docs, tenant)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	warnings := append([]Warning{}, clsWarnings...)
	warnings = append(warnings, taxWarnings...)

	e.logger.Debug(logger.ModuleMerge, "Configuration merged", map[string]interface{}{
		"business_types": names,
		"intents":        len(classification.IntentMap),
		"nodes":          taxonomy.Count(),
		"warnings":       len(warnings),
		"took_ms":        time.Since(start).Milliseconds(),
	})

	return &MergedConfiguration{
		BusinessTypes:  names,
		Classification: classification,
		Behavior:       behavior,
		Taxonomy:       taxonomy,
		Warnings:       warnings,
	}, nil
}
