package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"email-onboarding-be/internal/dto"
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/internal/repository/unitofwork"
	deployEvents "email-onboarding-be/pkg/deployment/events"
	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/reconcile"
	"email-onboarding-be/pkg/schema"
	"email-onboarding-be/pkg/validation"

	"github.com/google/uuid"
)

const recentRunsLimit = 10

// Deployment stages reported in DEPLOYMENT_FAILED events.
const (
	stageMerge     = "merge"
	stageValidate  = "validate"
	stageProvider  = "provider"
	stageReconcile = "reconcile"
	stageInject    = "inject"
)

type BusinessTypeCatalog interface {
	BusinessTypes() ([]schema.BusinessType, error)
}

type ConfigurationMerger interface {
	Merge(ctx context.Context, businessTypes []string, tenant *merge.TenantProfile) (*merge.MergedConfiguration, error)
}

type TaxonomyReconciler interface {
	Reconcile(ctx context.Context, tenantID string, p provider.Provider, taxonomy *merge.MergedTaxonomy) (*reconcile.Result, error)
}

type ProviderResolver interface {
	Resolve(ctx context.Context, tenantID, kind string, credentials provider.CredentialSupplier) (provider.Provider, error)
}

type IDeploymentService interface {
	ListBusinessTypes(ctx context.Context) ([]dto.BusinessTypeResponse, error)
	Preview(ctx context.Context, tenantId string, req *dto.PreviewRequest) (*dto.PreviewResponse, error)
	// Deploy runs the pipeline, or queues it when req.Async is set. Merge
	// and validation always run first so a broken selection is rejected
	// before anything is queued.
	Deploy(ctx context.Context, tenantId string, req *dto.DeployRequest) (*dto.DeployResponse, error)
	// Execute runs a deployment to completion under jobId.
	Execute(ctx context.Context, jobId uuid.UUID, tenantId string, req *dto.DeployRequest) (*dto.DeployResponse, error)
	GetLabelMap(ctx context.Context, tenantId string) (*dto.LabelMapResponse, error)
}

type deploymentService struct {
	catalog          BusinessTypeCatalog
	merger           ConfigurationMerger
	reconciler       TaxonomyReconciler
	resolver         ProviderResolver
	injector         *inject.Injector
	defaultTemplate  string
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	eventPublisher   deployEvents.Publisher
	logger           logger.ILogger
}

func NewDeploymentService(
	catalog BusinessTypeCatalog,
	merger ConfigurationMerger,
	reconciler TaxonomyReconciler,
	resolver ProviderResolver,
	injector *inject.Injector,
	defaultTemplate string,
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	eventPublisher deployEvents.Publisher,
	logger logger.ILogger,
) IDeploymentService {
	return &deploymentService{
		catalog:          catalog,
		merger:           merger,
		reconciler:       reconciler,
		resolver:         resolver,
		injector:         injector,
		defaultTemplate:  defaultTemplate,
		uowFactory:       uowFactory,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		logger:           logger,
	}
}

func (s *deploymentService) ListBusinessTypes(ctx context.Context) ([]dto.BusinessTypeResponse, error) {
	types, err := s.catalog.BusinessTypes()
	if err != nil {
		return nil, err
	}
	res := make([]dto.BusinessTypeResponse, 0, len(types))
	for _, t := range types {
		res = append(res, dto.BusinessTypeResponse{Slug: t.Slug, Name: t.Name})
	}
	return res, nil
}

func toTenantProfile(tenantId string, t dto.TenantRequest) *merge.TenantProfile {
	return &merge.TenantProfile{
		TenantID:     tenantId,
		BusinessName: t.BusinessName,
		TeamMembers:  t.TeamMembers,
		Vendors:      t.Vendors,
		VoiceProfile: t.VoiceProfile,
	}
}

// mergeAndValidate is the fail-closed gate: nothing past it runs unless every
// intent target exists in the merged taxonomy.
func (s *deploymentService) mergeAndValidate(ctx context.Context, businessTypes []string, tenant *merge.TenantProfile) (*merge.MergedConfiguration, []merge.Warning, string, error) {
	cfg, err := s.merger.Merge(ctx, businessTypes, tenant)
	if err != nil {
		return nil, nil, stageMerge, err
	}

	report := validation.Validate(cfg)
	warnings := append(append([]merge.Warning{}, cfg.Warnings...), report.MergeWarnings()...)
	if err := report.Err(); err != nil {
		return nil, warnings, stageValidate, err
	}
	return cfg, warnings, "", nil
}

func (s *deploymentService) Preview(ctx context.Context, tenantId string, req *dto.PreviewRequest) (*dto.PreviewResponse, error) {
	cfg, warnings, _, err := s.mergeAndValidate(ctx, req.BusinessTypes, toTenantProfile(tenantId, req.Tenant))
	if err != nil {
		return nil, err
	}

	return &dto.PreviewResponse{
		BusinessTypes:  cfg.BusinessTypes,
		Classification: cfg.Classification,
		Behavior:       cfg.Behavior,
		Taxonomy:       cfg.Taxonomy,
		NodeCount:      cfg.Taxonomy.Count(),
		Warnings:       warnings,
	}, nil
}

func (s *deploymentService) Deploy(ctx context.Context, tenantId string, req *dto.DeployRequest) (*dto.DeployResponse, error) {
	jobId := uuid.New()
	if !req.Async {
		return s.Execute(ctx, jobId, tenantId, req)
	}

	_, warnings, stage, err := s.mergeAndValidate(ctx, req.BusinessTypes, toTenantProfile(tenantId, req.Tenant))
	if err != nil {
		s.fail(ctx, jobId, tenantId, stage, err)
		return nil, err
	}

	msg := dto.PublishDeploymentMessage{JobId: jobId, TenantId: tenantId, Request: *req}
	if err := s.publisherService.Publish(ctx, msg); err != nil {
		return nil, fmt.Errorf("queue deployment: %w", err)
	}

	s.logger.Info(logger.ModuleDeployment, "Deployment queued", map[string]interface{}{
		"job_id": jobId, "tenant_id": tenantId, "business_types": req.BusinessTypes,
	})
	return &dto.DeployResponse{JobId: jobId, Status: dto.DeploymentStatusQueued, Warnings: warnings}, nil
}

func (s *deploymentService) Execute(ctx context.Context, jobId uuid.UUID, tenantId string, req *dto.DeployRequest) (*dto.DeployResponse, error) {
	start := time.Now()
	tenant := toTenantProfile(tenantId, req.Tenant)

	cfg, warnings, stage, err := s.mergeAndValidate(ctx, req.BusinessTypes, tenant)
	if err != nil {
		s.fail(ctx, jobId, tenantId, stage, err)
		return nil, err
	}

	p, err := s.resolver.Resolve(ctx, tenantId, req.Provider, provider.StaticCredentials{AccessToken: req.AccessToken})
	if err != nil {
		s.fail(ctx, jobId, tenantId, stageProvider, err)
		return nil, err
	}

	result, err := s.reconciler.Reconcile(ctx, tenantId, p, cfg.Taxonomy)
	if result == nil {
		if err == nil {
			err = errors.New("reconciler returned no result")
		}
		s.fail(ctx, jobId, tenantId, stageReconcile, err)
		return nil, err
	}
	if err != nil {
		// The run happened; only its persistence failed. The ids are still
		// good for this document.
		s.logger.Error(logger.ModuleDeployment, "Reconciliation result not persisted", map[string]interface{}{
			"job_id": jobId, "tenant_id": tenantId, "error": err.Error(),
		})
	}
	s.eventPublisher.PublishTaxonomyReconciled(ctx, jobId.String(), result)

	template := req.Template
	if template == "" {
		template = s.defaultTemplate
	}
	out, err := s.injector.Inject(template, inject.BuildValues(cfg, tenant, result.NameToID))
	if err != nil {
		s.fail(ctx, jobId, tenantId, stageInject, err)
		return nil, err
	}

	status := dto.DeploymentStatusCompleted
	if !result.Complete() {
		status = dto.DeploymentStatusPartial
	}

	s.logger.Info(logger.ModuleDeployment, "Deployment finished", map[string]interface{}{
		"job_id":    jobId,
		"tenant_id": tenantId,
		"status":    status,
		"matched":   len(result.Matched),
		"created":   len(result.Created),
		"failed":    len(result.Failed),
		"unset":     len(out.Unset),
		"took_ms":   time.Since(start).Milliseconds(),
	})

	return &dto.DeployResponse{
		JobId:          jobId,
		Status:         status,
		Reconciliation: result,
		Document:       out.Document,
		Unset:          out.Unset,
		Warnings:       warnings,
	}, nil
}

func (s *deploymentService) fail(ctx context.Context, jobId uuid.UUID, tenantId, stage string, err error) {
	level := s.logger.Error
	if errors.Is(err, reconcile.ErrLockNotAcquired) {
		level = s.logger.Warn
	}
	level(logger.ModuleDeployment, "Deployment aborted", map[string]interface{}{
		"job_id": jobId, "tenant_id": tenantId, "stage": stage, "error": err.Error(),
	})
	s.eventPublisher.PublishDeploymentFailed(ctx, jobId.String(), tenantId, stage, err)
}

func (s *deploymentService) GetLabelMap(ctx context.Context, tenantId string) (*dto.LabelMapResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).LabelMapRepository()

	labels, err := repo.FindByTenant(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	runs, err := repo.FindRuns(ctx, tenantId, recentRunsLimit)
	if err != nil {
		return nil, err
	}

	res := &dto.LabelMapResponse{
		TenantId: tenantId,
		Labels:   make(map[string]map[string]string),
		Runs:     make([]dto.RunSummaryResponse, 0, len(runs)),
	}
	for _, l := range labels {
		byPath := res.Labels[l.Provider]
		if byPath == nil {
			byPath = make(map[string]string)
			res.Labels[l.Provider] = byPath
		}
		byPath[l.Path] = l.RemoteId
	}
	for _, r := range runs {
		res.Runs = append(res.Runs, dto.RunSummaryResponse{
			Id:           r.Id,
			Provider:     r.Provider,
			MatchedCount: r.MatchedCount,
			CreatedCount: r.CreatedCount,
			Failed:       r.Failed,
			Interrupted:  r.Interrupted,
			StartedAt:    r.StartedAt,
			FinishedAt:   r.FinishedAt,
		})
	}
	return res, nil
}
