package main

import (
	"fmt"

	"email-onboarding-be/internal/bootstrap"
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/internal/repository/memory"
	"email-onboarding-be/internal/repository/unitofwork"
	"email-onboarding-be/internal/service"
	"email-onboarding-be/pkg/database"
	deployEvents "email-onboarding-be/pkg/deployment/events"
	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/merge"
	pktNats "email-onboarding-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// cliServices is the deployment pipeline without the HTTP layer. Logs go
// to the log file only so the terminal shows just the report.
type cliServices struct {
	deployments service.IDeploymentService
	closers     []func()
}

func (s *cliServices) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func newCLIServices(templatePath string) (*cliServices, error) {
	log := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	s := &cliServices{closers: []func(){func() { _ = log.Sync() }}}

	var uowFactory unitofwork.RepositoryFactory = memory.NewRepositoryFactory()
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, true)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	schemas, err := bootstrap.NewSchemaRepository(cfg, log)
	if err != nil {
		return nil, err
	}
	if templatePath != "" {
		cfg.App.TemplatePath = templatePath
	}
	template, err := bootstrap.LoadTemplate(cfg)
	if err != nil {
		return nil, fmt.Errorf("load template: %w", err)
	}

	rdb := bootstrap.NewRedisClient(cfg)
	if rdb != nil {
		s.closers = append(s.closers, func() { _ = rdb.Close() })
	}

	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		if p, err := pktNats.NewPublisher(cfg.App.NatsURL); err == nil {
			natsPub = p
			s.closers = append(s.closers, p.Close)
		} else {
			log.Warn(logger.ModuleEvents, "NATS unavailable, events disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	s.closers = append(s.closers, func() { _ = pubSub.Close() })

	s.deployments = service.NewDeploymentService(
		schemas,
		merge.NewEngine(schemas, bootstrap.MergeOptions(cfg), log),
		bootstrap.NewReconciler(cfg, service.NewLabelMapStore(uowFactory), bootstrap.NewLocker(cfg, rdb), log),
		bootstrap.NewProviderResolver(cfg),
		inject.New(log, inject.WithJSONEscaping()),
		template,
		uowFactory,
		service.NewPublisherService(cfg.App.DeployTopic, pubSub),
		deployEvents.NewNatsPublisher(natsPub, log),
		log,
	)
	return s, nil
}
