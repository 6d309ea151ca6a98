package bootstrap

import (
	"fmt"
	"os"

	"email-onboarding-be/internal/config"
	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/inject"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/provider/factory"
	"email-onboarding-be/pkg/provider/gmail"
	"email-onboarding-be/pkg/provider/outlook"
	"email-onboarding-be/pkg/reconcile"
	"email-onboarding-be/pkg/schema"

	"github.com/redis/go-redis/v9"
)

// The constructors below are shared by the REST server and the CLI.

// NewSchemaRepository serves the embedded corpus, shadowed by SCHEMA_DIR
// when it is set.
func NewSchemaRepository(cfg *config.Config, log logger.ILogger) (*schema.Repository, error) {
	var source schema.Source = schema.NewEmbeddedSource()
	if dir := cfg.App.SchemaDir; dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("SCHEMA_DIR %s is not a directory", dir)
		}
		source = schema.LayeredSource{schema.NewDirSource(dir), source}
	}
	return schema.NewRepository(source, log), nil
}

func LoadTemplate(cfg *config.Config) (string, error) {
	if cfg.App.TemplatePath == "" {
		return inject.DefaultTemplate, nil
	}
	data, err := os.ReadFile(cfg.App.TemplatePath)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func MergeOptions(cfg *config.Config) merge.Options {
	return merge.Options{
		MaxToneDescriptors:  cfg.Merge.MaxToneDescriptors,
		MaxOverrideExamples: cfg.Merge.MaxOverrideExamples,
	}
}

// NewLocker uses Redis when a client is available so that runs are
// exclusive across replicas.
func NewLocker(cfg *config.Config, rdb *redis.Client) reconcile.Locker {
	if rdb == nil {
		return reconcile.NewLocalLocker()
	}
	return reconcile.NewRedisLocker(rdb, cfg.Reconcile.LockTTL)
}

func NewReconciler(cfg *config.Config, store reconcile.Store, locker reconcile.Locker, log logger.ILogger) *reconcile.Reconciler {
	return reconcile.New(reconcile.Config{
		MaxAttempts:    cfg.Reconcile.MaxAttempts,
		InitialBackoff: cfg.Reconcile.InitialBackoff,
		MaxBackoff:     cfg.Reconcile.MaxBackoff,
		Concurrency:    cfg.Reconcile.Concurrency,
		Timeout:        cfg.Reconcile.Timeout,
	}, store, locker, log)
}

func NewProviderResolver(cfg *config.Config) *factory.Resolver {
	return &factory.Resolver{
		DefaultKind: cfg.Provider.DefaultKind,
		BaseURLs: map[string]string{
			gmail.Kind:   cfg.Provider.GmailBaseURL,
			outlook.Kind: cfg.Provider.GraphBaseURL,
		},
	}
}
