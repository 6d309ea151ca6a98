package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"email-onboarding-be/internal/pkg/logger"
	"email-onboarding-be/pkg/merge"
	"email-onboarding-be/pkg/provider"
	"email-onboarding-be/pkg/schema"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	reasonParentNotReconciled = "parent not reconciled"
	reasonInterrupted         = "interrupted before this node was attempted"
)

// Reconciler diffs a merged taxonomy against a mailbox and creates what is
// missing. Runs are exclusive per tenant.
type Reconciler struct {
	cfg    Config
	store  Store
	locker Locker
	logger logger.ILogger
	tracer trace.Tracer
}

func New(cfg Config, store Store, locker Locker, log logger.ILogger) *Reconciler {
	return &Reconciler{
		cfg:    cfg.withDefaults(),
		store:  store,
		locker: locker,
		logger: log,
		tracer: otel.Tracer("email-onboarding-be/reconcile"),
	}
}

// nodeRun is the per-node state machine. Each instance is written by exactly
// one goroutine during its level and read only after the level completes.
type nodeRun struct {
	visit     merge.NodeVisit
	state     NodeState
	id        string
	reason    string
	retriable bool
}

func (n *nodeRun) fail(reason string, retriable bool) {
	n.state = StateFailed
	n.reason = reason
	n.retriable = retriable
}

// remoteIndex finds existing nodes by (parent id, canonical name).
type remoteIndex map[string]map[string]string

func buildIndex(snapshot []provider.RemoteNode) remoteIndex {
	idx := make(remoteIndex)
	for _, n := range snapshot {
		siblings := idx[n.ParentID]
		if siblings == nil {
			siblings = make(map[string]string)
			idx[n.ParentID] = siblings
		}
		key := schema.Canonical(n.Name)
		if _, taken := siblings[key]; !taken {
			siblings[key] = n.ID
		}
	}
	return idx
}

func (idx remoteIndex) find(parentID, name string) (string, bool) {
	id, ok := idx[parentID][schema.Canonical(name)]
	return id, ok
}

// Reconcile runs one reconciliation for tenantID. The returned result is
// always persisted, including after a timeout, so the next run resumes. A
// non-nil error with a nil result means nothing was attempted.
func (r *Reconciler) Reconcile(ctx context.Context, tenantID string, p provider.Provider, taxonomy *merge.MergedTaxonomy) (*Result, error) {
	release, err := r.locker.Acquire(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	defer release()

	runCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	levels := taxonomy.Levels()
	runCtx, span := r.tracer.Start(runCtx, "reconcile.Run", trace.WithAttributes(
		attribute.String("tenant.id", tenantID),
		attribute.String("provider.kind", p.Kind()),
		attribute.Int("taxonomy.nodes", taxonomy.Count()),
	))
	defer span.End()

	result := &Result{
		RunID:     uuid.NewString(),
		TenantID:  tenantID,
		Provider:  p.Kind(),
		Matched:   []Entry{},
		Created:   []Entry{},
		Failed:    []Failure{},
		StartedAt: time.Now().UTC(),
	}

	prior, err := r.store.LoadLabelMap(runCtx, tenantID, p.Kind())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load label map")
		return nil, fmt.Errorf("load label map for %s: %w", tenantID, err)
	}

	runs := make([][]*nodeRun, len(levels))
	byPath := make(map[string]*nodeRun)
	for i, level := range levels {
		for _, v := range level {
			n := &nodeRun{visit: v}
			runs[i] = append(runs[i], n)
			byPath[v.Path] = n
		}
	}

	snapshot, err := withRetry(runCtx, r.cfg, func() ([]provider.RemoteNode, error) {
		return p.ListNodes(runCtx)
	}, r.notify(tenantID, "list nodes"))
	if err != nil {
		r.logger.Error(logger.ModuleReconcile, "Remote snapshot unavailable", map[string]interface{}{
			"tenant_id": tenantID, "run_id": result.RunID, "error": err.Error(),
		})
		span.RecordError(err)
		for _, n := range byPath {
			n.fail("remote snapshot unavailable: "+err.Error(), retriable(err))
		}
	} else {
		index := buildIndex(snapshot)
		for _, level := range runs {
			r.reconcileLevel(runCtx, p, level, byPath, index)
		}
	}

	r.collect(result, runs, prior, runCtx.Err() != nil)
	result.FinishedAt = time.Now().UTC()

	span.SetAttributes(
		attribute.Int("reconcile.matched", len(result.Matched)),
		attribute.Int("reconcile.created", len(result.Created)),
		attribute.Int("reconcile.failed", len(result.Failed)),
		attribute.Bool("reconcile.interrupted", result.Interrupted),
	)
	if !result.Complete() {
		span.SetStatus(codes.Error, "some nodes failed")
	}

	// The caller's context may already be done; the partial result still
	// has to land so the next run skips what exists.
	if err := r.store.SaveRun(context.WithoutCancel(ctx), result); err != nil {
		r.logger.Error(logger.ModuleReconcile, "Failed to persist reconciliation", map[string]interface{}{
			"tenant_id": tenantID, "run_id": result.RunID, "error": err.Error(),
		})
		return result, fmt.Errorf("persist reconciliation %s: %w", result.RunID, err)
	}

	r.logger.Info(logger.ModuleReconcile, "Reconciliation finished", map[string]interface{}{
		"tenant_id":   tenantID,
		"run_id":      result.RunID,
		"provider":    result.Provider,
		"matched":     len(result.Matched),
		"created":     len(result.Created),
		"failed":      len(result.Failed),
		"interrupted": result.Interrupted,
		"took_ms":     result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
	})
	return result, nil
}

// reconcileLevel resolves one depth of the tree. Every parent id is known
// before this is called, so creates within the level can run in parallel.
func (r *Reconciler) reconcileLevel(ctx context.Context, p provider.Provider, level []*nodeRun, byPath map[string]*nodeRun, index remoteIndex) {
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)

	for _, n := range level {
		parentID := ""
		if n.visit.ParentPath != "" {
			parent := byPath[n.visit.ParentPath]
			if !parent.state.Resolved() {
				n.fail(reasonParentNotReconciled, parent.retriable)
				continue
			}
			parentID = parent.id
		}
		if ctx.Err() != nil {
			n.fail(reasonInterrupted, true)
			continue
		}

		n.state = StateChecked
		if id, ok := index.find(parentID, n.visit.Node.Name); ok {
			n.state = StateMatched
			n.id = id
			r.logger.Debug(logger.ModuleReconcile, "Node matched", map[string]interface{}{"path": n.visit.Path, "id": id})
			continue
		}

		g.Go(func() error {
			r.create(ctx, p, n, parentID)
			return nil
		})
	}
	_ = g.Wait()
}

func (r *Reconciler) create(ctx context.Context, p provider.Provider, n *nodeRun, parentID string) {
	if ctx.Err() != nil {
		n.fail(reasonInterrupted, true)
		return
	}
	ctx, span := r.tracer.Start(ctx, "reconcile.CreateNode", trace.WithAttributes(
		attribute.String("node.path", n.visit.Path),
	))
	defer span.End()

	node, err := withRetry(ctx, r.cfg, func() (provider.RemoteNode, error) {
		return p.CreateNode(ctx, n.visit.Node.Name, parentID, n.visit.Node.Color)
	}, r.notify(n.visit.Path, "create node"))
	if err != nil {
		var pe *provider.ProviderError
		reason := err.Error()
		if !errors.As(err, &pe) && ctx.Err() != nil {
			reason = reasonInterrupted
		}
		n.fail(reason, retriable(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		r.logger.Warn(logger.ModuleReconcile, "Node creation failed", map[string]interface{}{
			"path": n.visit.Path, "error": err.Error(), "retriable": n.retriable,
		})
		return
	}

	n.id = node.ID
	if node.Adopted {
		n.state = StateMatched
		r.logger.Debug(logger.ModuleReconcile, "Node adopted", map[string]interface{}{"path": n.visit.Path, "id": node.ID})
		return
	}
	n.state = StateCreated
	r.logger.Debug(logger.ModuleReconcile, "Node created", map[string]interface{}{"path": n.visit.Path, "id": node.ID})
}

func (r *Reconciler) notify(subject, op string) func(error, time.Duration) {
	return func(err error, wait time.Duration) {
		r.logger.Warn(logger.ModuleReconcile, "Retrying provider call", map[string]interface{}{
			"subject": subject, "op": op, "error": err.Error(), "wait_ms": wait.Milliseconds(),
		})
	}
}

// collect folds node outcomes into the result in level order and merges the
// resolved ids over the prior map.
func (r *Reconciler) collect(result *Result, runs [][]*nodeRun, prior map[string]string, interrupted bool) {
	ids := make(map[string]string, len(prior))
	for path, id := range prior {
		ids[path] = id
	}

	for _, level := range runs {
		for _, n := range level {
			entry := Entry{Path: n.visit.Path, Name: n.visit.Node.Name, ID: n.id}
			switch n.state {
			case StateMatched:
				result.Matched = append(result.Matched, entry)
				ids[n.visit.Path] = n.id
			case StateCreated:
				result.Created = append(result.Created, entry)
				ids[n.visit.Path] = n.id
			default:
				result.Failed = append(result.Failed, Failure{
					Path:      n.visit.Path,
					Name:      n.visit.Node.Name,
					Reason:    n.reason,
					Retriable: n.retriable,
				})
				if n.reason == reasonInterrupted {
					interrupted = true
				}
			}
		}
	}
	result.NameToID = ids
	result.Interrupted = interrupted && len(result.Failed) > 0
}
