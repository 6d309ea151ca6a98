package reconcile

import (
	"context"
	"time"
)

// NodeState tracks one taxonomy node through a run.
type NodeState int

const (
	StateUnchecked NodeState = iota
	StateChecked
	StateMatched
	StateCreated
	StateFailed
)

func (s NodeState) String() string {
	switch s {
	case StateUnchecked:
		return "unchecked"
	case StateChecked:
		return "checked"
	case StateMatched:
		return "matched"
	case StateCreated:
		return "created"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Resolved reports whether the node ended the run with a remote id.
func (s NodeState) Resolved() bool {
	return s == StateMatched || s == StateCreated
}

// Entry is a node that ended the run with a remote id.
type Entry struct {
	Path string `json:"path"`
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Failure is a node that did not. Retriable suggests a later run may succeed.
type Failure struct {
	Path      string `json:"path"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
	Retriable bool   `json:"retriable"`
}

type Result struct {
	RunID       string            `json:"run_id"`
	TenantID    string            `json:"tenant_id"`
	Provider    string            `json:"provider"`
	Matched     []Entry           `json:"matched"`
	Created     []Entry           `json:"created"`
	Failed      []Failure         `json:"failed"`
	NameToID    map[string]string `json:"name_to_id"`
	Interrupted bool              `json:"interrupted"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
}

// Complete is true when every node resolved.
func (r *Result) Complete() bool {
	return len(r.Failed) == 0
}

// Store persists one path -> id map per tenant and provider kind. Ids are
// only meaningful inside the mailbox that issued them, so maps for different
// providers never mix. SaveRun must merge result.NameToID into the map for
// result.Provider and never drop existing keys.
type Store interface {
	LoadLabelMap(ctx context.Context, tenantID, providerKind string) (map[string]string, error)
	SaveRun(ctx context.Context, result *Result) error
}

type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Concurrency    int
	Timeout        time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    5,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     8 * time.Second,
		Concurrency:    2,
		Timeout:        2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = d.InitialBackoff
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	if c.Concurrency <= 0 {
		c.Concurrency = d.Concurrency
	}
	return c
}
