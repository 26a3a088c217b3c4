package tool

import (
	"context"
	"time"

	"github.com/subthread/companion/automation"
	"github.com/subthread/companion/core"
	"github.com/subthread/companion/directory"
	"github.com/subthread/companion/logging"
	"github.com/subthread/companion/room"
)

// Default dispatch budgets. The search budget is generous because the
// search partner routinely takes tens of seconds on broad queries.
const (
	DefaultRPCTimeout    = 10 * time.Second
	DefaultSearchTimeout = 25 * time.Second
)

// Searcher queries the web search partner and returns the raw JSON result.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Recommender looks up movie and series recommendations in the media
// catalog partner.
type Recommender interface {
	Recommend(ctx context.Context, query, mediaType string) (string, error)
}

// Scheduler is the slice of the automation client the scheduling tools use.
type Scheduler interface {
	CreateScheduled(ctx context.Context, spec automation.Spec) (*automation.Workflow, error)
	ListOwned(ctx context.Context, ownerID string) ([]automation.Workflow, error)
	Delete(ctx context.Context, ownerID, workflowID string) error
}

// WellbeingReporter records mood check-ins in the directory.
type WellbeingReporter interface {
	ReportWellbeing(ctx context.Context, entry directory.WellbeingEntry) error
}

// Deps carries the per-call collaborators shared by the concrete tools.
// Caller is immutable once the connection is resolved.
type Deps struct {
	Room      room.Client
	Scheduler Scheduler
	Searcher  Searcher
	// Catalog is optional; a nil catalog sends recommendations straight
	// to the web-search fallback.
	Catalog   Recommender
	Wellbeing WellbeingReporter
	Caller    *core.Caller

	RPCTimeout    time.Duration
	SearchTimeout time.Duration
	Logger        logging.Logger
}

func (d *Deps) rpcTimeout() time.Duration {
	if d.RPCTimeout > 0 {
		return d.RPCTimeout
	}
	return DefaultRPCTimeout
}

func (d *Deps) searchTimeout() time.Duration {
	if d.SearchTimeout > 0 {
		return d.SearchTimeout
	}
	return DefaultSearchTimeout
}

func (d *Deps) logger() logging.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return logging.NoOpLogger{}
}

// performRPC resolves the remote participant and invokes a device method
// under the RPC budget.
func (d *Deps) performRPC(ctx context.Context, method, payload string, timeout time.Duration) (string, error) {
	identity, err := d.Room.RemoteParticipant()
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Room.PerformRPC(ctx, identity, method, payload)
}
