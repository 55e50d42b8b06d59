package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/domsplit/pkg/graph"
)

// DefaultListLimit caps ListPlans when no limit is given.
const DefaultListLimit = 50

// Store persists the history of computed plans.
type Store interface {
	// SavePlan stores p. An empty ID is replaced by a new UUID and a zero
	// CreatedAt by the current time; both are written back to p.
	SavePlan(ctx context.Context, p *graph.Plan) error

	// GetPlan returns the plan with the given ID, or an error carrying
	// PLAN_NOT_FOUND.
	GetPlan(ctx context.Context, id string) (*graph.Plan, error)

	// ListPlans returns summaries, newest first.
	ListPlans(ctx context.Context, opts ListOptions) ([]Summary, error)

	// DeletePlan removes a plan. Deleting a missing plan is an error
	// carrying PLAN_NOT_FOUND.
	DeletePlan(ctx context.Context, id string) error

	Close(ctx context.Context) error
}

// ListOptions filters ListPlans.
type ListOptions struct {
	// Limit caps the number of results; zero selects DefaultListLimit.
	Limit int
	// Source, when set, keeps only plans computed from that source.
	Source string
}

func (o ListOptions) limit() int {
	if o.Limit <= 0 {
		return DefaultListLimit
	}
	return o.Limit
}

// Summary is the list view of a stored plan.
type Summary struct {
	ID        string    `json:"id" bson:"_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	Source    string    `json:"source,omitempty" bson:"source,omitempty"`
	Bundles   int       `json:"bundles" bson:"bundles"`
	Assets    int       `json:"assets" bson:"assets"`
}

// Summarize builds the list view of p.
func Summarize(p *graph.Plan) Summary {
	return Summary{
		ID:        p.ID,
		CreatedAt: p.CreatedAt,
		Source:    p.Source,
		Bundles:   len(p.Bundles),
		Assets:    p.Stats.Assets,
	}
}

// stamp fills the ID and creation time of a plan about to be saved.
func stamp(p *graph.Plan) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
}
