package workflow

import "time"

// Entity carries the timestamps common to every persisted row.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity returns an Entity stamped with the current UTC time.
func NewEntity() Entity {
	now := time.Now().UTC()
	return Entity{CreatedAt: now, UpdatedAt: now}
}

// Storer is the minimal store interface for lifecycle operations. The full
// persistence contract (step.Store) lives in the step package to avoid
// import cycles; backends implement both.
type Storer interface {
	Migrate(ctx Context) error
	Ping(ctx Context) error
	Close() error
}
