package ports

import (
	"context"
	"encoding/json"
	"time"
)

// StoredRun is a completed dashboard analysis as persisted
type StoredRun struct {
	ID        string          `db:"id" json:"id"`
	Source    string          `db:"source" json:"source"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// RunRepository persists completed analysis runs. Persistence is optional:
// the core analyses never depend on it.
type RunRepository interface {
	Save(ctx context.Context, run StoredRun) error
	Get(ctx context.Context, id string) (StoredRun, error)
	List(ctx context.Context, limit int) ([]StoredRun, error)
}
