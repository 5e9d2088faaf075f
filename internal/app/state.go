package app

import (
	"time"

	"github.com/google/uuid"

	"ccr-registry-scraper/internal/checkpoint"
	"ccr-registry-scraper/internal/scraper"
)

// RunState is everything one run accumulates. It is owned by the pager loop
// and handed to the checkpoint writer as a snapshot.
type RunState struct {
	ID                  string
	Page                int
	Records             []scraper.Record
	ConsecutiveFailures int
	Started             time.Time
}

func NewRunState() *RunState {
	return &RunState{
		ID:      uuid.NewString(),
		Page:    1,
		Started: time.Now(),
	}
}

func (s *RunState) Snapshot() checkpoint.Snapshot {
	return checkpoint.Snapshot{
		RunID:   s.ID,
		Page:    s.Page,
		Started: s.Started,
		Records: s.Records,
	}
}
