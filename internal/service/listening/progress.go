// internal/service/listening/progress.go

package listening

import (
	"sync"
	"time"

	"sentiscan/internal/domain/mention"
)

// Tier names a failure isolation boundary of the collector
type Tier string

const (
	TierReplies Tier = "replies"
	TierItem    Tier = "item"
	TierChannel Tier = "channel"
	TierTerm    Tier = "term"
)

// ProgressSnapshot is a point-in-time copy of a run's progress
type ProgressSnapshot struct {
	RunID          string       `json:"run_id"`
	StartedAt      time.Time    `json:"started_at"`
	FinishedAt     *time.Time   `json:"finished_at,omitempty"`
	CurrentTerm    string       `json:"current_term,omitempty"`
	CurrentChannel string       `json:"current_channel,omitempty"`
	ItemsSeen      int          `json:"items_seen"`
	Duplicates     int          `json:"duplicates"`
	Rejected       int          `json:"rejected"`
	Posts          int          `json:"posts"`
	Comments       int          `json:"comments"`
	Failures       map[Tier]int `json:"failures"`
}

// Progress tracks a running collection for readers on other goroutines
type Progress struct {
	mu      sync.RWMutex
	state   ProgressSnapshot
	records []mention.Record
}

// NewProgress creates a tracker for the given run
func NewProgress(runID string) *Progress {
	return &Progress{
		state: ProgressSnapshot{
			RunID:     runID,
			StartedAt: time.Now().UTC(),
			Failures:  make(map[Tier]int),
		},
	}
}

func (p *Progress) update(fn func(s *ProgressSnapshot)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
}

func (p *Progress) termStarted(term string) {
	p.update(func(s *ProgressSnapshot) {
		s.CurrentTerm = term
		s.CurrentChannel = ""
	})
}

func (p *Progress) channelStarted(channel string) {
	p.update(func(s *ProgressSnapshot) { s.CurrentChannel = channel })
}

func (p *Progress) itemSeen(duplicate bool) {
	p.update(func(s *ProgressSnapshot) {
		if duplicate {
			s.Duplicates++
			return
		}
		s.ItemsSeen++
	})
}

func (p *Progress) rejected() {
	p.update(func(s *ProgressSnapshot) { s.Rejected++ })
}

func (p *Progress) failed(tier Tier) {
	p.update(func(s *ProgressSnapshot) { s.Failures[tier]++ })
}

func (p *Progress) recorded(r mention.Record) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records = append(p.records, r)
	if r.Kind == mention.KindPost {
		p.state.Posts++
	} else {
		p.state.Comments++
	}
}

func (p *Progress) finished() {
	p.update(func(s *ProgressSnapshot) {
		now := time.Now().UTC()
		s.FinishedAt = &now
		s.CurrentTerm = ""
		s.CurrentChannel = ""
	})
}

// Snapshot returns a copy of the current progress
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.state
	s.Failures = make(map[Tier]int, len(p.state.Failures))
	for k, v := range p.state.Failures {
		s.Failures[k] = v
	}
	return s
}

// Records returns up to limit of the most recently collected records, newest
// last. A non-positive limit returns all of them.
func (p *Progress) Records(limit int) []mention.Record {
	p.mu.RLock()
	defer p.mu.RUnlock()

	start := 0
	if limit > 0 && len(p.records) > limit {
		start = len(p.records) - limit
	}
	out := make([]mention.Record, len(p.records)-start)
	copy(out, p.records[start:])
	return out
}
