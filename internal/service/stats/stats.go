// Package stats computes read-only rollups over the notebook tree and the
// user's answer history. Nothing is cached; every call recomputes from the
// stores.
package stats

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/redact"
	"github.com/Chesten223/SoRight3/internal/service"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// DefaultTopTags is the number of most frequent tags reported by Aggregate.
const DefaultTopTags = 8

// streakWindow bounds how far back answer logs are read for the streak.
const streakWindow = 366 * 24 * time.Hour

// TagCount is one histogram bucket.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary is the rollup of a notebook subtree.
type Summary struct {
	NodeID         uuid.UUID      `json:"node_id"`
	Total          int            `json:"total"`
	AvgProficiency float64        `json:"avg_proficiency"`
	Errors         int            `json:"errors"`
	Tags           map[string]int `json:"tags"`
	TopTags        []TagCount     `json:"top_tags"`
}

// NotebookRef names a top-level notebook on the dashboard.
type NotebookRef struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Questions int       `json:"questions"`
}

// Dashboard summarises a user's overall progress.
type Dashboard struct {
	QuestionsDone int           `json:"questions_done"`
	MasteryRate   int           `json:"mastery_rate"`
	DueCount      int           `json:"due_count"`
	StreakDays    int           `json:"streak_days"`
	Notebooks     []NotebookRef `json:"notebooks"`
}

// Service exposes the rollups.
type Service interface {
	// Aggregate rolls up the questions filed in nodeID and its descendants.
	Aggregate(ctx context.Context, userID, nodeID uuid.UUID) (*Summary, error)

	// Dashboard summarises the user's progress at now.
	Dashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*Dashboard, error)
}

type serviceImpl struct {
	tx     store.TxManager
	topK   int
	logger *slog.Logger
}

var _ Service = (*serviceImpl)(nil)

// NewService creates a stats Service reporting topK tags; a non-positive
// topK uses DefaultTopTags.
func NewService(tx store.TxManager, topK int, logger *slog.Logger) (Service, error) {
	if tx == nil {
		return nil, domain.NewValidationError("tx", "cannot be nil", domain.ErrValidation)
	}
	if topK <= 0 {
		topK = DefaultTopTags
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &serviceImpl{
		tx:     tx,
		topK:   topK,
		logger: logger.With(slog.String("component", "stats_service")),
	}, nil
}

func (s *serviceImpl) run(ctx context.Context, op string, fn store.UnitFn) error {
	err := s.tx.WithinTx(ctx, fn)
	if err != nil && !service.IsTaxonomy(err) {
		logger.FromContextOrDefault(ctx, s.logger).Error("stats operation failed",
			slog.String("operation", op),
			slog.String("error", redact.Error(err)))
	}
	return service.Wrap("stats", op, err)
}

func (s *serviceImpl) Aggregate(ctx context.Context, userID, nodeID uuid.UUID) (*Summary, error) {
	var summary *Summary
	err := s.run(ctx, "aggregate", func(ctx context.Context, stores *store.Stores) error {
		entries, err := notebook.Bind(stores, nil).Collect(ctx, userID, nodeID)
		if err != nil {
			return err
		}
		summary, err = aggregate(ctx, stores, userID, entries, s.topK)
		if err != nil {
			return err
		}
		summary.NodeID = nodeID
		return nil
	})
	return summary, err
}

// aggregate sums the entries. Tags of each question are its catalog tags
// unioned with the notebook tags it inherits, so a tag counts once per
// question.
func aggregate(ctx context.Context, stores *store.Stores, userID uuid.UUID, entries []notebook.Entry, topK int) (*Summary, error) {
	ids := notebook.IDs(entries)
	questions, err := stores.Catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	progress, err := stores.Progress.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Tags: make(map[string]int)}
	proficiency := 0
	for _, e := range entries {
		summary.Total++
		p := progress[e.QuestionID]
		proficiency += p.Proficiency
		summary.Errors += p.Errors
		for _, tag := range domain.UnionSets(questions[e.QuestionID].Tags, e.Tags) {
			summary.Tags[tag]++
		}
	}
	if summary.Total > 0 {
		summary.AvgProficiency = float64(proficiency) / float64(summary.Total)
	}
	summary.TopTags = TopTags(summary.Tags, topK)
	return summary, nil
}

// TopTags returns the k most frequent tags ordered by count descending, then
// tag ascending.
func TopTags(histogram map[string]int, k int) []TagCount {
	out := make([]TagCount, 0, len(histogram))
	for tag, n := range histogram {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Tag, b.Tag)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func (s *serviceImpl) Dashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*Dashboard, error) {
	var dash *Dashboard
	err := s.run(ctx, "dashboard", func(ctx context.Context, stores *store.Stores) error {
		records, err := stores.Progress.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		dash = &Dashboard{QuestionsDone: len(records), Notebooks: []NotebookRef{}}
		total := 0
		for _, p := range records {
			total += p.Proficiency
			if p.IsDue(now) {
				dash.DueCount++
			}
		}
		if len(records) > 0 {
			dash.MasteryRate = total / len(records)
		}

		logs, err := stores.Sessions.ListLogsSince(ctx, userID, now.Add(-streakWindow))
		if err != nil {
			return err
		}
		days := make(map[string]bool, len(logs))
		for _, l := range logs {
			days[l.CreatedAt.UTC().Format(time.DateOnly)] = true
		}
		dash.StreakDays = calculateStreak(days, now.UTC())

		book := notebook.Bind(stores, nil)
		root, err := book.Tree().Root(ctx, userID)
		if err != nil {
			return err
		}
		top, err := book.Tree().Children(ctx, userID, root.ID)
		if err != nil {
			return err
		}
		for _, nb := range top {
			entries, err := book.Collect(ctx, userID, nb.ID)
			if err != nil {
				return err
			}
			dash.Notebooks = append(dash.Notebooks, NotebookRef{ID: nb.ID, Name: nb.Name, Questions: len(entries)})
		}
		return nil
	})
	return dash, err
}

// calculateStreak counts consecutive days with answers ending today or
// yesterday.
func calculateStreak(days map[string]bool, today time.Time) int {
	check := today
	if !days[check.Format(time.DateOnly)] {
		check = check.AddDate(0, 0, -1)
		if !days[check.Format(time.DateOnly)] {
			return 0
		}
	}

	streak := 0
	for days[check.Format(time.DateOnly)] {
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return streak
}
