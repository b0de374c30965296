package quiz

import (
	"context"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// DefaultVariantThreshold is the number of attempts after which a reviewed
// question is swapped for a related one.
const DefaultVariantThreshold = 3

// excerptLength bounds the excerpt of the original question in variant notes.
const excerptLength = 40

// VariantSelector replaces over-practiced questions with a related question
// the user has seen less.
type VariantSelector struct {
	// Threshold is exclusive: a question answered more than Threshold times
	// is replaced when a candidate exists.
	Threshold int
}

// Select returns a substitute for q, or nil when q should be served as is.
// Candidates share q's mode and at least one of q's catalog tags. The
// candidate with the fewest attempts by the user wins; ties go to the
// smaller catalog id.
func (v VariantSelector) Select(
	ctx context.Context,
	stores *store.Stores,
	userID uuid.UUID,
	q *domain.Question,
	attempts int,
) (*domain.Question, error) {
	if attempts <= v.Threshold || len(q.Tags) == 0 {
		return nil, nil
	}

	sameMode, err := stores.Catalog.ListByMode(ctx, q.Mode)
	if err != nil {
		return nil, err
	}
	var candidates []domain.Question
	for _, c := range sameMode {
		if c.ID != q.ID && domain.Intersects(c.Tags, q.Tags) {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.ID
	}
	seen, err := stores.Progress.GetMany(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	// Ties compare ids bytewise; store ordering depends on collation.
	best := 0
	for i := 1; i < len(candidates); i++ {
		ci, cb := seen[candidates[i].ID].Attempts, seen[candidates[best].ID].Attempts
		if ci < cb || (ci == cb && candidates[i].ID < candidates[best].ID) {
			best = i
		}
	}
	chosen := candidates[best]
	return &chosen, nil
}
