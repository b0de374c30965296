package quiz

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/notebook"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// candidate is a question picked before variant substitution.
type candidate struct {
	question *domain.Question
	tags     []string
	attempts int
	isDue    bool
}

func (s *serviceImpl) GetQuestion(ctx context.Context, userID uuid.UUID, req Request, now time.Time) (*ServedQuestion, error) {
	mode := domain.NormalizeMode(req.Mode)
	if req.QuestionID != "" {
		mode = ModeDirect
	}
	switch {
	case mode == "":
		return nil, domain.NewValidationError("mode", "is required when no question id is given", nil)
	case mode == ModeDirect && strings.TrimSpace(req.QuestionID) == "":
		return nil, domain.NewValidationError("question_id", "is required in direct mode", nil)
	}

	var served *ServedQuestion
	err := s.run(ctx, "get_question", func(ctx context.Context, stores *store.Stores) error {
		var (
			c   *candidate
			err error
		)
		switch mode {
		case ModeDirect:
			served, err = s.direct(ctx, stores, req.QuestionID)
			return err
		case ModeDaily:
			c, err = s.daily(ctx, stores, userID, now)
		case ModeMistake:
			c, err = s.mistake(ctx, stores, userID, req.NotebookID)
		default:
			served, err = s.fromCatalog(ctx, stores, mode)
			return err
		}
		if err != nil {
			return err
		}
		served, err = s.substitute(ctx, stores, userID, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("question served",
		slog.String("mode", mode),
		slog.String("question_id", served.Question.ID),
		slog.Bool("is_variant", served.IsVariant))
	return served, nil
}

func (s *serviceImpl) direct(ctx context.Context, stores *store.Stores, questionID string) (*ServedQuestion, error) {
	q, err := stores.Catalog.Get(ctx, strings.TrimSpace(questionID))
	if err != nil {
		return nil, err
	}
	return &ServedQuestion{Question: *q, Tags: domain.NormalizeSet(q.Tags)}, nil
}

func (s *serviceImpl) fromCatalog(ctx context.Context, stores *store.Stores, mode string) (*ServedQuestion, error) {
	questions, err := stores.Catalog.ListByMode(ctx, mode)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrEmptyCollection
	}
	q := questions[s.pick(len(questions))]
	return &ServedQuestion{Question: q, Tags: domain.NormalizeSet(q.Tags)}, nil
}

// daily picks from the due set, or from the low proficiency fallback.
func (s *serviceImpl) daily(ctx context.Context, stores *store.Stores, userID uuid.UUID, now time.Time) (*candidate, error) {
	pool, due, err := s.scheduler.Pool(ctx, stores.Progress, userID, now)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, domain.ErrEmptyCollection
	}
	p := pool[s.pick(len(pool))]

	q, err := stores.Catalog.Get(ctx, p.QuestionID)
	if err != nil {
		return nil, err
	}
	return &candidate{question: q, tags: domain.NormalizeSet(q.Tags), attempts: p.Attempts, isDue: due}, nil
}

// mistake picks any question filed under the notebook subtree.
func (s *serviceImpl) mistake(ctx context.Context, stores *store.Stores, userID uuid.UUID, notebookID *uuid.UUID) (*candidate, error) {
	if notebookID == nil {
		return nil, domain.NewValidationError("notebook_id", "is required in mistake mode", nil)
	}
	entries, err := notebook.Bind(stores, s.now).Collect(ctx, userID, *notebookID)
	if err != nil {
		return nil, err
	}

	questions, err := stores.Catalog.GetMany(ctx, notebook.IDs(entries))
	if err != nil {
		return nil, err
	}
	var known []notebook.Entry
	for _, e := range entries {
		if _, ok := questions[e.QuestionID]; ok {
			known = append(known, e)
		}
	}
	if len(known) == 0 {
		return nil, domain.ErrEmptyCollection
	}
	e := known[s.pick(len(known))]
	q := questions[e.QuestionID]

	attempts := 0
	p, err := stores.Progress.Get(ctx, userID, q.ID)
	switch {
	case err == nil:
		attempts = p.Attempts
	case !errors.Is(err, store.ErrNotFound):
		return nil, err
	}
	return &candidate{question: &q, tags: domain.UnionSets(q.Tags, e.Tags), attempts: attempts}, nil
}

// substitute swaps c for a variant when the selector finds one. The variant
// keeps the contextual tags of the original.
func (s *serviceImpl) substitute(ctx context.Context, stores *store.Stores, userID uuid.UUID, c *candidate) (*ServedQuestion, error) {
	variant, err := s.variants.Select(ctx, stores, userID, c.question, c.attempts)
	if err != nil {
		return nil, err
	}
	if variant == nil {
		return &ServedQuestion{Question: *c.question, Tags: c.tags, IsDue: c.isDue}, nil
	}
	return &ServedQuestion{
		Question:  *variant,
		Tags:      domain.UnionSets(variant.Tags, c.tags),
		IsDue:     c.isDue,
		IsVariant: true,
		VariantOf: c.question.ID,
		Note:      "variant of " + c.question.Excerpt(excerptLength),
	}, nil
}
