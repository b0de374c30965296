package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/service/tree"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// legacyRootKey is the id of the implicit root in legacy node maps.
const legacyRootKey = "root"

// legacyData is the single-user JSON document of the first release. Trees
// are maps keyed by node id whose children arrays give the sibling order.
type legacyData struct {
	Metrics   map[string]legacyMetric   `json:"metrics"`
	Notes     map[string]legacyNote     `json:"notes"`
	Notebooks map[string]legacyNotebook `json:"notebooks"`
}

type legacyMetric struct {
	Attempts    int     `json:"attempts"`
	Errors      int     `json:"errors"`
	Proficiency int     `json:"proficiency"`
	Stage       int     `json:"stage"`
	NextReview  float64 `json:"next_review"`
}

type legacyNote struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Children []string `json:"children"`
}

type legacyNotebook struct {
	Name      string   `json:"name"`
	Tags      []string `json:"tags"`
	Questions []string `json:"questions"`
	Children  []string `json:"children"`
}

// LegacyResult counts what a legacy import created.
type LegacyResult struct {
	Progress        int `json:"progress"`
	SkippedProgress int `json:"skipped_progress"`
	Notes           int `json:"notes"`
	Notebooks       int `json:"notebooks"`
}

// ImportLegacy loads a legacy user-data file for userID. Progress for
// unknown questions and questions missing from the catalog are skipped.
// Everything is written in one unit of work.
func (im *Importer) ImportLegacy(ctx context.Context, userID uuid.UUID, path string) (*LegacyResult, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy data %s: %w", path, err)
	}
	var data legacyData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, domain.NewValidationError("file", "not valid legacy JSON: "+err.Error(), nil)
	}

	res := &LegacyResult{}
	err = im.tx.WithinTx(ctx, func(ctx context.Context, stores *store.Stores) error {
		*res = LegacyResult{}
		l := &legacyLoader{stores: stores, userID: userID, res: res, log: logger.FromContextOrDefault(ctx, im.logger)}
		if err := l.progress(ctx, data.Metrics); err != nil {
			return err
		}
		if err := l.notes(ctx, data.Notes); err != nil {
			return err
		}
		return l.notebooks(ctx, data.Notebooks)
	})
	if err != nil {
		return nil, fmt.Errorf("import legacy data %s: %w", path, err)
	}

	im.logger.Info("legacy data imported",
		slog.String("user_id", userID.String()),
		slog.Int("progress", res.Progress),
		slog.Int("notes", res.Notes),
		slog.Int("notebooks", res.Notebooks))
	return res, nil
}

type legacyLoader struct {
	stores *store.Stores
	userID uuid.UUID
	res    *LegacyResult
	log    *slog.Logger
}

func (l *legacyLoader) progress(ctx context.Context, metrics map[string]legacyMetric) error {
	ids := make([]string, 0, len(metrics))
	for id := range metrics {
		ids = append(ids, id)
	}
	known, err := l.stores.Catalog.GetMany(ctx, ids)
	if err != nil {
		return err
	}

	for _, id := range domain.NormalizeSet(ids) {
		m := metrics[id]
		if _, ok := known[id]; !ok {
			l.res.SkippedProgress++
			continue
		}
		sec, frac := math.Modf(m.NextReview)
		p := &domain.QuestionProgress{
			UserID:       l.userID,
			QuestionID:   id,
			Attempts:     m.Attempts,
			Errors:       m.Errors,
			Proficiency:  m.Proficiency,
			Stage:        m.Stage,
			NextReviewAt: time.Unix(int64(sec), int64(frac*1e9)).UTC(),
		}
		if err := p.Validate(); err != nil {
			l.log.Warn("skipping invalid legacy progress",
				slog.String("question_id", id),
				slog.String("error", err.Error()))
			l.res.SkippedProgress++
			continue
		}
		if err := l.stores.Progress.Upsert(ctx, p); err != nil {
			return err
		}
		l.res.Progress++
	}
	return nil
}

func (l *legacyLoader) notes(ctx context.Context, nodes map[string]legacyNote) error {
	root, ok := nodes[legacyRootKey]
	if !ok {
		return nil
	}
	t := tree.Notes.Bind(l.stores, nil)
	parent, err := t.Root(ctx, l.userID)
	if err != nil {
		return err
	}

	visited := map[string]bool{legacyRootKey: true}
	var create func(parentID uuid.UUID, ids []string, depth int) error
	create = func(parentID uuid.UUID, ids []string, depth int) error {
		if depth > tree.MaxDepth {
			return domain.ErrCycleViolation
		}
		for _, id := range ids {
			n, ok := nodes[id]
			if !ok || visited[id] {
				continue
			}
			visited[id] = true

			kind := domain.NoteKind(n.Type)
			if kind == "" || len(n.Children) > 0 {
				kind = domain.NoteKindFolder
			}
			node, err := t.Create(ctx, l.userID, n.Name, &parentID, domain.NotePayload{Kind: kind, Content: n.Content})
			if err != nil {
				return fmt.Errorf("note %s: %w", id, err)
			}
			l.res.Notes++
			if err := create(node.ID, n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return create(parent.ID, root.Children, 0)
}

func (l *legacyLoader) notebooks(ctx context.Context, nodes map[string]legacyNotebook) error {
	root, ok := nodes[legacyRootKey]
	if !ok {
		return nil
	}
	t := tree.Notebooks.Bind(l.stores, nil)
	parent, err := t.Root(ctx, l.userID)
	if err != nil {
		return err
	}

	var questionIDs []string
	for _, n := range nodes {
		questionIDs = append(questionIDs, n.Questions...)
	}
	known, err := l.stores.Catalog.GetMany(ctx, questionIDs)
	if err != nil {
		return err
	}

	visited := map[string]bool{legacyRootKey: true}
	var create func(parentID uuid.UUID, ids []string, depth int) error
	create = func(parentID uuid.UUID, ids []string, depth int) error {
		if depth > tree.MaxDepth {
			return domain.ErrCycleViolation
		}
		for _, id := range ids {
			n, ok := nodes[id]
			if !ok || visited[id] {
				continue
			}
			visited[id] = true

			payload := domain.NotebookPayload{Tags: n.Tags}
			for _, qid := range n.Questions {
				if _, ok := known[qid]; ok {
					payload.QuestionIDs = append(payload.QuestionIDs, qid)
				}
			}
			node, err := t.Create(ctx, l.userID, n.Name, &parentID, payload)
			if err != nil {
				return fmt.Errorf("notebook %s: %w", id, err)
			}
			l.res.Notebooks++
			if err := create(node.ID, n.Children, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	return create(parent.ID, root.Children, 0)
}
