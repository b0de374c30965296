// Package memory is an in-process implementation of every persistence port.
// It backs the "memory" database driver and the service tests. A unit of
// work runs against a private copy of the data which replaces the shared
// state only when the unit succeeds.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// DriverName is the configured database driver served by this package.
const DriverName = "memory"

type progressKey struct {
	userID     uuid.UUID
	questionID string
}

type nodeRow struct {
	id         uuid.UUID
	userID     uuid.UUID
	kind       domain.TreeKind
	parentID   *uuid.UUID
	name       string
	orderIndex int
	payload    []byte
	createdAt  time.Time
	updatedAt  time.Time
}

type state struct {
	questions map[string]domain.Question
	progress  map[progressKey]domain.QuestionProgress
	nodes     map[uuid.UUID]nodeRow
	sessions  map[uuid.UUID]domain.StudySession
	logs      []domain.AnswerLog
}

func newState() *state {
	return &state{
		questions: make(map[string]domain.Question),
		progress:  make(map[progressKey]domain.QuestionProgress),
		nodes:     make(map[uuid.UUID]nodeRow),
		sessions:  make(map[uuid.UUID]domain.StudySession),
	}
}

// clone copies the maps. Values hold no shared mutable data except slices,
// which are copied on every write and read.
func (s *state) clone() *state {
	return &state{
		questions: maps.Clone(s.questions),
		progress:  maps.Clone(s.progress),
		nodes:     maps.Clone(s.nodes),
		sessions:  maps.Clone(s.sessions),
		logs:      slices.Clone(s.logs),
	}
}

// access runs fn against a state. Pool-bound stores lock the shared state
// per call; transaction-bound stores use the private copy directly.
type access func(fn func(*state) error) error

// Store owns the shared state.
type Store struct {
	mu     sync.Mutex
	data   *state
	logger *slog.Logger
}

var _ store.TxManager = (*Store)(nil)

// New creates an empty Store.
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		data:   newState(),
		logger: logger.With(slog.String("component", "memory_store")),
	}
}

// Stores returns implementations that each lock the shared state per call.
func (s *Store) Stores() *store.Stores {
	return storesFor(func(fn func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.data)
	})
}

// WithinTx implements store.TxManager. Units of work are serialized.
func (s *Store) WithinTx(ctx context.Context, fn store.UnitFn) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	tx := storesFor(func(fn func(*state) error) error { return fn(work) })

	defer func() {
		if p := recover(); p != nil {
			log.Error("discarded unit of work after panic", slog.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		log.Debug("discarded unit of work due to error", slog.String("error", err.Error()))
		return err
	}
	s.data = work
	return nil
}

func storesFor(with access) *store.Stores {
	return &store.Stores{
		Catalog:   &catalogStore{with: with},
		Progress:  &progressStore{with: with},
		Notes:     &nodeStore[domain.NotePayload]{with: with, kind: domain.TreeKindNotes},
		Notebooks: &nodeStore[domain.NotebookPayload]{with: with, kind: domain.TreeKindNotebooks},
		Sessions:  &sessionStore{with: with},
	}
}

type nodeStore[P any] struct {
	with access
	kind domain.TreeKind
}

var (
	_ store.NodeStore[domain.NotePayload]     = (*nodeStore[domain.NotePayload])(nil)
	_ store.NodeStore[domain.NotebookPayload] = (*nodeStore[domain.NotebookPayload])(nil)
	_ store.CatalogStore                      = (*catalogStore)(nil)
	_ store.ProgressStore                     = (*progressStore)(nil)
	_ store.SessionStore                      = (*sessionStore)(nil)
)

func (s *nodeStore[P]) Get(_ context.Context, id uuid.UUID) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.with(func(st *state) error {
		row, ok := st.nodes[id]
		if !ok || row.kind != s.kind {
			return store.ErrNodeNotFound
		}
		var err error
		node, err = decodeNode[P](row)
		return err
	})
	return node, err
}

func (s *nodeStore[P]) Root(_ context.Context, userID uuid.UUID) (*domain.TreeNode[P], error) {
	var node *domain.TreeNode[P]
	err := s.with(func(st *state) error {
		for _, row := range st.nodes {
			if row.userID == userID && row.kind == s.kind && row.parentID == nil {
				var err error
				node, err = decodeNode[P](row)
				return err
			}
		}
		return store.ErrNodeNotFound
	})
	return node, err
}

func (s *nodeStore[P]) Children(_ context.Context, parentID uuid.UUID) ([]*domain.TreeNode[P], error) {
	return s.collect(func(row nodeRow) bool {
		return row.parentID != nil && *row.parentID == parentID
	})
}

func (s *nodeStore[P]) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.TreeNode[P], error) {
	return s.collect(func(row nodeRow) bool { return row.userID == userID })
}

func (s *nodeStore[P]) Create(_ context.Context, node *domain.TreeNode[P]) error {
	row, err := encodeNode(s.kind, node)
	if err != nil {
		return err
	}
	return s.with(func(st *state) error {
		if _, exists := st.nodes[row.id]; exists {
			return store.NewStoreError("tree node", "create", "id already exists", store.ErrDuplicate)
		}
		if row.parentID == nil {
			for _, other := range st.nodes {
				if other.userID == row.userID && other.kind == row.kind && other.parentID == nil {
					return store.NewStoreError("tree node", "create", "root already exists", store.ErrDuplicate)
				}
			}
		} else if _, ok := st.nodes[*row.parentID]; !ok {
			return store.NewStoreError("tree node", "create", "parent does not exist", store.ErrInvalidEntity)
		}
		st.nodes[row.id] = row
		return nil
	})
}

func (s *nodeStore[P]) Update(_ context.Context, node *domain.TreeNode[P]) error {
	row, err := encodeNode(s.kind, node)
	if err != nil {
		return err
	}
	return s.with(func(st *state) error {
		existing, ok := st.nodes[row.id]
		if !ok || existing.kind != s.kind {
			return store.ErrNodeNotFound
		}
		if row.parentID != nil {
			if _, ok := st.nodes[*row.parentID]; !ok {
				return store.NewStoreError("tree node", "update", "parent does not exist", store.ErrInvalidEntity)
			}
		}
		existing.parentID = row.parentID
		existing.name = row.name
		existing.orderIndex = row.orderIndex
		existing.payload = row.payload
		existing.updatedAt = row.updatedAt
		st.nodes[row.id] = existing
		return nil
	})
}

// LockTree is a no-op: units of work already run one at a time.
func (s *nodeStore[P]) LockTree(context.Context, uuid.UUID) error { return nil }

func (s *nodeStore[P]) Delete(_ context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.with(func(st *state) error {
		removed := 0
		for _, id := range ids {
			if row, ok := st.nodes[id]; ok && row.kind == s.kind {
				delete(st.nodes, id)
				removed++
			}
		}
		if removed == 0 {
			return store.ErrNodeNotFound
		}
		return nil
	})
}

func (s *nodeStore[P]) collect(match func(nodeRow) bool) ([]*domain.TreeNode[P], error) {
	var rows []nodeRow
	err := s.with(func(st *state) error {
		for _, row := range st.nodes {
			if row.kind == s.kind && match(row) {
				rows = append(rows, row)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(rows, func(a, b nodeRow) int {
		if a.orderIndex != b.orderIndex {
			return a.orderIndex - b.orderIndex
		}
		if c := a.createdAt.Compare(b.createdAt); c != 0 {
			return c
		}
		return slices.Compare(a.id[:], b.id[:])
	})

	nodes := make([]*domain.TreeNode[P], 0, len(rows))
	for _, row := range rows {
		node, err := decodeNode[P](row)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func encodeNode[P any](kind domain.TreeKind, node *domain.TreeNode[P]) (nodeRow, error) {
	payload, err := json.Marshal(node.Payload)
	if err != nil {
		return nodeRow{}, fmt.Errorf("failed to encode node payload: %w", err)
	}
	row := nodeRow{
		id:         node.ID,
		userID:     node.UserID,
		kind:       kind,
		name:       node.Name,
		orderIndex: node.OrderIndex,
		payload:    payload,
		createdAt:  node.CreatedAt,
		updatedAt:  node.UpdatedAt,
	}
	if node.ParentID != nil {
		parent := *node.ParentID
		row.parentID = &parent
	}
	return row, nil
}

func decodeNode[P any](row nodeRow) (*domain.TreeNode[P], error) {
	node := &domain.TreeNode[P]{
		ID:         row.id,
		UserID:     row.userID,
		Kind:       row.kind,
		Name:       row.name,
		OrderIndex: row.orderIndex,
		CreatedAt:  row.createdAt,
		UpdatedAt:  row.updatedAt,
	}
	if row.parentID != nil {
		parent := *row.parentID
		node.ParentID = &parent
	}
	if err := json.Unmarshal(row.payload, &node.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload of node %s: %w", row.id, err)
	}
	return node, nil
}
