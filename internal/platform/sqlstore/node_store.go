package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/platform/logger"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

const nodeColumns = `id, user_id, kind, parent_id, name, order_index, payload, created_at, updated_at`

// NodeStore implements store.NodeStore for one tree kind. Both kinds share
// the tree_nodes table; the payload is stored as a JSON document.
type NodeStore[P any] struct {
	db      store.DBTX
	dialect Dialect
	kind    domain.TreeKind
	logger  *slog.Logger
}

var (
	_ store.NodeStore[domain.NotePayload]     = (*NodeStore[domain.NotePayload])(nil)
	_ store.NodeStore[domain.NotebookPayload] = (*NodeStore[domain.NotebookPayload])(nil)
)

// NewNodeStore creates a node store for kind.
func NewNodeStore[P any](db store.DBTX, dialect Dialect, kind domain.TreeKind, logger *slog.Logger) *NodeStore[P] {
	if db == nil {
		panic("db cannot be nil")
	}
	if !kind.Valid() {
		panic(fmt.Sprintf("unknown tree kind %q", kind))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeStore[P]{
		db:      db,
		dialect: dialect,
		kind:    kind,
		logger:  logger.With(slog.String("component", "node_store"), slog.String("kind", string(kind))),
	}
}

// WithTx returns a store bound to tx.
func (s *NodeStore[P]) WithTx(tx *sql.Tx) *NodeStore[P] {
	return &NodeStore[P]{db: tx, dialect: s.dialect, kind: s.kind, logger: s.logger}
}

// Get implements store.NodeStore.
func (s *NodeStore[P]) Get(ctx context.Context, id uuid.UUID) (*domain.TreeNode[P], error) {
	query := s.dialect.Rebind(`SELECT ` + nodeColumns + ` FROM tree_nodes WHERE id = ? AND kind = ?`)
	node, err := s.scanOne(s.db.QueryRowContext(ctx, query, id, string(s.kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNodeNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get node",
			slog.String("error", err.Error()),
			slog.String("node_id", id.String()))
		return nil, s.dialect.MapError(err)
	}
	return node, nil
}

// Root implements store.NodeStore.
func (s *NodeStore[P]) Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error) {
	query := s.dialect.Rebind(`SELECT ` + nodeColumns +
		` FROM tree_nodes WHERE user_id = ? AND kind = ? AND parent_id IS NULL`)
	node, err := s.scanOne(s.db.QueryRowContext(ctx, query, userID, string(s.kind)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNodeNotFound
		}
		return nil, s.dialect.MapError(err)
	}
	return node, nil
}

// LockTree implements store.NodeStore.
func (s *NodeStore[P]) LockTree(ctx context.Context, userID uuid.UUID) error {
	query := s.dialect.Rebind(`SELECT id FROM tree_nodes WHERE user_id = ? AND kind = ? AND parent_id IS NULL` +
		s.dialect.ForUpdate())
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, userID, string(s.kind)).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.dialect.MapError(err)
	}
	return nil
}

// Children implements store.NodeStore.
func (s *NodeStore[P]) Children(ctx context.Context, parentID uuid.UUID) ([]*domain.TreeNode[P], error) {
	query := s.dialect.Rebind(`SELECT ` + nodeColumns +
		` FROM tree_nodes WHERE parent_id = ? AND kind = ? ORDER BY order_index, created_at, id`)
	return s.queryMany(ctx, query, parentID, string(s.kind))
}

// ListByUser implements store.NodeStore.
func (s *NodeStore[P]) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TreeNode[P], error) {
	query := s.dialect.Rebind(`SELECT ` + nodeColumns + ` FROM tree_nodes WHERE user_id = ? AND kind = ?`)
	return s.queryMany(ctx, query, userID, string(s.kind))
}

// Create implements store.NodeStore.
func (s *NodeStore[P]) Create(ctx context.Context, node *domain.TreeNode[P]) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	payload, err := json.Marshal(node.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode node payload: %w", err)
	}

	query := s.dialect.Rebind(`
		INSERT INTO tree_nodes (` + nodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err = s.db.ExecContext(ctx, query,
		node.ID,
		node.UserID,
		string(s.kind),
		node.ParentID,
		node.Name,
		node.OrderIndex,
		string(payload),
		toMillis(node.CreatedAt),
		toMillis(node.UpdatedAt),
	)
	if err != nil {
		log.Error("failed to create node",
			slog.String("error", err.Error()),
			slog.String("node_id", node.ID.String()))
		return store.NewStoreError("tree node", "create", "insert failed", s.dialect.MapError(err))
	}

	log.Debug("node created",
		slog.String("node_id", node.ID.String()),
		slog.String("user_id", node.UserID.String()))
	return nil
}

// Update implements store.NodeStore.
func (s *NodeStore[P]) Update(ctx context.Context, node *domain.TreeNode[P]) error {
	payload, err := json.Marshal(node.Payload)
	if err != nil {
		return fmt.Errorf("failed to encode node payload: %w", err)
	}

	query := s.dialect.Rebind(`
		UPDATE tree_nodes
		SET parent_id = ?, name = ?, order_index = ?, payload = ?, updated_at = ?
		WHERE id = ? AND kind = ?`)
	result, err := s.db.ExecContext(ctx, query,
		node.ParentID,
		node.Name,
		node.OrderIndex,
		string(payload),
		toMillis(node.UpdatedAt),
		node.ID,
		string(s.kind),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update node",
			slog.String("error", err.Error()),
			slog.String("node_id", node.ID.String()))
		return store.NewStoreError("tree node", "update", "update failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrNodeNotFound)
}

// Delete implements store.NodeStore.
func (s *NodeStore[P]) Delete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, 0, len(ids)+1)
	args = append(args, string(s.kind))
	for _, id := range ids {
		args = append(args, id)
	}

	query := s.dialect.Rebind(`DELETE FROM tree_nodes WHERE kind = ? AND id IN (` + placeholders(len(ids)) + `)`)
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to delete nodes",
			slog.String("error", err.Error()),
			slog.Int("count", len(ids)))
		return store.NewStoreError("tree node", "delete", "delete failed", s.dialect.MapError(err))
	}
	return checkRowsAffected(result, store.ErrNodeNotFound)
}

func (s *NodeStore[P]) queryMany(ctx context.Context, query string, args ...any) ([]*domain.TreeNode[P], error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.dialect.MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var nodes []*domain.TreeNode[P]
	for rows.Next() {
		node, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	if err := rows.Err(); err != nil {
		return nil, s.dialect.MapError(err)
	}
	return nodes, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *NodeStore[P]) scanOne(row rowScanner) (*domain.TreeNode[P], error) {
	var (
		node               domain.TreeNode[P]
		kind               string
		parent             uuid.NullUUID
		payload            string
		created, updatedAt int64
	)
	if err := row.Scan(
		&node.ID,
		&node.UserID,
		&kind,
		&parent,
		&node.Name,
		&node.OrderIndex,
		&payload,
		&created,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(payload), &node.Payload); err != nil {
		return nil, fmt.Errorf("failed to decode payload of node %s: %w", node.ID, err)
	}
	node.Kind = domain.TreeKind(kind)
	if parent.Valid {
		id := parent.UUID
		node.ParentID = &id
	}
	node.CreatedAt = fromMillis(created)
	node.UpdatedAt = fromMillis(updatedAt)
	return &node, nil
}
