package store

import (
	"context"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/google/uuid"
)

// NodeStore persists the nodes of one tree kind.
type NodeStore[P any] interface {
	// Get returns the node with id. ChildIDs is left empty.
	// Returns ErrNodeNotFound if the node does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.TreeNode[P], error)

	// Root returns the user's root node.
	// Returns ErrNodeNotFound if the root has not been created yet.
	Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error)

	// Children returns the direct children of parentID ordered by
	// order index, then creation time, then id.
	Children(ctx context.Context, parentID uuid.UUID) ([]*domain.TreeNode[P], error)

	// ListByUser returns every node of the user's tree in no particular order.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TreeNode[P], error)

	// Create inserts a new node.
	Create(ctx context.Context, node *domain.TreeNode[P]) error

	// Update overwrites name, parent, order index, payload and updated time.
	// Returns ErrNodeNotFound if the node does not exist.
	Update(ctx context.Context, node *domain.TreeNode[P]) error

	// Delete removes every listed node in a single statement.
	Delete(ctx context.Context, ids []uuid.UUID) error

	// LockTree holds a write lock on the user's root row until the enclosing
	// transaction ends. A tree without a root takes no lock.
	LockTree(ctx context.Context, userID uuid.UUID) error
}

// ProgressStore persists QuestionProgress records.
type ProgressStore interface {
	// Get returns ErrProgressNotFound when the user never answered the question.
	Get(ctx context.Context, userID uuid.UUID, questionID string) (*domain.QuestionProgress, error)

	// Upsert creates or replaces the record keyed by (user, question).
	Upsert(ctx context.Context, progress *domain.QuestionProgress) error

	// ListDue returns records with errors > 0 and next review at or before now,
	// ordered by next review time then question id.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.QuestionProgress, error)

	// ListBelowProficiency returns records with proficiency < threshold,
	// ordered by question id.
	ListBelowProficiency(ctx context.Context, userID uuid.UUID, threshold int) ([]domain.QuestionProgress, error)

	// ListByUser returns every record of the user ordered by question id.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.QuestionProgress, error)

	// GetMany returns the records that exist for questionIDs keyed by question id.
	GetMany(ctx context.Context, userID uuid.UUID, questionIDs []string) (map[string]domain.QuestionProgress, error)
}

// CatalogStore persists the shared question catalog.
type CatalogStore interface {
	// Get returns ErrQuestionNotFound when the id is unknown.
	Get(ctx context.Context, id string) (*domain.Question, error)

	// GetMany returns the questions that exist for ids keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]domain.Question, error)

	// ListByMode returns every question with the given mode ordered by id.
	ListByMode(ctx context.Context, mode string) ([]domain.Question, error)

	// Insert adds the question unless its id already exists. It reports
	// whether a row was written.
	Insert(ctx context.Context, question *domain.Question) (bool, error)

	// UpdateTags replaces the tag set of a question.
	UpdateTags(ctx context.Context, id string, tags []string) error
}

// SessionStore persists study sessions and answer logs.
type SessionStore interface {
	CreateSession(ctx context.Context, session *domain.StudySession) error
	// GetSession returns ErrSessionNotFound when the id is unknown.
	GetSession(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)
	UpdateSession(ctx context.Context, session *domain.StudySession) error

	AppendLog(ctx context.Context, log *domain.AnswerLog) error
	// SessionLogs returns the logs of a session ordered by creation time.
	SessionLogs(ctx context.Context, sessionID uuid.UUID) ([]domain.AnswerLog, error)
	// ListLogsSince returns the user's logs created at or after since,
	// newest first.
	ListLogsSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.AnswerLog, error)
}

// Stores bundles one implementation of every port. Within TxManager.WithinTx
// all of them share the same transaction.
type Stores struct {
	Catalog   CatalogStore
	Progress  ProgressStore
	Notes     NodeStore[domain.NotePayload]
	Notebooks NodeStore[domain.NotebookPayload]
	Sessions  SessionStore
}

// UnitFn is the work performed inside a transaction.
type UnitFn func(ctx context.Context, tx *Stores) error

// TxManager runs units of work atomically. If fn returns an error, none of
// its writes are visible afterwards.
type TxManager interface {
	WithinTx(ctx context.Context, fn UnitFn) error
}
