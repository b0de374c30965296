// Package notebook manages question membership in the notebook tree: the
// lazily created Inbox that collects missed questions, explicit filing of
// questions, and enumeration of every question under a notebook together
// with the tags it inherits from its ancestors.
package notebook

import (
	"context"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/tree"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// InboxName is the name of the default notebook that receives missed
// questions.
const InboxName = "Inbox"

// Entry is a question found under a notebook. Tags holds the union of the
// tags of every notebook on the path from the root to each notebook that
// files the question.
type Entry struct {
	QuestionID  string      `json:"question_id"`
	Tags        []string    `json:"tags"`
	NotebookIDs []uuid.UUID `json:"notebook_ids"`
}

// Book runs notebook operations against one set of stores. It is meant to
// be bound inside a unit of work so its writes share that transaction.
type Book struct {
	tree    *tree.Tree[domain.NotebookPayload]
	catalog store.CatalogStore
}

// Bind returns a Book operating on stores.
func Bind(stores *store.Stores, now func() time.Time) *Book {
	return &Book{
		tree:    tree.Notebooks.Bind(stores, now),
		catalog: stores.Catalog,
	}
}

// Tree exposes the bound notebook tree.
func (b *Book) Tree() *tree.Tree[domain.NotebookPayload] {
	return b.tree
}

// Inbox returns the user's Inbox notebook, creating it directly under the
// root when it does not exist yet.
func (b *Book) Inbox(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[domain.NotebookPayload], error) {
	root, err := b.tree.Root(ctx, userID)
	if err != nil {
		return nil, err
	}
	children, err := b.tree.Children(ctx, userID, root.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range children {
		if c.Name == InboxName {
			return c, nil
		}
	}
	return b.tree.Create(ctx, userID, InboxName, &root.ID, domain.NotebookPayload{})
}

// AddToInbox files questionID in the user's Inbox.
func (b *Book) AddToInbox(ctx context.Context, userID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	inbox, err := b.Inbox(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.file(ctx, userID, inbox, questionID)
}

// AddQuestion files questionID in notebookID. The question must exist in
// the catalog.
func (b *Book) AddQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	if _, err := b.catalog.Get(ctx, questionID); err != nil {
		return nil, err
	}
	nb, err := b.tree.Get(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}
	return b.file(ctx, userID, nb, questionID)
}

// RemoveQuestion takes questionID out of notebookID. Removing a question
// that is not filed there is a no-op.
func (b *Book) RemoveQuestion(ctx context.Context, userID, notebookID uuid.UUID, questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	if _, err := b.catalog.Get(ctx, questionID); err != nil {
		return nil, err
	}
	nb, err := b.tree.Get(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}
	if !nb.Payload.HasQuestion(questionID) {
		return nb, nil
	}
	return b.tree.SetPayload(ctx, userID, nb.ID, nb.Payload.WithoutQuestion(questionID))
}

func (b *Book) file(ctx context.Context, userID uuid.UUID, nb *domain.TreeNode[domain.NotebookPayload], questionID string) (*domain.TreeNode[domain.NotebookPayload], error) {
	if questionID == "" {
		return nil, domain.NewValidationError("question_id", "cannot be blank", nil)
	}
	if nb.Payload.HasQuestion(questionID) {
		return nb, nil
	}
	return b.tree.SetPayload(ctx, userID, nb.ID, nb.Payload.WithQuestion(questionID))
}

// Collect returns every question filed in nodeID or any of its descendants,
// in depth-first order of first appearance. A question filed in several
// notebooks appears once with the union of their inherited tags.
func (b *Book) Collect(ctx context.Context, userID, nodeID uuid.UUID) ([]Entry, error) {
	crumbs, err := b.tree.Breadcrumbs(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}
	var above []string
	for _, n := range crumbs[:len(crumbs)-1] {
		above = append(above, n.Payload.Tags...)
	}

	nodes, err := b.tree.Subtree(ctx, userID, nodeID)
	if err != nil {
		return nil, err
	}

	inherited := make(map[uuid.UUID][]string, len(nodes))
	index := make(map[string]int)
	var entries []Entry
	for _, n := range nodes {
		base := above
		if n.ID != nodeID && n.ParentID != nil {
			base = inherited[*n.ParentID]
		}
		tags := domain.UnionSets(base, n.Payload.Tags)
		inherited[n.ID] = tags

		for _, qid := range n.Payload.QuestionIDs {
			i, ok := index[qid]
			if !ok {
				index[qid] = len(entries)
				entries = append(entries, Entry{QuestionID: qid, Tags: tags, NotebookIDs: []uuid.UUID{n.ID}})
				continue
			}
			entries[i].Tags = domain.UnionSets(entries[i].Tags, tags)
			entries[i].NotebookIDs = append(entries[i].NotebookIDs, n.ID)
		}
	}
	return entries, nil
}

// IDs returns the question ids of entries in order.
func IDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.QuestionID
	}
	return ids
}
