// Package tree implements the ordered single-parent hierarchy shared by the
// notes and notebooks trees. Tree holds the algorithms against a NodeStore
// bound to one unit of work; Service runs each operation atomically.
package tree

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/store"
	"github.com/google/uuid"
)

// MaxDepth bounds every ancestor walk. A longer chain can only come from a
// corrupted store and is reported as a cycle.
const MaxDepth = 1024

// SortKey selects the ordering applied by Sort.
type SortKey string

const (
	// SortByName orders children by name, case-insensitive, ascending.
	SortByName SortKey = "name"
	// SortByCreatedTime orders children newest first.
	SortByCreatedTime SortKey = "createdTime"
)

// Kind describes how one tree kind behaves.
type Kind[P any] struct {
	Name domain.TreeKind
	// Pick selects this kind's node store from a unit of work.
	Pick func(*store.Stores) store.NodeStore[P]
	// RootPayload is the payload given to a lazily created root.
	RootPayload func() P
	// Normalize validates a payload and returns its canonical form.
	Normalize func(P) (P, error)
	// CanContain reports whether a node may have children.
	CanContain func(*domain.TreeNode[P]) bool
}

// Tree runs the hierarchy algorithms against one node store.
type Tree[P any] struct {
	nodes store.NodeStore[P]
	kind  Kind[P]
	now   func() time.Time
}

// Bind returns a Tree operating on the node store picked from stores.
func (k Kind[P]) Bind(stores *store.Stores, now func() time.Time) *Tree[P] {
	if now == nil {
		now = time.Now
	}
	return &Tree[P]{nodes: k.Pick(stores), kind: k, now: now}
}

// Root returns the user's root, creating it on first use.
func (t *Tree[P]) Root(ctx context.Context, userID uuid.UUID) (*domain.TreeNode[P], error) {
	root, err := t.nodes.Root(ctx, userID)
	if err == nil {
		return t.withChildren(ctx, root)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	root, err = domain.NewTreeNode(userID, t.kind.Name, domain.RootNodeName, nil, t.kind.RootPayload(), t.now().UTC())
	if err != nil {
		return nil, err
	}
	if err := t.nodes.Create(ctx, root); err != nil {
		return nil, err
	}
	root.ChildIDs = []uuid.UUID{}
	return root, nil
}

// Get returns the node with its ordered ChildIDs.
func (t *Tree[P]) Get(ctx context.Context, userID, id uuid.UUID) (*domain.TreeNode[P], error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return t.withChildren(ctx, node)
}

// Children returns the ordered direct children of id.
func (t *Tree[P]) Children(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	if _, err := t.owned(ctx, userID, id); err != nil {
		return nil, err
	}
	return t.nodes.Children(ctx, id)
}

// Breadcrumbs returns the chain from the root down to id, inclusive.
func (t *Tree[P]) Breadcrumbs(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	chain := []*domain.TreeNode[P]{node}
	for node.ParentID != nil {
		if len(chain) > MaxDepth {
			return nil, domain.ErrCycleViolation
		}
		node, err = t.nodes.Get(ctx, *node.ParentID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, node)
	}
	slices.Reverse(chain)
	return chain, nil
}

// Create adds a node under parentID, or under the root when parentID is nil,
// after the existing siblings.
func (t *Tree[P]) Create(ctx context.Context, userID uuid.UUID, name string, parentID *uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	var (
		parent *domain.TreeNode[P]
		err    error
	)
	if parentID == nil {
		parent, err = t.Root(ctx, userID)
	} else {
		parent, err = t.owned(ctx, userID, *parentID)
	}
	if err != nil {
		return nil, err
	}
	if !t.kind.CanContain(parent) {
		return nil, domain.NewValidationError("parent_id", "parent cannot contain children", nil)
	}

	payload, err = t.kind.Normalize(payload)
	if err != nil {
		return nil, err
	}

	order, err := t.nextOrderIndex(ctx, parent.ID)
	if err != nil {
		return nil, err
	}

	node, err := domain.NewTreeNode(userID, t.kind.Name, name, &parent.ID, payload, t.now().UTC())
	if err != nil {
		return nil, err
	}
	node.OrderIndex = order
	if err := t.nodes.Create(ctx, node); err != nil {
		return nil, err
	}
	node.ChildIDs = []uuid.UUID{}
	return node, nil
}

// Move re-parents id under newParentID as its last child. Moving a node
// into itself or its own subtree is a cycle violation; moving to the current
// parent changes nothing.
func (t *Tree[P]) Move(ctx context.Context, userID, id, newParentID uuid.UUID) (*domain.TreeNode[P], error) {
	if id == newParentID {
		return nil, domain.ErrCycleViolation
	}
	// Concurrent moves could otherwise each pass the ancestor walk below
	// and commit a cycle between them.
	if err := t.nodes.LockTree(ctx, userID); err != nil {
		return nil, err
	}

	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, domain.ErrForbidden
	}
	target, err := t.owned(ctx, userID, newParentID)
	if err != nil {
		return nil, err
	}
	if *node.ParentID == target.ID {
		return node, nil
	}
	if !t.kind.CanContain(target) {
		return nil, domain.NewValidationError("parent_id", "parent cannot contain children", nil)
	}

	// Walk up from the target; meeting the node means the target is inside
	// the node's subtree.
	cursor := target
	for depth := 0; cursor.ParentID != nil; depth++ {
		if depth > MaxDepth {
			return nil, domain.ErrCycleViolation
		}
		if *cursor.ParentID == node.ID {
			return nil, domain.ErrCycleViolation
		}
		cursor, err = t.nodes.Get(ctx, *cursor.ParentID)
		if err != nil {
			return nil, err
		}
	}

	order, err := t.nextOrderIndex(ctx, target.ID)
	if err != nil {
		return nil, err
	}
	node.ParentID = &target.ID
	node.OrderIndex = order
	node.UpdatedAt = t.now().UTC()
	if err := t.nodes.Update(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Rename changes the node's name.
func (t *Tree[P]) Rename(ctx context.Context, userID, id uuid.UUID, name string) (*domain.TreeNode[P], error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	node.Name = strings.TrimSpace(name)
	if err := node.Validate(); err != nil {
		return nil, err
	}
	node.UpdatedAt = t.now().UTC()
	if err := t.nodes.Update(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// SetPayload replaces the node's payload. A node with children must keep a
// payload that can contain them.
func (t *Tree[P]) SetPayload(ctx context.Context, userID, id uuid.UUID, payload P) (*domain.TreeNode[P], error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	payload, err = t.kind.Normalize(payload)
	if err != nil {
		return nil, err
	}

	node.Payload = payload
	if !t.kind.CanContain(node) {
		children, err := t.nodes.Children(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(children) > 0 || node.IsRoot() {
			return nil, domain.NewValidationError("payload", "node with children must stay a container", nil)
		}
	}

	node.UpdatedAt = t.now().UTC()
	if err := t.nodes.Update(ctx, node); err != nil {
		return nil, err
	}
	return node, nil
}

// Delete removes id and its entire subtree. It returns the removed ids.
func (t *Tree[P]) Delete(ctx context.Context, userID, id uuid.UUID) ([]uuid.UUID, error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if node.IsRoot() {
		return nil, domain.ErrForbidden
	}

	subtree, err := t.subtree(ctx, node)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(subtree))
	for i, n := range subtree {
		ids[i] = n.ID
	}
	if err := t.nodes.Delete(ctx, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Reorder assigns sibling positions from orderedIDs, which must be a
// permutation of the current children of parentID.
func (t *Tree[P]) Reorder(ctx context.Context, userID, parentID uuid.UUID, orderedIDs []uuid.UUID) ([]*domain.TreeNode[P], error) {
	children, err := t.Children(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*domain.TreeNode[P], len(children))
	for _, c := range children {
		byID[c.ID] = c
	}
	if len(orderedIDs) != len(children) {
		return nil, domain.NewValidationError("ids", "must list every current child exactly once", nil)
	}
	ordered := make([]*domain.TreeNode[P], 0, len(orderedIDs))
	seen := make(map[uuid.UUID]bool, len(orderedIDs))
	for _, id := range orderedIDs {
		child, ok := byID[id]
		if !ok || seen[id] {
			return nil, domain.NewValidationError("ids", "must list every current child exactly once", nil)
		}
		seen[id] = true
		ordered = append(ordered, child)
	}

	if err := t.assignOrder(ctx, ordered); err != nil {
		return nil, err
	}
	return ordered, nil
}

// Sort orders the children of parentID by key and persists the result.
func (t *Tree[P]) Sort(ctx context.Context, userID, parentID uuid.UUID, key SortKey) ([]*domain.TreeNode[P], error) {
	var cmp func(a, b *domain.TreeNode[P]) int
	switch key {
	case SortByName:
		cmp = func(a, b *domain.TreeNode[P]) int {
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	case SortByCreatedTime:
		cmp = func(a, b *domain.TreeNode[P]) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		}
	default:
		return nil, domain.NewValidationError("key", "must be name or createdTime", nil)
	}

	children, err := t.Children(ctx, userID, parentID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(children, cmp)
	if err := t.assignOrder(ctx, children); err != nil {
		return nil, err
	}
	return children, nil
}

// Subtree returns id and all of its descendants in depth-first pre-order,
// each with ChildIDs populated.
func (t *Tree[P]) Subtree(ctx context.Context, userID, id uuid.UUID) ([]*domain.TreeNode[P], error) {
	node, err := t.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return t.subtree(ctx, node)
}

func (t *Tree[P]) subtree(ctx context.Context, top *domain.TreeNode[P]) ([]*domain.TreeNode[P], error) {
	all, err := t.nodes.ListByUser(ctx, top.UserID)
	if err != nil {
		return nil, err
	}

	byParent := make(map[uuid.UUID][]*domain.TreeNode[P])
	for _, n := range all {
		if n.ParentID != nil {
			byParent[*n.ParentID] = append(byParent[*n.ParentID], n)
		}
	}
	for _, siblings := range byParent {
		slices.SortFunc(siblings, compareSiblings[P])
	}

	var (
		out     []*domain.TreeNode[P]
		visited = make(map[uuid.UUID]bool)
		walk    func(n *domain.TreeNode[P])
	)
	walk = func(n *domain.TreeNode[P]) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		children := byParent[n.ID]
		n.ChildIDs = make([]uuid.UUID, len(children))
		for i, c := range children {
			n.ChildIDs[i] = c.ID
		}
		out = append(out, n)
		for _, c := range children {
			walk(c)
		}
	}
	walk(top)
	return out, nil
}

// owned loads id and checks that userID owns it.
func (t *Tree[P]) owned(ctx context.Context, userID, id uuid.UUID) (*domain.TreeNode[P], error) {
	node, err := t.nodes.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if node.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return node, nil
}

func (t *Tree[P]) withChildren(ctx context.Context, node *domain.TreeNode[P]) (*domain.TreeNode[P], error) {
	children, err := t.nodes.Children(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	node.ChildIDs = make([]uuid.UUID, len(children))
	for i, c := range children {
		node.ChildIDs[i] = c.ID
	}
	return node, nil
}

func (t *Tree[P]) nextOrderIndex(ctx context.Context, parentID uuid.UUID) (int, error) {
	children, err := t.nodes.Children(ctx, parentID)
	if err != nil {
		return 0, err
	}
	next := 0
	for _, c := range children {
		if c.OrderIndex >= next {
			next = c.OrderIndex + 1
		}
	}
	return next, nil
}

// assignOrder gives each node its position as order index, writing only the
// nodes whose index changed.
func (t *Tree[P]) assignOrder(ctx context.Context, ordered []*domain.TreeNode[P]) error {
	now := t.now().UTC()
	for i, n := range ordered {
		if n.OrderIndex == i {
			continue
		}
		n.OrderIndex = i
		n.UpdatedAt = now
		if err := t.nodes.Update(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func compareSiblings[P any](a, b *domain.TreeNode[P]) int {
	if a.OrderIndex != b.OrderIndex {
		if a.OrderIndex < b.OrderIndex {
			return -1
		}
		return 1
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}
