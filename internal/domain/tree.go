package domain

import (
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

// TreeKind names one of the per-user hierarchies.
type TreeKind string

const (
	TreeKindNotes     TreeKind = "notes"
	TreeKindNotebooks TreeKind = "notebooks"
)

// Valid reports whether k is a known tree kind.
func (k TreeKind) Valid() bool {
	return k == TreeKindNotes || k == TreeKindNotebooks
}

// MaxNodeNameLength bounds node names.
const MaxNodeNameLength = 255

// RootNodeName is the name given to the implicit root of every tree.
const RootNodeName = "root"

// TreeNode is a node of an ordered single-parent hierarchy carrying a
// payload of type P.
//
// Sibling order is defined by OrderIndex. ChildIDs is materialised from the
// children's ParentID and OrderIndex whenever a node is read through the
// tree service, so the two views always agree.
type TreeNode[P any] struct {
	ID         uuid.UUID   `json:"id"`
	UserID     uuid.UUID   `json:"user_id"`
	Kind       TreeKind    `json:"kind"`
	Name       string      `json:"name"`
	ParentID   *uuid.UUID  `json:"parent_id,omitempty"`
	OrderIndex int         `json:"order_index"`
	ChildIDs   []uuid.UUID `json:"child_ids"`
	Payload    P           `json:"payload"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// NewTreeNode builds a validated child node. parentID is nil only for roots.
func NewTreeNode[P any](
	userID uuid.UUID,
	kind TreeKind,
	name string,
	parentID *uuid.UUID,
	payload P,
	now time.Time,
) (*TreeNode[P], error) {
	node := &TreeNode[P]{
		ID:        uuid.New(),
		UserID:    userID,
		Kind:      kind,
		Name:      strings.TrimSpace(name),
		ParentID:  parentID,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := node.Validate(); err != nil {
		return nil, err
	}
	return node, nil
}

// IsRoot reports whether the node is the implicit root of its tree.
func (n *TreeNode[P]) IsRoot() bool {
	return n.ParentID == nil
}

// Validate checks the structural fields of the node.
func (n *TreeNode[P]) Validate() error {
	return asValidationError(validation.ValidateStruct(n,
		validation.Field(&n.UserID, validation.By(notNilUUID)),
		validation.Field(&n.Name, validation.Required, validation.RuneLength(1, MaxNodeNameLength)),
		validation.Field(&n.Kind, validation.Required, validation.By(knownKind)),
	))
}

func knownKind(value interface{}) error {
	if k, _ := value.(TreeKind); !k.Valid() {
		return validation.NewError("validation_in_invalid", "must be a valid value")
	}
	return nil
}

func notNilUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}
