package api

import (
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/quiz"
	"github.com/google/uuid"
)

// NodeResponse is a tree node as returned to clients.
type NodeResponse[P any] struct {
	ID         uuid.UUID   `json:"id"`
	ParentID   *uuid.UUID  `json:"parent_id,omitempty"`
	Name       string      `json:"name"`
	OrderIndex int         `json:"order_index"`
	ChildIDs   []uuid.UUID `json:"child_ids"`
	Payload    P           `json:"payload"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// CreateNodeRequest creates a node under ParentID, or under the root when
// ParentID is omitted.
type CreateNodeRequest[P any] struct {
	Name     string     `json:"name" validate:"required,max=255"`
	ParentID *uuid.UUID `json:"parent_id"`
	Payload  P          `json:"payload"`
}

// MoveNodeRequest reparents a node as the last child of ParentID.
type MoveNodeRequest struct {
	ParentID uuid.UUID `json:"parent_id" validate:"required"`
}

// RenameNodeRequest renames a node.
type RenameNodeRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

// SetPayloadRequest replaces a node's payload.
type SetPayloadRequest[P any] struct {
	Payload P `json:"payload"`
}

// ReorderRequest lists every child id of a parent in the new order.
type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

// SortRequest sorts the children of a parent by Key ("name" or
// "createdTime").
type SortRequest struct {
	Key string `json:"key" validate:"required"`
}

// DeleteNodeResponse lists every removed node id.
type DeleteNodeResponse struct {
	Deleted []uuid.UUID `json:"deleted"`
}

// QuestionResponse is a question without its answer.
type QuestionResponse struct {
	ID      string          `json:"id"`
	Content string          `json:"content"`
	Options []domain.Option `json:"options"`
	Tags    []string        `json:"tags"`
	Mode    string          `json:"mode"`
}

// ServedQuestionResponse is the question picked by GetQuestion.
type ServedQuestionResponse struct {
	Question  QuestionResponse `json:"question"`
	Tags      []string         `json:"tags"`
	IsDue     bool             `json:"is_due"`
	IsVariant bool             `json:"is_variant"`
	VariantOf string           `json:"variant_of,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// SubmitAnswerRequest submits a choice for a question.
type SubmitAnswerRequest struct {
	Choice     string     `json:"choice" validate:"required"`
	SessionID  *uuid.UUID `json:"session_id"`
	DurationMs int        `json:"duration_ms" validate:"gte=0"`
}

// SetTagsRequest replaces a question's catalog tags.
type SetTagsRequest struct {
	Tags []string `json:"tags"`
}

// StartSessionRequest opens a study session.
type StartSessionRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// AddQuestionRequest files a question in a notebook.
type AddQuestionRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
}

// DueReviewsResponse lists the due question ids.
type DueReviewsResponse struct {
	QuestionIDs []string `json:"question_ids"`
	Count       int      `json:"count"`
}

func nodeToResponse[P any](n *domain.TreeNode[P]) NodeResponse[P] {
	childIDs := n.ChildIDs
	if childIDs == nil {
		childIDs = []uuid.UUID{}
	}
	return NodeResponse[P]{
		ID:         n.ID,
		ParentID:   n.ParentID,
		Name:       n.Name,
		OrderIndex: n.OrderIndex,
		ChildIDs:   childIDs,
		Payload:    n.Payload,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func nodesToResponse[P any](nodes []*domain.TreeNode[P]) []NodeResponse[P] {
	out := make([]NodeResponse[P], 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeToResponse(n))
	}
	return out
}

func questionToResponse(q domain.Question) QuestionResponse {
	tags := q.Tags
	if tags == nil {
		tags = []string{}
	}
	return QuestionResponse{
		ID:      q.ID,
		Content: q.Content,
		Options: q.Options,
		Tags:    tags,
		Mode:    q.Mode,
	}
}

func servedToResponse(s *quiz.ServedQuestion) ServedQuestionResponse {
	tags := s.Tags
	if tags == nil {
		tags = []string{}
	}
	return ServedQuestionResponse{
		Question:  questionToResponse(s.Question),
		Tags:      tags,
		IsDue:     s.IsDue,
		IsVariant: s.IsVariant,
		VariantOf: s.VariantOf,
		Note:      s.Note,
	}
}
