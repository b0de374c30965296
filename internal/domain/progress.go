package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Validation errors for QuestionProgress.
var (
	ErrEmptyProgressUserID     = errors.New("progress user ID cannot be empty")
	ErrEmptyProgressQuestionID = errors.New("progress question ID cannot be empty")
	ErrInvalidProgressCounts   = errors.New("errors must be between 0 and attempts")
	ErrInvalidProficiency      = errors.New("proficiency must be between 0 and 100")
	ErrInvalidStage            = errors.New("stage cannot be negative")
)

// QuestionProgress is a user's mastery record for one question. It is
// created on the first answer and never deleted.
type QuestionProgress struct {
	UserID         uuid.UUID `json:"user_id"`
	QuestionID     string    `json:"question_id"`
	Attempts       int       `json:"attempts"`
	Errors         int       `json:"errors"`
	Proficiency    int       `json:"proficiency"`
	Stage          int       `json:"stage"`
	NextReviewAt   time.Time `json:"next_review_at"`
	LastReviewedAt time.Time `json:"last_reviewed_at"`
}

// NewQuestionProgress returns the zero record for a question that has never
// been answered. It is due immediately.
func NewQuestionProgress(userID uuid.UUID, questionID string, now time.Time) (*QuestionProgress, error) {
	p := &QuestionProgress{
		UserID:       userID,
		QuestionID:   questionID,
		NextReviewAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the record invariants.
func (p *QuestionProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}
	if p.QuestionID == "" {
		return ErrEmptyProgressQuestionID
	}
	if p.Attempts < 0 || p.Errors < 0 || p.Errors > p.Attempts {
		return ErrInvalidProgressCounts
	}
	if p.Proficiency < 0 || p.Proficiency > 100 {
		return ErrInvalidProficiency
	}
	if p.Stage < 0 {
		return ErrInvalidStage
	}
	return nil
}

// IsDue reports whether the question belongs to the due set at now: it has
// been missed at least once and its review time has passed.
func (p *QuestionProgress) IsDue(now time.Time) bool {
	return p.Errors > 0 && !p.NextReviewAt.After(now)
}
