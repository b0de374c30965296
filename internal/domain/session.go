package domain

import (
	"time"

	"github.com/google/uuid"
)

// StudySession groups the answers given during one sitting.
type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	Mode            string     `json:"mode"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	TotalQuestions  int        `json:"total_questions"`
	CorrectCount    int        `json:"correct_count"`
	Score           int        `json:"score"`
}

// Finished reports whether the session has been closed.
func (s *StudySession) Finished() bool {
	return s.EndedAt != nil
}

// Finish closes the session and computes its totals from logs.
func (s *StudySession) Finish(logs []AnswerLog, now time.Time) {
	s.TotalQuestions = len(logs)
	s.CorrectCount = 0
	for _, l := range logs {
		if l.IsCorrect {
			s.CorrectCount++
		}
	}
	s.Score = 0
	if s.TotalQuestions > 0 {
		s.Score = s.CorrectCount * 100 / s.TotalQuestions
	}
	s.DurationSeconds = int(now.Sub(s.StartedAt) / time.Second)
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	ended := now
	s.EndedAt = &ended
}

// AnswerLog records one submitted answer.
type AnswerLog struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"user_id"`
	QuestionID string     `json:"question_id"`
	SessionID  *uuid.UUID `json:"session_id,omitempty"`
	Choice     string     `json:"choice"`
	IsCorrect  bool       `json:"is_correct"`
	DurationMs int        `json:"duration_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}
