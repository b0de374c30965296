package memory

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

type catalogStore struct {
	with access
}

func copyQuestion(q domain.Question) domain.Question {
	q.Options = slices.Clone(q.Options)
	q.Tags = domain.NormalizeSet(q.Tags)
	return q
}

func (s *catalogStore) Get(_ context.Context, id string) (*domain.Question, error) {
	var q domain.Question
	err := s.with(func(st *state) error {
		found, ok := st.questions[id]
		if !ok {
			return store.ErrQuestionNotFound
		}
		q = copyQuestion(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *catalogStore) GetMany(_ context.Context, ids []string) (map[string]domain.Question, error) {
	result := make(map[string]domain.Question, len(ids))
	err := s.with(func(st *state) error {
		for _, id := range ids {
			if q, ok := st.questions[id]; ok {
				result[id] = copyQuestion(q)
			}
		}
		return nil
	})
	return result, err
}

func (s *catalogStore) ListByMode(_ context.Context, mode string) ([]domain.Question, error) {
	var list []domain.Question
	err := s.with(func(st *state) error {
		for _, q := range st.questions {
			if q.Mode == mode {
				list = append(list, copyQuestion(q))
			}
		}
		return nil
	})
	slices.SortFunc(list, func(a, b domain.Question) int { return strings.Compare(a.ID, b.ID) })
	return list, err
}

func (s *catalogStore) Insert(_ context.Context, q *domain.Question) (bool, error) {
	inserted := false
	err := s.with(func(st *state) error {
		if _, exists := st.questions[q.ID]; exists {
			return nil
		}
		st.questions[q.ID] = copyQuestion(*q)
		inserted = true
		return nil
	})
	return inserted, err
}

func (s *catalogStore) UpdateTags(_ context.Context, id string, tags []string) error {
	return s.with(func(st *state) error {
		q, ok := st.questions[id]
		if !ok {
			return store.ErrQuestionNotFound
		}
		q.Tags = domain.NormalizeSet(tags)
		st.questions[id] = q
		return nil
	})
}

type progressStore struct {
	with access
}

func (s *progressStore) Get(_ context.Context, userID uuid.UUID, questionID string) (*domain.QuestionProgress, error) {
	var p domain.QuestionProgress
	err := s.with(func(st *state) error {
		found, ok := st.progress[progressKey{userID, questionID}]
		if !ok {
			return store.ErrProgressNotFound
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *progressStore) Upsert(_ context.Context, p *domain.QuestionProgress) error {
	if err := p.Validate(); err != nil {
		return store.NewStoreError("question progress", "upsert", "invalid record", errors.Join(store.ErrInvalidEntity, err))
	}
	return s.with(func(st *state) error {
		if _, ok := st.questions[p.QuestionID]; !ok {
			return store.NewStoreError("question progress", "upsert", "question does not exist", store.ErrInvalidEntity)
		}
		st.progress[progressKey{p.UserID, p.QuestionID}] = *p
		return nil
	})
}

func (s *progressStore) ListDue(_ context.Context, userID uuid.UUID, now time.Time) ([]domain.QuestionProgress, error) {
	list, err := s.filter(userID, func(p domain.QuestionProgress) bool { return p.IsDue(now) })
	slices.SortStableFunc(list, func(a, b domain.QuestionProgress) int {
		return a.NextReviewAt.Compare(b.NextReviewAt)
	})
	return list, err
}

func (s *progressStore) ListBelowProficiency(_ context.Context, userID uuid.UUID, threshold int) ([]domain.QuestionProgress, error) {
	return s.filter(userID, func(p domain.QuestionProgress) bool { return p.Proficiency < threshold })
}

func (s *progressStore) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.QuestionProgress, error) {
	return s.filter(userID, func(domain.QuestionProgress) bool { return true })
}

func (s *progressStore) GetMany(_ context.Context, userID uuid.UUID, questionIDs []string) (map[string]domain.QuestionProgress, error) {
	result := make(map[string]domain.QuestionProgress, len(questionIDs))
	err := s.with(func(st *state) error {
		for _, id := range questionIDs {
			if p, ok := st.progress[progressKey{userID, id}]; ok {
				result[id] = p
			}
		}
		return nil
	})
	return result, err
}

// filter returns the user's matching records ordered by question id.
func (s *progressStore) filter(userID uuid.UUID, match func(domain.QuestionProgress) bool) ([]domain.QuestionProgress, error) {
	var list []domain.QuestionProgress
	err := s.with(func(st *state) error {
		for key, p := range st.progress {
			if key.userID == userID && match(p) {
				list = append(list, p)
			}
		}
		return nil
	})
	slices.SortFunc(list, func(a, b domain.QuestionProgress) int {
		return strings.Compare(a.QuestionID, b.QuestionID)
	})
	return list, err
}

type sessionStore struct {
	with access
}

func copySession(session domain.StudySession) domain.StudySession {
	if session.EndedAt != nil {
		ended := *session.EndedAt
		session.EndedAt = &ended
	}
	return session
}

func (s *sessionStore) CreateSession(_ context.Context, session *domain.StudySession) error {
	return s.with(func(st *state) error {
		if _, exists := st.sessions[session.ID]; exists {
			return store.NewStoreError("study session", "create", "id already exists", store.ErrDuplicate)
		}
		st.sessions[session.ID] = copySession(*session)
		return nil
	})
}

func (s *sessionStore) GetSession(_ context.Context, id uuid.UUID) (*domain.StudySession, error) {
	var session domain.StudySession
	err := s.with(func(st *state) error {
		found, ok := st.sessions[id]
		if !ok {
			return store.ErrSessionNotFound
		}
		session = copySession(found)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *sessionStore) UpdateSession(_ context.Context, session *domain.StudySession) error {
	return s.with(func(st *state) error {
		if _, ok := st.sessions[session.ID]; !ok {
			return store.ErrSessionNotFound
		}
		st.sessions[session.ID] = copySession(*session)
		return nil
	})
}

func (s *sessionStore) AppendLog(_ context.Context, entry *domain.AnswerLog) error {
	return s.with(func(st *state) error {
		if entry.SessionID != nil {
			if _, ok := st.sessions[*entry.SessionID]; !ok {
				return store.NewStoreError("answer log", "append", "session does not exist", store.ErrInvalidEntity)
			}
		}
		copied := *entry
		if entry.SessionID != nil {
			id := *entry.SessionID
			copied.SessionID = &id
		}
		st.logs = append(st.logs, copied)
		return nil
	})
}

func (s *sessionStore) SessionLogs(_ context.Context, sessionID uuid.UUID) ([]domain.AnswerLog, error) {
	var logs []domain.AnswerLog
	err := s.with(func(st *state) error {
		for _, l := range st.logs {
			if l.SessionID != nil && *l.SessionID == sessionID {
				logs = append(logs, l)
			}
		}
		return nil
	})
	slices.SortStableFunc(logs, func(a, b domain.AnswerLog) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return logs, err
}

func (s *sessionStore) ListLogsSince(_ context.Context, userID uuid.UUID, since time.Time) ([]domain.AnswerLog, error) {
	var logs []domain.AnswerLog
	err := s.with(func(st *state) error {
		for _, l := range st.logs {
			if l.UserID == userID && !l.CreatedAt.Before(since) {
				logs = append(logs, l)
			}
		}
		return nil
	})
	slices.SortStableFunc(logs, func(a, b domain.AnswerLog) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return logs, err
}
