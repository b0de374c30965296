package mocks

import (
	"context"
	"time"

	"github.com/Chesten223/SoRight3/internal/domain"
	"github.com/Chesten223/SoRight3/internal/service/quiz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// QuizService mocks quiz.Service.
type QuizService struct {
	mock.Mock
}

var _ quiz.Service = (*QuizService)(nil)

func (m *QuizService) GetQuestion(ctx context.Context, userID uuid.UUID, req quiz.Request, now time.Time) (*quiz.ServedQuestion, error) {
	args := m.Called(ctx, userID, req, now)
	served, _ := args.Get(0).(*quiz.ServedQuestion)
	return served, args.Error(1)
}

func (m *QuizService) SubmitAnswer(ctx context.Context, userID uuid.UUID, questionID string, answer quiz.Answer) (*quiz.AnswerResult, error) {
	args := m.Called(ctx, userID, questionID, answer)
	result, _ := args.Get(0).(*quiz.AnswerResult)
	return result, args.Error(1)
}

func (m *QuizService) SetQuestionTags(ctx context.Context, questionID string, tags []string) (*domain.Question, error) {
	args := m.Called(ctx, questionID, tags)
	q, _ := args.Get(0).(*domain.Question)
	return q, args.Error(1)
}

func (m *QuizService) StartSession(ctx context.Context, userID uuid.UUID, mode string) (*domain.StudySession, error) {
	args := m.Called(ctx, userID, mode)
	session, _ := args.Get(0).(*domain.StudySession)
	return session, args.Error(1)
}

func (m *QuizService) FinishSession(ctx context.Context, userID, sessionID uuid.UUID, now time.Time) (*domain.StudySession, error) {
	args := m.Called(ctx, userID, sessionID, now)
	session, _ := args.Get(0).(*domain.StudySession)
	return session, args.Error(1)
}
