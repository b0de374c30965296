package mocks

import (
	"context"
	"time"

	"github.com/Chesten223/SoRight3/internal/service/review"
	"github.com/Chesten223/SoRight3/internal/service/stats"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// StatsService mocks stats.Service.
type StatsService struct {
	mock.Mock
}

var _ stats.Service = (*StatsService)(nil)

func (m *StatsService) Aggregate(ctx context.Context, userID, nodeID uuid.UUID) (*stats.Summary, error) {
	args := m.Called(ctx, userID, nodeID)
	summary, _ := args.Get(0).(*stats.Summary)
	return summary, args.Error(1)
}

func (m *StatsService) Dashboard(ctx context.Context, userID uuid.UUID, now time.Time) (*stats.Dashboard, error) {
	args := m.Called(ctx, userID, now)
	dash, _ := args.Get(0).(*stats.Dashboard)
	return dash, args.Error(1)
}

// ReviewService mocks review.Service.
type ReviewService struct {
	mock.Mock
}

var _ review.Service = (*ReviewService)(nil)

func (m *ReviewService) DueReviews(ctx context.Context, userID uuid.UUID, now time.Time) ([]string, error) {
	args := m.Called(ctx, userID, now)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}
