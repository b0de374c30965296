// Package mocks provides testify mocks of the service interfaces consumed
// by the HTTP layer.
//
// Usage:
//
//	svc := new(mocks.QuizService)
//	svc.On("DueReviews", mock.Anything, userID, now).Return([]string{"Q1"}, nil)
//	defer svc.AssertExpectations(t)
//
// Each mock lives in a file named after the interface it implements.
package mocks
