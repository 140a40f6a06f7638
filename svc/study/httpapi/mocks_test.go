package httpapi_test

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lucasviinic/flashly-api/pkg/entitlement"
	"github.com/lucasviinic/flashly-api/svc/study"
)

// MockService is a mock implementation of httpapi.Service.
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateSubject(ctx context.Context, userID uuid.UUID, in study.SubjectInput) (*study.Subject, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Subject), args.Error(1)
}

func (m *MockService) CreateFlashcard(ctx context.Context, userID uuid.UUID, in study.FlashcardInput) (*study.Flashcard, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Flashcard), args.Error(1)
}

func (m *MockService) GenerateFlashcards(ctx context.Context, userID uuid.UUID, in study.GenerateInput) (*study.Generation, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Generation), args.Error(1)
}

func (m *MockService) VerifyPurchase(ctx context.Context, userID uuid.UUID, packageName, purchaseToken string) (*study.PurchaseResult, error) {
	args := m.Called(ctx, userID, packageName, purchaseToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.PurchaseResult), args.Error(1)
}

func (m *MockService) Account(ctx context.Context, userID uuid.UUID) (*study.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.Account), args.Error(1)
}

func (m *MockService) ActiveSubscriptions(ctx context.Context, userID uuid.UUID) ([]entitlement.Record, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entitlement.Record), args.Error(1)
}

func (m *MockService) PremiumStatus(ctx context.Context, userID uuid.UUID) (*study.PremiumStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*study.PremiumStatus), args.Error(1)
}

func (m *MockService) DeactivateSubscription(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	return m.Called(ctx, userID, subscriptionID).Error(0)
}
