package study_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lucasviinic/flashly-api/pkg/playbilling"
)

// MockVerifier is a mock implementation of tier.Verifier.
type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, packageName, purchaseToken string) (*playbilling.Snapshot, error) {
	args := m.Called(ctx, packageName, purchaseToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*playbilling.Snapshot), args.Error(1)
}
