package discover

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

// MockPlaceRepository is a mock implementation of place.Repository
type MockPlaceRepository struct {
	mock.Mock
}

func (m *MockPlaceRepository) FindByNameLike(ctx context.Context, terms []string, limit int) ([]types.Place, error) {
	args := m.Called(ctx, terms, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockPlaceRepository) FindByCityAndCategory(ctx context.Context, cities, categories []string, excludeIDs []uuid.UUID, limit int) ([]types.Place, error) {
	args := m.Called(ctx, cities, categories, excludeIDs, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockPlaceRepository) FindByNameKeywordInCity(ctx context.Context, cities []string, keyword string, limit int) ([]types.Place, error) {
	args := m.Called(ctx, cities, keyword, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockPlaceRepository) FindByCityWithCover(ctx context.Context, cities []string, limit int) ([]types.Place, error) {
	args := m.Called(ctx, cities, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Place), args.Error(1)
}

func (m *MockPlaceRepository) ExistsNear(ctx context.Context, name string, lat, lng, delta float64) (bool, error) {
	args := m.Called(ctx, name, lat, lng, delta)
	return args.Bool(0), args.Error(1)
}

func (m *MockPlaceRepository) Create(ctx context.Context, candidate types.CandidatePlace) (uuid.UUID, error) {
	args := m.Called(ctx, candidate)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockTextGenerator is a mock implementation of TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	args := m.Called(ctx, prompt, config)
	return args.String(0), args.Error(1)
}

// MockQuotaLedger is a mock implementation of quota.Ledger
type MockQuotaLedger struct {
	mock.Mock
}

func (m *MockQuotaLedger) CanSearch(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockQuotaLedger) Remaining(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockQuotaLedger) Consume(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockImageClient is a mock implementation of imagesearch.Client
type MockImageClient struct {
	mock.Mock
}

func (m *MockImageClient) SearchPlaceImage(ctx context.Context, name, city string) (string, error) {
	args := m.Called(ctx, name, city)
	return args.String(0), args.Error(1)
}
