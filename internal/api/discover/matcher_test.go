package discover

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-place-discovery/config"
	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		ProximityDegrees:  0.01,
		MatchThreshold:    0.6,
		RebindThreshold:   0.7,
		CatalogFetchLimit: 10,
	}
}

func setupMatcherTest() (*Matcher, *MockPlaceRepository) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockRepo := new(MockPlaceRepository)
	matcher := NewMatcher(mockRepo, testSearchConfig(), logger)
	return matcher, mockRepo
}

func TestMatcher_Match(t *testing.T) {
	ctx := context.Background()

	t.Run("similar name within proximity matches", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		candidate := types.CandidatePlace{Name: "Caffè Greco", Latitude: 41.9009, Longitude: 12.4833}
		row := types.Place{ID: uuid.New(), Name: "Antico Caffè Greco", Latitude: 41.9008, Longitude: 12.4832}

		mockRepo.On("FindByNameLike", mock.Anything, []string{"Caffè Greco", "Caffè"}, 10).
			Return([]types.Place{row}, nil).Once()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{candidate})
		require.Len(t, matched, 1)
		assert.Equal(t, row.ID, matched["Caffè Greco"].ID)
		assert.Empty(t, unmatched)
		mockRepo.AssertExpectations(t)
	})

	t.Run("name below threshold stays unmatched", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		candidate := types.CandidatePlace{Name: "Blue Bottle Coffee", Latitude: 35.66, Longitude: 139.71}
		row := types.Place{ID: uuid.New(), Name: "Tsukiji Fish Market", Latitude: 35.66, Longitude: 139.71}

		mockRepo.On("FindByNameLike", mock.Anything, mock.Anything, 10).
			Return([]types.Place{row}, nil).Once()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{candidate})
		assert.Empty(t, matched)
		require.Len(t, unmatched, 1)
		assert.Equal(t, "Blue Bottle Coffee", unmatched[0].Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("coordinates outside proximity stay unmatched", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		candidate := types.CandidatePlace{Name: "Onibus Coffee", Latitude: 35.6500, Longitude: 139.6900}
		// Same name, but two hundredths of a degree away.
		row := types.Place{ID: uuid.New(), Name: "Onibus Coffee", Latitude: 35.6700, Longitude: 139.6900}

		mockRepo.On("FindByNameLike", mock.Anything, mock.Anything, 10).
			Return([]types.Place{row}, nil).Once()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{candidate})
		assert.Empty(t, matched)
		assert.Len(t, unmatched, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("closest admissible row wins", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		candidate := types.CandidatePlace{Name: "Onibus Coffee", Latitude: 35.6500, Longitude: 139.6900}
		far := types.Place{ID: uuid.New(), Name: "Onibus Coffee", Latitude: 35.6580, Longitude: 139.6900}
		near := types.Place{ID: uuid.New(), Name: "Onibus Coffee", Latitude: 35.6501, Longitude: 139.6901}

		mockRepo.On("FindByNameLike", mock.Anything, mock.Anything, 10).
			Return([]types.Place{far, near}, nil).Once()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{candidate})
		require.Len(t, matched, 1)
		assert.Equal(t, near.ID, matched["Onibus Coffee"].ID)
		assert.Empty(t, unmatched)
		mockRepo.AssertExpectations(t)
	})

	t.Run("claimed row is not reused by later candidates", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		row := types.Place{ID: uuid.New(), Name: "Cafe Kitsune", Latitude: 48.8660, Longitude: 2.3630}
		first := types.CandidatePlace{Name: "Cafe Kitsune", Latitude: 48.8661, Longitude: 2.3631}
		second := types.CandidatePlace{Name: "Café Kitsune", Latitude: 48.8662, Longitude: 2.3632}

		mockRepo.On("FindByNameLike", mock.Anything, mock.Anything, 10).
			Return([]types.Place{row}, nil).Twice()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{first, second})
		require.Len(t, matched, 1)
		assert.Equal(t, row.ID, matched["Cafe Kitsune"].ID)
		require.Len(t, unmatched, 1)
		assert.Equal(t, "Café Kitsune", unmatched[0].Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("repository error degrades to unmatched", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		candidate := types.CandidatePlace{Name: "Blue Bottle Coffee", Latitude: 35.66, Longitude: 139.71}

		mockRepo.On("FindByNameLike", mock.Anything, mock.Anything, 10).
			Return(nil, errors.New("connection refused")).Once()

		matched, unmatched := matcher.Match(ctx, []types.CandidatePlace{candidate})
		assert.Empty(t, matched)
		assert.Len(t, unmatched, 1)
		mockRepo.AssertExpectations(t)
	})

	t.Run("no candidates", func(t *testing.T) {
		matcher, mockRepo := setupMatcherTest()
		matched, unmatched := matcher.Match(ctx, nil)
		assert.Empty(t, matched)
		assert.Empty(t, unmatched)
		mockRepo.AssertExpectations(t)
	})
}
