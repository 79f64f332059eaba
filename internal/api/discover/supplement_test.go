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

	"github.com/FACorreiaa/go-place-discovery/internal/types"
)

func setupSupplementerTest() (*Supplementer, *MockPlaceRepository) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockRepo := new(MockPlaceRepository)
	supplementer := NewSupplementer(mockRepo, DefaultLexicon(), logger)
	return supplementer, mockRepo
}

func catalogRow(name string) types.Place {
	return types.Place{ID: uuid.New(), Name: name, CoverImage: "https://img.example/" + name}
}

func TestSupplementer_Supplement(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing needed", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		assert.Nil(t, supplementer.Supplement(ctx, "Rome", "cafe", nil, nil, 0))
		assert.Nil(t, supplementer.Supplement(ctx, "Rome", "cafe", nil, nil, -2))
		mockRepo.AssertExpectations(t)
	})

	t.Run("no city extracted", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		assert.Nil(t, supplementer.Supplement(ctx, "", "cafe", nil, nil, 5))
		mockRepo.AssertExpectations(t)
	})

	t.Run("no category goes straight to city-only pass", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		rows := []types.Place{catalogRow("Trevi Fountain"), catalogRow("Pantheon")}

		mockRepo.On("FindByCityWithCover", mock.Anything, []string{"Rome", "roma"}, 4).
			Return(rows, nil).Once()

		got := supplementer.Supplement(ctx, "Rome", "", nil, nil, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "Trevi Fountain", got[0].Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("primary category pass satisfies the target", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		rows := []types.Place{
			catalogRow("Sant'Eustachio"), catalogRow("Tazza d'Oro"),
			catalogRow("Roscioli Caffè"), catalogRow("Barnum Cafe"),
		}

		mockRepo.On("FindByCityAndCategory", mock.Anything, []string{"Rome", "roma"},
			[]string{"cafe", "coffee shop", "bakery"}, mock.Anything, 4).
			Return(rows, nil).Once()

		got := supplementer.Supplement(ctx, "Rome", "cafe", nil, nil, 2)
		assert.Len(t, got, 4)
		mockRepo.AssertExpectations(t)
	})

	t.Run("secondary keyword passes fill a short primary", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		primary := []types.Place{catalogRow("Sant'Eustachio")}
		secondary := []types.Place{
			catalogRow("Sant'Eustachio"), // dupe with the primary pass
			catalogRow("Tazza d'Oro"),
			catalogRow("Roscioli Caffè"),
			catalogRow("Barnum Cafe"),
		}

		mockRepo.On("FindByCityAndCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, 4).
			Return(primary, nil).Once()
		mockRepo.On("FindByNameKeywordInCity", mock.Anything, mock.Anything, "cafe", 4).
			Return(secondary, nil).Once()

		got := supplementer.Supplement(ctx, "Rome", "cafe", nil, nil, 2)
		require.Len(t, got, 4)
		names := make([]string, 0, len(got))
		for _, p := range got {
			names = append(names, p.Name)
		}
		assert.Equal(t, []string{"Sant'Eustachio", "Tazza d'Oro", "Roscioli Caffè", "Barnum Cafe"}, names)
		mockRepo.AssertExpectations(t)
	})

	t.Run("excluded ids and names never come back", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		excludedRow := catalogRow("Tazza d'Oro")
		rows := []types.Place{
			excludedRow,
			catalogRow("SANT'EUSTACHIO "), // excluded by folded name
			catalogRow("Barnum Cafe"),
		}

		mockRepo.On("FindByCityWithCover", mock.Anything, mock.Anything, mock.Anything).
			Return(rows, nil).Once()

		got := supplementer.Supplement(ctx, "Rome", "",
			[]uuid.UUID{excludedRow.ID}, []string{"Sant'Eustachio"}, 3)
		require.Len(t, got, 1)
		assert.Equal(t, "Barnum Cafe", got[0].Name)
		mockRepo.AssertExpectations(t)
	})

	t.Run("primary failure still tries the keyword passes", func(t *testing.T) {
		supplementer, mockRepo := setupSupplementerTest()
		rows := []types.Place{catalogRow("Tazza d'Oro"), catalogRow("Barnum Cafe")}

		mockRepo.On("FindByCityAndCategory", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("connection refused")).Once()
		mockRepo.On("FindByNameKeywordInCity", mock.Anything, mock.Anything, "cafe", mock.Anything).
			Return(rows, nil).Once()

		got := supplementer.Supplement(ctx, "Rome", "cafe", nil, nil, 1)
		assert.Len(t, got, 2)
		mockRepo.AssertExpectations(t)
	})
}
