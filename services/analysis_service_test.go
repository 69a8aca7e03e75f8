package services

import (
	"context"
	"errors"
	"testing"

	"dutchthrift_server/database/memstore"
	"dutchthrift_server/lib"
	"dutchthrift_server/structs"
	"dutchthrift_server/structs/tables"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAnalyzer struct {
	mock.Mock
}

func (m *mockAnalyzer) Analyze(ctx context.Context, imageBase64 string) (*structs.AnalysisResult, error) {
	args := m.Called(imageBase64)
	result, _ := args.Get(0).(*structs.AnalysisResult)
	return result, args.Error(1)
}

func submitWithImage(t *testing.T, sm *ServiceManager, image string) uuid.UUID {
	t.Helper()
	req := intakeRequest("jane@example.com", "Lamp")
	req.Items[0].ImageBase64 = image
	result, err := sm.IntakeService.Submit(context.Background(), req)
	require.NoError(t, err)
	return *result.Items[0].Id
}

func TestAnalyzeItemSuccess(t *testing.T) {
	ctx := context.Background()
	analyzer := &mockAnalyzer{}
	sm := newTestServices(t, nil, analyzer)
	id := submitWithImage(t, sm, "aGVsbG8=")

	analyzer.On("Analyze", "aGVsbG8=").Return(&structs.AnalysisResult{
		ProductType: "table lamp",
		Brand:       "Philips",
		Condition:   "good",
		Confidence:  0.82,
	}, nil)

	analysis, err := sm.AnalysisService.AnalyzeItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "table lamp", analysis.ProductType)
	assert.Equal(t, []string{}, analysis.Features)
	assert.Equal(t, "Philips", analysis.Raw["brand"])

	item, err := sm.ItemService.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusPricing, item.Status)
	require.NotNil(t, item.Analysis)
	assert.InDelta(t, 0.82, item.Analysis.Confidence, 1e-9)
	analyzer.AssertExpectations(t)
}

func TestAnalyzeItemFailureRestoresStatus(t *testing.T) {
	ctx := context.Background()
	analyzer := &mockAnalyzer{}
	sm := newTestServices(t, nil, analyzer)
	id := submitWithImage(t, sm, "aGVsbG8=")

	_, err := sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusReceived)
	require.NoError(t, err)

	analyzer.On("Analyze", mock.Anything).Return(nil, errors.New("upstream 500"))

	_, err = sm.AnalysisService.AnalyzeItem(ctx, id)
	assert.ErrorIs(t, err, lib.ErrAnalysisFailed)
	assert.ErrorContains(t, err, "upstream 500")

	item, err := sm.ItemService.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusReceived, item.Status)
	assert.Nil(t, item.Analysis)
}

func TestAnalyzeItemPreconditions(t *testing.T) {
	ctx := context.Background()

	t.Run("no analyzer", func(t *testing.T) {
		sm := newTestServices(t, nil, nil)
		_, err := sm.AnalysisService.AnalyzeItem(ctx, uuid.New())
		assert.ErrorIs(t, err, lib.ErrAnalysisUnavailable)
	})

	t.Run("unknown item", func(t *testing.T) {
		sm := newTestServices(t, nil, &mockAnalyzer{})
		_, err := sm.AnalysisService.AnalyzeItem(ctx, uuid.New())
		assert.ErrorIs(t, err, lib.ErrNotFound)
	})

	t.Run("missing image", func(t *testing.T) {
		sm := newTestServices(t, nil, &mockAnalyzer{})
		id := submitWithImage(t, sm, "")
		_, err := sm.AnalysisService.AnalyzeItem(ctx, id)
		assert.ErrorIs(t, err, lib.ErrMissingImage)
	})

	t.Run("wrong status", func(t *testing.T) {
		analyzer := &mockAnalyzer{}
		sm := newTestServices(t, nil, analyzer)
		id := submitWithImage(t, sm, "aGVsbG8=")
		_, err := sm.ItemService.UpdateStatus(ctx, id, tables.ItemStatusRejected)
		require.NoError(t, err)

		_, err = sm.AnalysisService.AnalyzeItem(ctx, id)
		assert.ErrorIs(t, err, lib.ErrInvalidStatusTransition)
		analyzer.AssertNotCalled(t, "Analyze", mock.Anything)
	})
}

func TestAnalyzeItemStoreFailureRestoresStatus(t *testing.T) {
	ctx := context.Background()
	store := memstore.New(memstore.WithFault(func(op string, _ any) error {
		if op == "UpsertAnalysis" {
			return errors.New("disk full")
		}
		return nil
	}))
	analyzer := &mockAnalyzer{}
	sm := newTestServices(t, store, analyzer)
	id := submitWithImage(t, sm, "aGVsbG8=")

	analyzer.On("Analyze", "aGVsbG8=").Return(&structs.AnalysisResult{ProductType: "table lamp", Confidence: 0.5}, nil)

	_, err := sm.AnalysisService.AnalyzeItem(ctx, id)
	require.ErrorContains(t, err, "disk full")
	assert.NotErrorIs(t, err, lib.ErrAnalysisFailed)

	item, err := sm.ItemService.GetItem(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, tables.ItemStatusPending, item.Status)
	assert.Nil(t, item.Analysis)

	// the item can be analysed again once storage recovers
	assert.True(t, CanTransitionItem(item.Status, tables.ItemStatusAnalyzing))
	analyzer.AssertExpectations(t)
}
