package usecase_test

import (
	"context"
	"testing"
	"time"

	"merkado/internal/domain/model"
	"merkado/internal/domain/storehours"
	"merkado/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// 2025-03-03 は月曜
var mondayMorning = time.Date(2025, 3, 3, 10, 0, 0, 0, storehours.Location)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func f64(v float64) *float64 { return &v }

// HTTPErrorのステータスとメッセージを確かめる
func requireHTTPError(t *testing.T, err error, status int, msg string) {
	t.Helper()
	require.Error(t, err)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok, "expected HTTPError, got %v", err)
	require.Equal(t, status, he.Status)
	if msg != "" {
		require.Equal(t, msg, he.Message)
	}
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	requireHTTPError(t, err, status, "")
}

type EventPublisherMock struct {
	mock.Mock
}

func (m *EventPublisherMock) PublishOrderEvent(ctx context.Context, ev model.OrderEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func eventOfType(typ model.OrderEventType) interface{} {
	return mock.MatchedBy(func(ev model.OrderEvent) bool { return ev.Type == typ })
}

func newStoreUsecase(db *memDB, now time.Time) *usecase.StoreUsecase {
	return usecase.NewStoreUsecase(&memHours{db}, &memProfiles{db}, &memUsers{db}, fixedClock{now})
}
