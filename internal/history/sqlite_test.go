package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity-air/internal/models"
)

var t0 = time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestInsertAndLatest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Latest(ctx, "centre")
	assert.ErrorIs(t, err, ErrNotFound)

	first, err := s.Insert(ctx, models.Reading{Zone: "centre", RecordedAt: t0, PM25: 31, Temperature: 18.5, Source: "IOT"})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	_, err = s.Insert(ctx, models.Reading{Zone: "nord", RecordedAt: t0.Add(time.Minute), PM25: 22})
	require.NoError(t, err)

	got, err := s.Latest(ctx, "centre")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, 31.0, got.PM25)
	assert.Equal(t, 18.5, got.Temperature)
	assert.True(t, t0.Equal(got.RecordedAt))

	latest, err := s.Latest(ctx, "all")
	require.NoError(t, err)
	assert.Equal(t, "nord", latest.Zone)
}

func TestSeries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i) * time.Minute)
		_, err := s.Insert(ctx, models.Reading{Zone: "industrie", RecordedAt: at, PM10: float64(70 + i)})
		require.NoError(t, err)
		_, err = s.Insert(ctx, models.Reading{Zone: "nord", RecordedAt: at.Add(10 * time.Second), PM10: float64(50 + i)})
		require.NoError(t, err)
	}

	pts, err := s.Series(ctx, "industrie", "PM10", t0.Add(2*time.Minute))
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, 72.0, pts[0].Value)
	assert.Equal(t, 74.0, pts[2].Value)

	avg, err := s.Series(ctx, "all", "PM10", t0)
	require.NoError(t, err)
	require.Len(t, avg, 5)
	assert.Equal(t, 60.0, avg[0].Value)
	assert.True(t, t0.Equal(avg[0].At))

	_, err = s.Series(ctx, "nord", "SO2", t0)
	assert.Error(t, err)
}

func TestCleanupAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := s.Insert(ctx, models.Reading{Zone: "centre", RecordedAt: t0.Add(time.Duration(i) * time.Hour)})
		require.NoError(t, err)
	}
	_, err := s.Insert(ctx, models.Reading{Zone: "nord", RecordedAt: t0})
	require.NoError(t, err)

	counts, err := s.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), counts["total"])
	assert.Equal(t, int64(4), counts["centre"])

	n, err := s.Cleanup(ctx, t0.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	counts, err = s.TableCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["total"])
	assert.Zero(t, counts["nord"])
}

func TestPing(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
