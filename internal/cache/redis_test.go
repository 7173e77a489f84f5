package cache

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartcity-air/internal/models"
	"smartcity-air/internal/scenario"
)

var bucket = time.Date(2026, 10, 19, 14, 32, 0, 0, time.UTC)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), mr.Addr(), "", 0, Options{SnapshotTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisCache(context.Background(), addr, "", 0, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestSnapshot_MissThenHit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	f := scenario.Filters{Period: "1h", Zone: "nord", Pollutant: "NO2"}
	seed := f.SeedKey(bucket)

	_, err := c.GetSnapshot(ctx, seed)
	assert.ErrorIs(t, err, ErrNotFound)

	var calls int32
	compute := func() scenario.Snapshot {
		atomic.AddInt32(&calls, 1)
		return scenario.Compute(f, bucket)
	}

	first := c.SnapshotOrCompute(ctx, seed, compute)
	second := c.SnapshotOrCompute(ctx, seed, compute)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)
	assert.True(t, mr.Exists("snapshot:"+seed))
	assert.Equal(t, time.Minute, mr.TTL("snapshot:"+seed))

	mr.FastForward(2 * time.Minute)
	c.SnapshotOrCompute(ctx, seed, compute)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSnapshot_ConcurrentRequestsReturnSameValue(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	f := scenario.Filters{Zone: "industrie"}
	seed := f.SeedKey(bucket)
	want := scenario.Compute(f, bucket)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.SnapshotOrCompute(ctx, seed, func() scenario.Snapshot { return scenario.Compute(f, bucket) })
			assert.Equal(t, want.Series, got.Series)
		}()
	}
	wg.Wait()
}

func TestSnapshot_RedisDownStillComputes(t *testing.T) {
	c, mr := newTestCache(t)
	mr.Close()

	f := scenario.Filters{}
	snap := c.SnapshotOrCompute(context.Background(), f.SeedKey(bucket), func() scenario.Snapshot {
		return scenario.Compute(f, bucket)
	})
	assert.Len(t, snap.Series, 48)
}

func TestAlerts_ZoneAndGlobalFeeds(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		a := models.Alert{ID: fmt.Sprintf("ind-%d", i), Pollutant: "PM10", Value: float64(81 + i), Zone: "Zone Industrielle"}
		require.NoError(t, c.StoreAlert(ctx, "industrie", bucket.Add(time.Duration(i)*time.Second), a))
	}
	require.NoError(t, c.StoreAlert(ctx, "nord", bucket.Add(10*time.Second), models.Alert{ID: "nord-0", Pollutant: "PM25"}))

	ind, err := c.RecentAlerts(ctx, "industrie", 10)
	require.NoError(t, err)
	require.Len(t, ind, 3)
	assert.Equal(t, "ind-2", ind[0].ID)
	assert.Equal(t, 83.0, ind[0].Value)

	all, err := c.RecentAlerts(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "nord-0", all[0].ID)
	assert.Equal(t, "ind-2", all[1].ID)

	none, err := c.RecentAlerts(ctx, "centre", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAlerts_ExpiredEntriesSkipped(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreAlert(ctx, "centre", bucket, models.Alert{ID: "x"}))
	mr.Del("alert:x")

	alerts, err := c.RecentAlerts(ctx, "centre", 5)
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestReportArchive(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	pdf := bytes.Repeat([]byte("%PDF-1.3 stream "), 512)
	info := models.ReportInfo{ID: "r1", FileName: "rapport_centre-ville_pm25_20261019_1432.pdf", Pages: 2, Size: len(pdf), Created: bucket}
	require.NoError(t, c.StoreReport(ctx, info, pdf))

	stored, err := mr.Get("report:r1:pdf")
	require.NoError(t, err)
	assert.Less(t, len(stored), len(pdf))

	gotInfo, gotPDF, err := c.LoadReport(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, pdf, gotPDF)
	assert.Equal(t, info.FileName, gotInfo.FileName)
	assert.Equal(t, 2, gotInfo.Pages)

	_, _, err = c.LoadReport(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettings(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.LoadSettings(ctx, "env@smartcity.local")
	assert.ErrorIs(t, err, ErrNotFound)

	s := models.DefaultSettings()
	s.Thresholds.PM10 = 70
	s.PreferredView = "carte"
	require.NoError(t, c.SaveSettings(ctx, "env@smartcity.local", s))

	got, err := c.LoadSettings(ctx, "env@smartcity.local")
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestCounters(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	v, err := c.GetCounter(ctx, "reports")
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, c.IncrementCounter(ctx, "reports"))
	require.NoError(t, c.IncrementCounter(ctx, "reports"))
	v, err = c.GetCounter(ctx, "reports")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestPingAndStats(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, c.Ping(context.Background()))
	assert.Contains(t, c.GetStats(), "total_conns")

	mr.Close()
	assert.Error(t, c.Ping(context.Background()))
}
