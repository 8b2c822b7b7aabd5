package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": newTestSQLiteStore(t),
	}
}

func day(s string) time.Time {
	d, _ := time.Parse("2006-01-02", s)
	return d
}

func TestUpsert_DedupesOnKey(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := []models.Record{
				{Query: "webpay", Page: "https://a.cl/", Date: day("2026-01-01"), Device: "MOBILE", Country: "chl", Clicks: 3, Impressions: 30, CTR: 0.1, Position: 2},
				{Query: "webpay", Page: "https://a.cl/", Date: day("2026-01-02"), Device: "MOBILE", Country: "chl", Clicks: 1, Impressions: 10, CTR: 0.1, Position: 3},
			}
			n, err := st.Upsert(ctx, first)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			again := []models.Record{{Query: "webpay", Page: "https://a.cl/", Date: day("2026-01-01"), Device: "MOBILE", Country: "chl", Clicks: 7, Impressions: 70, CTR: 0.1, Position: 2}}
			n, err = st.Upsert(ctx, again)
			require.NoError(t, err)
			assert.Equal(t, 0, n)

			tbl, err := st.Table(ctx)
			require.NoError(t, err)
			require.Len(t, tbl.Records, 2)
			assert.Equal(t, 7, tbl.Records[0].Clicks)
			assert.True(t, tbl.Has(models.ColPage))
			assert.NoError(t, tbl.Require(models.MetricColumns...))
		})
	}
}

func TestUpsert_ClampsNegatives(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			_, err := st.Upsert(ctx, []models.Record{{Query: "x", Date: day("2026-01-01"), Clicks: -4, Impressions: -1, Position: -2}})
			require.NoError(t, err)
			tbl, err := st.Table(ctx)
			require.NoError(t, err)
			require.Len(t, tbl.Records, 1)
			assert.Equal(t, 0, tbl.Records[0].Clicks)
			assert.Equal(t, 0, tbl.Records[0].Impressions)
			assert.Equal(t, 0.0, tbl.Records[0].Position)
		})
	}
}

func TestQuery_InclusiveRange(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var recs []models.Record
			for _, d := range []string{"2026-01-01", "2026-01-02", "2026-01-03", "2026-01-04"} {
				recs = append(recs, models.Record{Query: "q", Date: day(d), Clicks: 1})
			}
			_, err := st.Upsert(ctx, recs)
			require.NoError(t, err)

			got, err := st.Query(ctx, day("2026-01-02"), day("2026-01-03"))
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, day("2026-01-02"), got[0].Date)
			assert.Equal(t, day("2026-01-03"), got[1].Date)

			none, err := st.Query(ctx, day("2025-01-01"), day("2025-01-31"))
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestUpsert_Empty(t *testing.T) {
	for name, st := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := st.Upsert(context.Background(), nil)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	st := NewMemoryStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = st.Upsert(ctx, []models.Record{{Query: "q", Date: day("2026-01-01").AddDate(0, 0, i), Clicks: i}})
			_, _ = st.Table(ctx)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 8, st.Len())
}
