// Package store persists extracted search analytics rows keyed by
// date, query, page, device and country.
package store

import (
	"context"
	"time"

	"github.com/AngelCh415/GSC_GO/internal/models"
)

// Store is implemented by MemoryStore and SQLiteStore. Implementations are
// safe for concurrent use.
type Store interface {
	// Upsert writes records, replacing any stored row with the same key, and
	// reports how many keys were new.
	Upsert(ctx context.Context, records []models.Record) (int, error)
	// Table returns every stored record in key order.
	Table(ctx context.Context) (models.Table, error)
	// Query returns the records dated within [from, to], both inclusive.
	Query(ctx context.Context, from, to time.Time) ([]models.Record, error)
	Close() error
}

// Columns lists what a stored table always carries.
var Columns = []string{
	models.ColQuery, models.ColPage, models.ColDate, models.ColDevice, models.ColCountry,
	models.ColClicks, models.ColImpressions, models.ColCTR, models.ColPosition,
}

func clean(r models.Record) models.Record {
	r.Date = models.Day(r.Date)
	r.Clicks = max0(r.Clicks)
	r.Impressions = max0(r.Impressions)
	r.CTR = maxf(r.CTR)
	r.Position = maxf(r.Position)
	return r
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
