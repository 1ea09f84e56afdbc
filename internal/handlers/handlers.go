package handlers

import (
	"time"

	"golang.org/x/time/rate"

	"quickopen/internal/database"
	"quickopen/internal/startup"
)

type Handlers struct {
	db        *database.Database
	reindex   *rate.Limiter
	startTime time.Time
}

// New creates the API handlers. Manual reindex requests are limited to
// config.ReindexRate per minute.
func New(db *database.Database, config *startup.Config) *Handlers {
	perMinute := config.ReindexRate
	if perMinute <= 0 {
		perMinute = 6
	}
	burst := int(perMinute)
	if burst < 1 {
		burst = 1
	}
	return &Handlers{
		db:        db,
		reindex:   rate.NewLimiter(rate.Limit(perMinute/60), burst),
		startTime: time.Now(),
	}
}
