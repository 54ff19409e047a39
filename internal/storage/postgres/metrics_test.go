package postgres

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"fulfillment-mutation-lab/internal/observability"
	"fulfillment-mutation-lab/internal/storage"
)

func TestObserveSkipsNotFound(t *testing.T) {
	errCounter := observability.DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "observe_test")

	observe("observe_test", time.Now(), nil)
	observe("observe_test", time.Now(), pgx.ErrNoRows)
	observe("observe_test", time.Now(), storage.ErrNotFound)
	if got := testutil.ToFloat64(errCounter); got != 0 {
		t.Errorf("not-found counted as query error: %v", got)
	}

	observe("observe_test", time.Now(), errors.New("connection reset"))
	if got := testutil.ToFloat64(errCounter); got != 1 {
		t.Errorf("expected 1 query error, got %v", got)
	}
}
