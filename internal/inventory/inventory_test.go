package inventory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/erazemk/blagajna/internal/db"
	"github.com/erazemk/blagajna/internal/store"
	"github.com/erazemk/blagajna/internal/telemetry"
)

// fakeImages records calls and returns refs in the qr_codes/<id>_<name>.png form.
type fakeImages struct {
	mu      sync.Mutex
	err     error
	calls   int
	removed []string
}

func (f *fakeImages) Generate(_ context.Context, id int64, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("qr_codes/%d_%s.png", id, name), nil
}

func (f *fakeImages) Remove(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, ref)
	return nil
}

type env struct {
	store   *store.Store
	images  *fakeImages
	metrics *telemetry.Metrics
	catalog *Catalog
	ledger  *Ledger
	reports *Reports
}

func newEnv(t *testing.T, logger *zap.Logger) *env {
	t.Helper()
	if logger == nil {
		logger = zaptest.NewLogger(t)
	}

	s := store.New(db.NewTestDB(t), store.Options{})
	images := &fakeImages{}
	metrics := telemetry.NewMetrics(prometheus.NewRegistry())

	return &env{
		store:   s,
		images:  images,
		metrics: metrics,
		catalog: NewCatalog(s, images, logger, metrics),
		ledger:  NewLedger(s, logger, metrics),
		reports: NewReports(s, logger, metrics, ReportOptions{
			LowStockThreshold: DefaultLowStockThreshold,
			TopLimit:          DefaultTopLimit,
		}),
	}
}
