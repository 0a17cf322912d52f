package testsupport

import (
	"testing"

	"radiocorpus/internal/config"
	"radiocorpus/internal/ledger"
)

// MustOpenLedger opens the progress ledger at the config's state path and
// closes it when the test ends.
func MustOpenLedger(t testing.TB, cfg *config.Config) *ledger.Ledger {
	t.Helper()

	l, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		t.Fatalf("ledger.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = l.Close()
	})
	return l
}
