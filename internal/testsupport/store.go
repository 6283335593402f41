package testsupport

import (
	"testing"

	"amp/internal/config"
	"amp/internal/store"
)

// MustOpenStore opens a state store for the given config and registers
// cleanup with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}
