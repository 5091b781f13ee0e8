package sqlite

import (
	"path/filepath"
	"testing"

	"artisan-canvas/stores/storetest"
)

func TestStore(t *testing.T) {
	s, err := NewStore(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	storetest.Run(t, s)
}

func TestStore_InMemory(t *testing.T) {
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })

	storetest.Run(t, s)
}
