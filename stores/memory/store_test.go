package memory

import (
	"context"
	"testing"

	"artisan-canvas/stores/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, NewStore())
}

func TestStore_ValuesAreCopied(t *testing.T) {
	s := NewStore()
	val := []byte("abc")
	if err := s.Put(context.Background(), "k", val); err != nil {
		t.Fatal(err)
	}
	val[0] = 'z'

	got, err := s.Get(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "abc" {
		t.Errorf("stored value changed through caller's slice: %q", got)
	}
}
