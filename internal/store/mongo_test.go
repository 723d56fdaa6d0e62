package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

// openMongo connects to CONTACTBOOK_MONGO_URI or skips the test.
func openMongo(t *testing.T) *Mongo {
	t.Helper()
	uri := os.Getenv("CONTACTBOOK_MONGO_URI")
	if uri == "" {
		t.Skip("CONTACTBOOK_MONGO_URI not set")
	}

	// a fresh collection per test keeps runs independent
	m, err := OpenMongo(context.Background(), uri, "contactbook_test", "contacts_"+uuid.NewString())
	if err != nil {
		t.Fatalf("OpenMongo() error = %v", err)
	}
	t.Cleanup(func() {
		_ = m.coll.Drop(context.Background())
		_ = m.Close()
	})
	return m
}

func TestMongo_RoundTripKeepsOrder(t *testing.T) {
	ctx := context.Background()
	m := openMongo(t)

	want := []Record{
		{Name: "Zed", Phone: "3", Email: "z@z"},
		{Name: "Amy", Phone: "1", Email: "a@a"},
	}
	if err := m.Save(ctx, want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}

	if err := m.Save(ctx, nil); err != nil {
		t.Fatalf("Save(nil) error = %v", err)
	}
	got, _ = m.Load(ctx)
	if len(got) != 0 {
		t.Errorf("Load() after clear = %v items, want 0", len(got))
	}
}
