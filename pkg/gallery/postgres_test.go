package gallery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestPostgresStoreIntegration runs against a real Postgres container.
// It requires Docker to be running.
func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	// testcontainers panics when the docker socket is missing
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("testcontainers panicked: %v", r)
			}
		}()
		_, err = testcontainers.NewDockerClientWithOpts(ctx)
		return
	}()
	if err != nil {
		t.Skipf("Docker not available: %v", err)
	}

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("follow_test"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start postgres container: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	store, err := NewPostgresStore(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to connect store: %v", err)
	}
	defer store.Close(ctx)

	t.Run("SaveAndLoad", func(t *testing.T) {
		g := New(
			Entry{Name: "bob", Descriptor: Descriptor{0.1, 0.2, 0.3}},
			Entry{Name: "alice", Descriptor: Descriptor{0.4, 0.5, 0.6}},
		)
		if err := store.Save(ctx, g); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		names := loaded.Names()
		if len(names) != 2 || names[0] != "bob" || names[1] != "alice" {
			t.Errorf("Expected enrolment order [bob alice], got %v", names)
		}
		d, _ := loaded.Lookup("alice")
		if len(d) != 3 || d[2] != 0.6 {
			t.Errorf("Unexpected alice descriptor: %v", d)
		}
	})

	t.Run("UpsertReplacesDescriptor", func(t *testing.T) {
		if err := store.Save(ctx, New(Entry{Name: "alice", Descriptor: Descriptor{9, 9, 9}})); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		d, _ := loaded.Lookup("alice")
		if d[0] != 9 {
			t.Errorf("Expected upserted descriptor, got %v", d)
		}
		if !loaded.Has("bob") {
			t.Error("Save must not remove identities missing from the snapshot")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := store.Delete(ctx, "bob"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if err := store.Delete(ctx, "nobody"); err != nil {
			t.Fatalf("Delete of unknown name failed: %v", err)
		}
		loaded, err := store.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded.Has("bob") {
			t.Error("Expected bob to be deleted")
		}
	})
}
