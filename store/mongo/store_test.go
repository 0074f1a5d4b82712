//go:build integration

package mongo_test

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	mongomodule "github.com/testcontainers/testcontainers-go/modules/mongodb"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	mongoopts "go.mongodb.org/mongo-driver/v2/mongo/options"

	mongostore "github.com/xraph/pacer/store/mongo"
)

// setupTestStore starts a MongoDB container and returns a migrated Store.
func setupTestStore(t *testing.T) *mongostore.Store {
	t.Helper()

	ctx := context.Background()

	container, err := mongomodule.Run(ctx, "mongo:7")
	if err != nil {
		t.Fatalf("start mongo container: %v", err)
	}
	testcontainers.CleanupContainer(t, container)

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	client, err := mongod.Connect(mongoopts.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	s := mongostore.New(client.Database("pacer_test"))
	if migErr := s.Migrate(ctx); migErr != nil {
		t.Fatalf("migrate: %v", migErr)
	}
	return s
}

func TestStore_Ping(t *testing.T) {
	s := setupTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping failed: %v", err)
	}
}

func TestIncrementStartsWindow(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.Increment(ctx, "start", time.Minute)
	if err != nil {
		t.Fatalf("increment: %v", err)
	}
	if n != 1 {
		t.Fatalf("first increment = %d, want 1", n)
	}

	ttl, err := s.TTL(ctx, "start")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("ttl = %v, want in (0, 1m]", ttl)
	}
}

func TestIncrementPreservesWindowExpiry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "preserve", time.Minute); err != nil {
		t.Fatal(err)
	}
	first, err := s.TTL(ctx, "preserve")
	if err != nil {
		t.Fatal(err)
	}

	n, err := s.Increment(ctx, "preserve", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("second increment = %d, want 2", n)
	}

	// The second increment's ttl argument must not stretch the window.
	second, err := s.TTL(ctx, "preserve")
	if err != nil {
		t.Fatal(err)
	}
	if second > first {
		t.Fatalf("ttl grew from %v to %v after second increment", first, second)
	}
}

func TestCountAbsentKey(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	n, err := s.Count(ctx, "missing")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("count = %d, want 0", n)
	}

	ttl, err := s.TTL(ctx, "missing")
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != 0 {
		t.Fatalf("ttl = %v, want 0", ttl)
	}
}

func TestWindowRestartAfterExpiry(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for range 3 {
		if _, err := s.Increment(ctx, "restart", 100*time.Millisecond); err != nil {
			t.Fatal(err)
		}
	}

	time.Sleep(200 * time.Millisecond)

	// The TTL monitor may not have removed the document yet; reads must
	// treat it as absent regardless.
	n, err := s.Count(ctx, "restart")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count after expiry = %d, want 0", n)
	}

	n, err = s.Increment(ctx, "restart", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("increment after expiry = %d, want 1 (fresh window)", n)
	}
}

func TestReset(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, "reset", time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx, "reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}

	n, err := s.Count(ctx, "reset")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("count after reset = %d, want 0", n)
	}

	// Resetting an absent key is not an error.
	if err := s.Reset(ctx, "never-existed"); err != nil {
		t.Fatalf("reset absent key: %v", err)
	}
}
