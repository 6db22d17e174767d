package index

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OSAS/mw2md/internal/storage"
)

// eventually polls cond until it returns true or the timeout expires.
func eventually(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestWatch_SyncsOnChange(t *testing.T) {
	db := testDB(t)
	root := t.TempDir()
	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var syncs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, db, store, root, 50*time.Millisecond, quietLogger(), func(SyncStats) { syncs.Add(1) })
	}()
	time.Sleep(100 * time.Millisecond)

	if err := store.Write("guides/setup.html.md", []byte(setupDoc)); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, func() bool {
		_, err := db.GetDocument("guides/setup.html.md")
		return err == nil
	})

	if err := store.Delete("guides/setup.html.md"); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, func() bool {
		sums, _ := db.AllChecksums()
		return len(sums) == 0
	})
	if syncs.Load() < 2 {
		t.Errorf("callback ran %d times, want >= 2", syncs.Load())
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch: %v", err)
	}
}
