package settings

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	path := filepath.Join(t.TempDir(), "settings.db")
	st, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()
	if _, err := Seed(ctx, st); err != nil {
		t.Fatal(err)
	}

	m := NewManager(st, nil, nil)
	changed := make(chan Config, 4)
	m.OnChange(func(_, cur Config) { changed <- cur })

	w := NewWatcher(path, m, nil)
	w.debounce = 20 * time.Millisecond
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := st.Set(ctx, KeyEnabled, "true"); err != nil {
		t.Fatal(err)
	}

	select {
	case cur := <-changed:
		if !cur.Enabled {
			t.Fatalf("reloaded config not enabled")
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
