package papers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWatcherSignalsOnPDFChange(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	require.NoError(t, w.Watch(ctx, dir, func() {
		select {
		case changed <- struct{}{}:
		default:
		}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.pdf"), []byte("%PDF"), 0o644))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("expected change notification for new pdf")
	}
}

func TestWatcherIgnoresNonPDF(t *testing.T) {
	dir := t.TempDir()

	w, err := NewWatcher(zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	require.NoError(t, w.Watch(ctx, dir, func() {
		changed <- struct{}{}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	select {
	case <-changed:
		t.Fatal("txt file should not trigger a notification")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w, err := NewWatcher(zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(context.Background(), filepath.Join(t.TempDir(), "absent"), func() {})
	require.Error(t, err)
}
