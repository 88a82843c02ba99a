package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_DeliversReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("registry:\n  max_entries: 50\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	w := NewWatcher(path, nil)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	// Give the watcher time to establish before mutating the file
	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("registry:\n  max_entries: 60\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case <-reloaded:
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback not invoked after file change")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	w := NewWatcher(path, nil)
	go func() {
		_ = w.Watch(ctx, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to write sibling: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("reload fired for a sibling file change")
	case <-time.After(700 * time.Millisecond):
	}
}

func TestWatcher_NoReloadAfterShutdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan struct{}, 1)
	w := NewWatcher(path, nil)
	// A long debounce keeps the armed timer pending across shutdown.
	w.debounce = 500 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func() error {
			select {
			case reloaded <- struct{}{}:
			default:
			}
			return nil
		})
	}()

	time.Sleep(200 * time.Millisecond)
	if err := os.WriteFile(path, []byte("server:\n  listen_address: 127.0.0.1:9821\n"), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	// Wait until the change event has armed the debounce timer.
	deadline := time.Now().Add(5 * time.Second)
	for {
		w.mu.Lock()
		armed := w.timer != nil
		w.mu.Unlock()
		if armed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounce timer never armed after file change")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Watch returned error: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("reload fired after Watch returned")
	case <-time.After(w.debounce + 300*time.Millisecond):
	}
}
