package db

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestAsyncWriterProcessesOperations(t *testing.T) {
	var processed int64
	writer := NewAsyncWriter(func(op WriteOperation) error {
		atomic.AddInt64(&processed, 1)
		return nil
	})

	writer.Start()
	defer writer.Stop()

	for i := 0; i < 10; i++ {
		if !writer.Write(i) {
			t.Fatalf("Write(%d) = false, want true", i)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for atomic.LoadInt64(&processed) < 10 {
		if time.Now().After(deadline) {
			t.Fatalf("processed = %d after 5s, want 10", atomic.LoadInt64(&processed))
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAsyncWriterDrainsOnStop(t *testing.T) {
	var processed int64
	var mu sync.Mutex
	block := true

	writer := NewAsyncWriterWithConfig(func(op WriteOperation) error {
		for {
			mu.Lock()
			b := block
			mu.Unlock()
			if !b {
				break
			}
			time.Sleep(time.Millisecond)
		}
		atomic.AddInt64(&processed, 1)
		return nil
	}, AsyncWriterConfig{ChannelCapacity: 20, DrainTimeout: time.Second})

	writer.Start()

	for i := 0; i < 5; i++ {
		writer.Write(i)
	}

	// Unblock the handler, then Stop must wait for every queued write.
	mu.Lock()
	block = false
	mu.Unlock()
	writer.Stop()

	if got := atomic.LoadInt64(&processed); got != 5 {
		t.Errorf("processed = %d after Stop, want 5", got)
	}
}

func TestAsyncWriterWriteFailsWhenFull(t *testing.T) {
	release := make(chan struct{})
	writer := NewAsyncWriterWithConfig(func(op WriteOperation) error {
		<-release
		return nil
	}, AsyncWriterConfig{ChannelCapacity: 1, DrainTimeout: time.Second})

	writer.Start()
	defer func() {
		close(release)
		writer.Stop()
	}()

	// First write may be picked up immediately; keep writing until the
	// buffer rejects one, which must happen with a blocked handler.
	deadline := time.Now().Add(2 * time.Second)
	for writer.Write("op") {
		if time.Now().After(deadline) {
			t.Fatal("Write never returned false with a blocked handler")
		}
	}
}

func TestAsyncWriterStartIsIdempotent(t *testing.T) {
	writer := NewAsyncWriter(func(op WriteOperation) error { return nil })

	writer.Start()
	writer.Start() // Second call must be a no-op, not a second goroutine
	if !writer.IsStarted() {
		t.Error("IsStarted() = false after Start")
	}

	writer.Stop()
}

func TestAsyncWriterStopWithTimeout(t *testing.T) {
	writer := NewAsyncWriter(func(op WriteOperation) error { return nil })
	writer.Start()

	if !writer.StopWithTimeout(time.Second) {
		t.Error("StopWithTimeout() = false for an idle writer")
	}
}

func TestAsyncWriterPending(t *testing.T) {
	writer := NewAsyncWriter(func(op WriteOperation) error { return nil })
	// Not started: writes queue but nothing drains them.
	writer.Write("a")
	writer.Write("b")

	if got := writer.Pending(); got != 2 {
		t.Errorf("Pending() = %d, want 2", got)
	}
}
