package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRunsEveryJob(t *testing.T) {
	p := New(4, nil)
	defer p.Close()

	var n atomic.Int64
	for i := 0; i < 100; i++ {
		p.Submit(func() { n.Add(1) }, nil)
	}
	p.Wait()
	if n.Load() != 100 {
		t.Fatalf("expected 100 jobs to run, got %d", n.Load())
	}
}

func TestPoolRecoversPanics(t *testing.T) {
	buf := &bytes.Buffer{}
	var mu sync.Mutex
	log := slog.New(slog.NewTextHandler(&lockedWriter{w: buf, mu: &mu}, nil))

	p := New(2, log)
	defer p.Close()

	var recovered atomic.Value
	p.Submit(func() { panic("actor exploded") }, func(v any) { recovered.Store(v) })
	var ran atomic.Bool
	p.Submit(func() { ran.Store(true) }, nil)
	p.Wait()

	if recovered.Load() != "actor exploded" {
		t.Fatalf("expected the panic value to be passed on, got %v", recovered.Load())
	}
	if !ran.Load() {
		t.Fatalf("expected the pool to keep running after a panic")
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(buf.String(), "recovered panic in worker") {
		t.Fatalf("expected the panic to be logged, got %q", buf.String())
	}
}

type lockedWriter struct {
	w  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}
