package blobstore

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrInjected is the error of a Fault without its own Err.
var ErrInjected = errors.New("blobstore: injected fault")

// Fault defines specific failure behavior.
type Fault struct {
	// ReadFrom and ReadTo fail reads overlapping [ReadFrom, ReadTo).
	// Disabled when ReadTo <= ReadFrom.
	ReadFrom int64
	ReadTo   int64
	// FailAfterBytes fails writes once this many bytes were written to the
	// blob. -1 disables it.
	FailAfterBytes int64
	FailOnSync     bool
	FailOnClose    bool
	FailOnOpen     bool
	Err            error
}

func (f Fault) err() error {
	if f.Err != nil {
		return f.Err
	}
	return ErrInjected
}

// FaultyStore wraps a BlobStore and injects errors into the blobs whose
// names match a rule. Its blobs never expose Mappable, so every read goes
// through ReadAt.
type FaultyStore struct {
	BlobStore

	mu    sync.Mutex
	rules map[string]Fault
	reads map[string]int
}

// NewFaultyStore creates a new FaultyStore wrapping inner.
func NewFaultyStore(inner BlobStore) *FaultyStore {
	return &FaultyStore{
		BlobStore: inner,
		rules:     make(map[string]Fault),
		reads:     make(map[string]int),
	}
}

// AddRule adds a fault for names containing pattern.
func (s *FaultyStore) AddRule(pattern string, fault Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[pattern] = fault
}

// FailedReads returns the number of reads failed for blobs matching pattern.
func (s *FaultyStore) FailedReads(pattern string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads[pattern]
}

func (s *FaultyStore) fault(name string) (string, Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	best := ""
	fault := Fault{FailAfterBytes: -1}
	// The longest matching pattern wins.
	for pattern, rule := range s.rules {
		if strings.Contains(name, pattern) && len(pattern) >= len(best) {
			best, fault = pattern, rule
		}
	}
	return best, fault
}

func (s *FaultyStore) Open(ctx context.Context, name string) (Blob, error) {
	pattern, fault := s.fault(name)
	if fault.FailOnOpen {
		return nil, fault.err()
	}
	b, err := s.BlobStore.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &faultyBlob{Blob: b, store: s, pattern: pattern, fault: fault}, nil
}

func (s *FaultyStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	_, fault := s.fault(name)
	if fault.FailOnOpen {
		return nil, fault.err()
	}
	w, err := s.BlobStore.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	return &faultyWritableBlob{WritableBlob: w, fault: fault}, nil
}

func (s *FaultyStore) Put(ctx context.Context, name string, data []byte) error {
	_, fault := s.fault(name)
	if fault.FailAfterBytes >= 0 && int64(len(data)) > fault.FailAfterBytes {
		return fault.err()
	}
	return s.BlobStore.Put(ctx, name, data)
}

type faultyBlob struct {
	Blob
	store   *FaultyStore
	pattern string
	fault   Fault
}

func (b *faultyBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if b.fault.ReadTo > b.fault.ReadFrom && off < b.fault.ReadTo && off+int64(len(p)) > b.fault.ReadFrom {
		b.store.mu.Lock()
		b.store.reads[b.pattern]++
		b.store.mu.Unlock()
		return 0, b.fault.err()
	}
	return b.Blob.ReadAt(ctx, p, off)
}

func (b *faultyBlob) Close() error {
	if b.fault.FailOnClose {
		_ = b.Blob.Close()
		return b.fault.err()
	}
	return b.Blob.Close()
}

type faultyWritableBlob struct {
	WritableBlob
	fault   Fault
	written int64
}

func (w *faultyWritableBlob) Write(p []byte) (int, error) {
	if w.fault.FailAfterBytes >= 0 && w.written+int64(len(p)) > w.fault.FailAfterBytes {
		return 0, w.fault.err()
	}
	n, err := w.WritableBlob.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *faultyWritableBlob) Sync() error {
	if w.fault.FailOnSync {
		return w.fault.err()
	}
	return w.WritableBlob.Sync()
}

func (w *faultyWritableBlob) Close() error {
	if w.fault.FailOnClose {
		_ = w.WritableBlob.Close()
		return w.fault.err()
	}
	return w.WritableBlob.Close()
}
