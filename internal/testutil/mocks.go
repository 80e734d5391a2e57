package testutil

import (
	"context"
	"sync"
)

// --- Cache store mock ---

// MemoryStore is an in-memory implementation of cache.Store.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte

	GetFunc func(ctx context.Context, key string) ([]byte, bool, error)
	SetFunc func(ctx context.Context, key string, value []byte) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.GetFunc != nil {
		return s.GetFunc(ctx, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return val, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	if s.SetFunc != nil {
		return s.SetFunc(ctx, key, value)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete removes a key. Test helper for simulating an inconsistent cache.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of stored keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// --- Task producer mock ---

// EnqueuedJob records one call to the mock producer.
type EnqueuedJob struct {
	Kind          string
	TransactionID string
	PayRequest    map[string]any
	IssuerKey     string
}

// MockProducer is a mock implementation of tasks.Producer.
type MockProducer struct {
	mu   sync.Mutex
	jobs []EnqueuedJob

	EnqueuePaymentNotifyFunc     func(ctx context.Context, transactionID string) error
	EnqueueFakePaymentNotifyFunc func(ctx context.Context, transactionID string, payRequest map[string]any, issuerKey string) error
}

func NewMockProducer() *MockProducer {
	return &MockProducer{}
}

func (p *MockProducer) EnqueuePaymentNotify(ctx context.Context, transactionID string) error {
	if p.EnqueuePaymentNotifyFunc != nil {
		return p.EnqueuePaymentNotifyFunc(ctx, transactionID)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, EnqueuedJob{Kind: "payment-notify", TransactionID: transactionID})
	return nil
}

func (p *MockProducer) EnqueueFakePaymentNotify(ctx context.Context, transactionID string, payRequest map[string]any, issuerKey string) error {
	if p.EnqueueFakePaymentNotifyFunc != nil {
		return p.EnqueueFakePaymentNotifyFunc(ctx, transactionID, payRequest, issuerKey)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, EnqueuedJob{
		Kind:          "fake-payment-notify",
		TransactionID: transactionID,
		PayRequest:    payRequest,
		IssuerKey:     issuerKey,
	})
	return nil
}

// Jobs returns a copy of the recorded jobs.
func (p *MockProducer) Jobs() []EnqueuedJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EnqueuedJob, len(p.jobs))
	copy(out, p.jobs)
	return out
}
