package testutil

import (
	"context"

	"github.com/C-Plusone/fund-app/internal/source"
)

// MockSource is a mock implementation of the Source interface for testing
type MockSource struct {
	FetchFunc func(ctx context.Context, code string) (source.Snapshot, error)
	NameFunc  func() string
}

// Fetch implements the Source interface
func (m *MockSource) Fetch(ctx context.Context, code string) (source.Snapshot, error) {
	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, code)
	}
	return source.Snapshot{}, nil
}

// Name implements the Source interface
func (m *MockSource) Name() string {
	if m.NameFunc != nil {
		return m.NameFunc()
	}
	return "mock"
}

// NewMockSource creates a simple mock source with a fixed snapshot and error
func NewMockSource(name string, snapshot source.Snapshot, err error) source.Source {
	return &MockSource{
		FetchFunc: func(ctx context.Context, code string) (source.Snapshot, error) {
			return snapshot, err
		},
		NameFunc: func() string {
			return name
		},
	}
}
