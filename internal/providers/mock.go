package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockClient is a VisionClient for testing.
type MockClient struct {
	// Configurable behavior
	Reply      string
	Err        error
	Latency    time.Duration
	ShouldFail bool

	// State
	calls atomic.Int64
}

// NewMockClient creates a mock client that replies with a minimal valid
// report object.
func NewMockClient() *MockClient {
	return &MockClient{
		Reply: `{"summary": ["mock analysis"]}`,
	}
}

// Name returns the client identifier.
func (c *MockClient) Name() string { return MockName }

// Calls returns how many Analyze calls the mock has received.
func (c *MockClient) Calls() int64 { return c.calls.Load() }

// Analyze returns the configured reply or failure.
func (c *MockClient) Analyze(ctx context.Context, image []byte, mimeType string) (string, error) {
	c.calls.Add(1)

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if c.Err != nil {
		return "", c.Err
	}
	if c.ShouldFail {
		return "", errors.New("mock client configured to fail")
	}
	return c.Reply, nil
}
