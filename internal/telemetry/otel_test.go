package telemetry

import (
	"context"
	"testing"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	cleanup, err := Init(context.Background(), "goblade", "test", "")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := cleanup(context.Background()); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestInitWithEndpoint(t *testing.T) {
	// The exporter connects lazily, so an unreachable endpoint is fine here.
	cleanup, err := Init(context.Background(), "goblade", "test", "127.0.0.1:1")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_ = cleanup(ctx)
}
