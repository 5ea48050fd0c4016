package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDispatcherDeliversAndDrains(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: KindLogout})
	}
	d.Close()

	if got := d.Delivered(); got != 3 {
		t.Fatalf("expected 3 delivered, got %d", got)
	}
	for i := 0; i < 3; i++ {
		select {
		case ev := <-sink.Events():
			if ev.Timestamp.IsZero() {
				t.Fatal("expected timestamp to be filled")
			}
		case <-time.After(time.Second):
			t.Fatal("missing event")
		}
	}
}

func TestDispatcherDisabledIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher")
	}
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 || d.Delivered() != 0 {
		t.Fatal("nil dispatcher counters must be zero")
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	block := make(chan struct{})
	sink := SinkFunc(func(context.Context, Event) { <-block })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{EventType: KindLoginFailure})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected drops with a blocked sink")
	}
	close(block)
	d.Close()
	d.Emit(context.Background(), Event{})
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	NewJSONWriterSink(&buf).Emit(context.Background(), Event{EventType: KindLoginSuccess, Username: "admin", Success: true})

	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if got["event_type"] != KindLoginSuccess || got["username"] != "admin" || got["success"] != true {
		t.Fatalf("unexpected event %v", got)
	}
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	s := ZerologSink{Logger: zerolog.New(&buf)}
	s.Emit(context.Background(), Event{
		EventType: KindLoginFailure,
		Username:  "admin",
		Error:     "credential rejected",
		Metadata:  map[string]string{"path": "/auth/login"},
	})
	line := buf.String()
	for _, want := range []string{`"level":"warn"`, `"audit":"login_failure"`, `"error":"credential rejected"`, `"path":"/auth/login"`} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %s in %s", want, line)
		}
	}
}

func TestDispatcherBlockingEmitHonoursContext(t *testing.T) {
	block := make(chan struct{})
	sink := SinkFunc(func(context.Context, Event) { <-block })
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)

	// One event parks in the sink, one fills the buffer.
	d.Emit(context.Background(), Event{EventType: KindLogout})
	d.Emit(context.Background(), Event{EventType: KindLogout})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	for d.Dropped() == 0 && ctx.Err() == nil {
		d.Emit(ctx, Event{EventType: KindLogout})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected a cancelled emit to count as dropped")
	}

	close(block)
	d.Close()
	d.Close()
	before := d.Delivered()
	d.Emit(context.Background(), Event{EventType: KindLogout})
	if d.Delivered() != before {
		t.Fatal("emit after close must be ignored")
	}
}
