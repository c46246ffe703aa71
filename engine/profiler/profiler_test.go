package profiler

import (
	"bytes"
	"log"
	"strings"
	"testing"
	"time"
)

func TestTickReportsOncePerInterval(t *testing.T) {
	var out bytes.Buffer
	now := time.Unix(1000, 0)
	p := NewProfiler(
		WithLogger(log.New(&out, "", 0)),
		WithInterval(time.Second),
		WithClock(func() time.Time { return now }),
	)

	for i := 0; i < 49; i++ {
		now = now.Add(20 * time.Millisecond)
		if p.Tick() {
			t.Fatalf("reported early at tick %d", i)
		}
	}
	now = now.Add(20 * time.Millisecond)
	if !p.Tick() {
		t.Fatal("no report after one second")
	}
	if fps := p.Last().FPS; fps < 49.5 || fps > 50.5 {
		t.Fatalf("fps = %.2f, want 50", fps)
	}
	line := out.String()
	if !strings.Contains(line, "FPS: 50.00") || !strings.Contains(line, "Heap: ") {
		t.Fatalf("report = %q", line)
	}
	if strings.Count(line, "\n") != 1 {
		t.Fatalf("expected one report line, got %q", line)
	}
}
