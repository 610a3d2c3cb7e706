package session

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"windowresizer/internal/testutil"
)

func TestWithTriggerAssignsCorrelationID(t *testing.T) {
	a := WithTrigger(context.Background(), "hotkey")
	b := WithTrigger(context.Background(), "hotkey")
	if TriggerID(a) == "" || TriggerID(a) == TriggerID(b) {
		t.Fatalf("trigger ids = %q, %q; want distinct non-empty", TriggerID(a), TriggerID(b))
	}
	if TriggerID(context.Background()) != "" {
		t.Fatal("background context should carry no trigger id")
	}
}

func TestTriggerLoggerCarriesID(t *testing.T) {
	buf := testutil.CaptureLogBuffer(t, slog.LevelDebug)

	ctx := WithTrigger(context.Background(), "ipc")
	loggerFrom(ctx).Info("hello")

	out := buf.String()
	if !strings.Contains(out, "trigger_id="+TriggerID(ctx)) || !strings.Contains(out, "source=ipc") {
		t.Fatalf("log output missing correlation attributes: %s", out)
	}
}
