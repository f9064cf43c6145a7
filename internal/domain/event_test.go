package domain

import (
	"context"
	"testing"
)

func TestGridEvent_Context(t *testing.T) {
	ctx, ev := NewContextWithEvent(context.Background())
	if EventFromContext(ctx) != ev {
		t.Fatal("expected the same collector back")
	}

	EventFromContext(ctx).RecordIngest("schema_changed", 12, 1)
	EventFromContext(ctx).RecordEdit("resize", true)
	if ev.Reset != "schema_changed" || ev.Rows != 12 || ev.Malformed != 1 {
		t.Errorf("ingest not recorded: %+v", ev)
	}
	if ev.Edit != "resize" || !ev.Applied {
		t.Errorf("edit not recorded: %+v", ev)
	}
}

func TestGridEvent_NilSafe(t *testing.T) {
	ev := EventFromContext(context.Background())
	if ev != nil {
		t.Fatal("expected nil without a collector")
	}
	ev.RecordIngest("initial", 1, 0)
	ev.RecordEdit("reorder", false)
}

func TestEnvelopeError(t *testing.T) {
	err := NewEnvelopeError("results", nil)
	if err.Error() != "invalid result envelope: results" {
		t.Errorf("Error() = %q", err.Error())
	}
}
