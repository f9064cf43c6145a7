package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		env     string
		level   string
		wantErr bool
		enabled zapcore.Level
	}{
		{"prod", "", false, zapcore.InfoLevel},
		{"local", "", false, zapcore.DebugLevel},
		{"dev", "warn", false, zapcore.WarnLevel},
		{"docker", "bogus", true, 0},
		{"staging", "", true, 0},
	}
	for _, tc := range tests {
		t.Run(tc.env+"/"+tc.level, func(t *testing.T) {
			l, err := NewLogger(tc.env, tc.level)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tc.enabled) {
				t.Errorf("level %s should be enabled", tc.enabled)
			}
			if l.Core().Enabled(tc.enabled - 1) {
				t.Errorf("level %s should be disabled", tc.enabled-1)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	base := zap.NewExample()
	if FromContext(context.Background()) == nil {
		t.Fatal("FromContext must never return nil")
	}
	if got := FromContextOr(context.Background(), base); got != base {
		t.Error("expected fallback logger outside a request")
	}

	req := zap.NewExample().Named("req")
	ctx := ContextWithLogger(context.Background(), req)
	if got := FromContextOr(ctx, base); got != req {
		t.Error("expected request logger from context")
	}
	if got := FromContextOr(context.Background(), nil); got == nil {
		t.Error("nil fallback should yield a no-op logger")
	}
}
