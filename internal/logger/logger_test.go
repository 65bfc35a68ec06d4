package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, tc := range []struct{ json, debug bool }{{false, false}, {true, false}, {false, true}, {true, true}} {
		log, err := New(tc.json, tc.debug)
		if err != nil {
			t.Fatalf("New(%v, %v): %v", tc.json, tc.debug, err)
		}
		if got := log.Core().Enabled(zapcore.DebugLevel); got != tc.debug {
			t.Fatalf("New(%v, %v): debug enabled = %v", tc.json, tc.debug, got)
		}
	}
}
