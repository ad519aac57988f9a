package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func capture(t *testing.T, verboseOn bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseOn)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	capture(t, false)
	if IsVerbose() {
		t.Error("expected verbose to be false")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}
}

func TestLevels_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("debug %s", "a")
	Info("info %d", 1)
	Warn("warn")
	Section("Channel")

	out := buf.String()
	for _, want := range []string{"[DEBUG] debug a", "[INFO] info 1", "[WARN] warn", "=== Channel ==="} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestLevels_WhenQuiet(t *testing.T) {
	buf := capture(t, false)

	Debug("x")
	Info("x")
	Warn("x")
	Section("x")
	With("document", "d1").Warn("x")

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestWith_Prefix(t *testing.T) {
	buf := capture(t, true)

	log := With("document", "d1").With("conn", "2")
	log.Debug("joined %s", "document:d1")
	log.Info("ready")
	log.Warn("lost")

	out := buf.String()
	for _, want := range []string{
		"[DEBUG] document=d1 conn=2 joined document:d1",
		"[INFO] document=d1 conn=2 ready",
		"[WARN] document=d1 conn=2 lost",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestWith_DoesNotMutateParent(t *testing.T) {
	buf := capture(t, true)

	parent := With("a", "1")
	_ = parent.With("b", "2")
	parent.Info("msg")

	if strings.Contains(buf.String(), "b=2") {
		t.Errorf("parent logger picked up child field: %q", buf.String())
	}
}
