package actions

import (
	"io"
	"os"
	"strings"
	"testing"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	orig := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()
	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(data)
}

func TestDetect(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "true")
	if !Detect() {
		t.Error("Detect() = false inside a runner")
	}
	t.Setenv("GITHUB_ACTIONS", "")
	if Detect() {
		t.Error("Detect() = true outside a runner")
	}
}

func TestWorkflowCommands(t *testing.T) {
	out := captureStdout(t, func() {
		Notice("reviewed %d files", 3)
	})
	if out != "::notice::reviewed 3 files\n" {
		t.Errorf("Notice output = %q", out)
	}

	out = captureStdout(t, func() {
		Warning("line one\nline two")
	})
	if !strings.Contains(out, "line one%0Aline two") {
		t.Errorf("newline not escaped: %q", out)
	}

	out = captureStdout(t, func() {
		Errorf("100%% broken")
	})
	if !strings.Contains(out, "100%25 broken") {
		t.Errorf("percent not escaped: %q", out)
	}
}
