package stdio_exec

import (
	"context"
	"testing"

	log "github.com/tob-euro/auto-dubbing/logger"
)

func TestStdioExecEcho(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	stdio, status := NewStdioExec(ctx, "cat")
	if status != nil {
		t.Fatal(status)
	}
	result, status := stdio.Process("abc")
	if status != nil {
		t.Fatal(status)
	}
	if result != "abc" {
		t.Fatalf("expected abc, got %q", result)
	}
	stdio.Close()
}

func TestRunScriptWithLogging(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	status := RunScriptWithLogging(ctx, "sh", "-c", "echo out; echo progress >&2")
	if status != nil {
		t.Fatal(status)
	}
}

func TestRunScriptWithLoggingFailure(t *testing.T) {
	log.SetOutput("stdout")
	ctx := context.Background()
	status := RunScriptWithLogging(ctx, "sh", "-c", "exit 3")
	if status == nil {
		t.Fatal("expected failure status")
	}
}
