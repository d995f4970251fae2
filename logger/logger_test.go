package logger

import (
	"context"
	"errors"
	"testing"
)

func TestErrorStatus(t *testing.T) {
	SetOutput("stdout")
	ctx := context.WithValue(context.Background(), RequestKey, "request content")
	status := Error(ctx, 500, errors.New("boom"), "something", "failed")
	if status == nil {
		t.Fatal("expected non-nil status")
	}
	if status.Status != 500 {
		t.Fatalf("expected 500, got %d", status.Status)
	}
	if status.Message != "something failed" {
		t.Fatalf("unexpected message %q", status.Message)
	}
	if status.Request != "request content" {
		t.Fatalf("expected request content in status, got %q", status.Request)
	}
	if status.Trace == "" {
		t.Fatal("expected stack trace")
	}
}

func TestExecErrorFiltering(t *testing.T) {
	SetOutput("stdout")
	ctx := context.Background()
	if status := ExecError(ctx, 500, "downloading model 42%"); status != nil {
		t.Fatalf("progress line should not produce a status, got %v", status)
	}
	if status := ExecError(ctx, 500, "Traceback (most recent call last):"); status == nil {
		t.Fatal("traceback line should produce a status")
	}
	if status := ExecError(ctx, 500, "Error: no such file"); status == nil {
		t.Fatal("error line should produce a status")
	}
}
