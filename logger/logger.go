package logger

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// RequestKey is the context key under which the yaml request content is stored,
// so that errors can report the request that produced them.
type contextKey int

const RequestKey contextKey = 1

// Status is the error type returned by all operations in this module.
// A nil *Status means success.
type Status struct {
	Status  int    // http-like status code, 400 caller error, 500 internal
	Message string
	Err     error
	Trace   string
	Request string
}

func (s *Status) Error() string {
	return s.String()
}

func (s *Status) String() string {
	var parts []string
	if s.Status != 0 {
		parts = append(parts, fmt.Sprintf("status %d", s.Status))
	}
	if s.Message != "" {
		parts = append(parts, s.Message)
	}
	if s.Err != nil {
		parts = append(parts, s.Err.Error())
	}
	return strings.Join(parts, ": ")
}

var (
	mutex  sync.Mutex
	output = os.Stderr
)

// SetOutput directs log output to stderr, stdout, or a named file.
func SetOutput(where string) {
	mutex.Lock()
	defer mutex.Unlock()
	switch where {
	case `stderr`:
		output = os.Stderr
	case `stdout`:
		output = os.Stdout
	default:
		file, err := os.OpenFile(where, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "logger.SetOutput:", err)
			return
		}
		output = file
	}
}

func Error(ctx context.Context, status int, err error, messages ...any) *Status {
	var s Status
	s.Status = status
	s.Err = err
	s.Message = join(messages)
	s.Trace = string(debug.Stack())
	s.Request = requestOf(ctx)
	write(`ERROR`, s.String())
	return &s
}

func ErrorNoErr(ctx context.Context, status int, messages ...any) *Status {
	var s Status
	s.Status = status
	s.Message = join(messages)
	s.Trace = string(debug.Stack())
	s.Request = requestOf(ctx)
	write(`ERROR`, s.String())
	return &s
}

// ExecError logs one stderr line from a subprocess. It returns a non-nil
// status only when the line indicates a process failure, so that warnings
// and progress output from python tools do not abort processing.
func ExecError(ctx context.Context, status int, line string) *Status {
	write(`EXEC`, line)
	lower := strings.ToLower(line)
	if strings.Contains(lower, `traceback`) ||
		strings.HasPrefix(lower, `error`) ||
		strings.Contains(lower, `fatal`) {
		var s Status
		s.Status = status
		s.Message = line
		s.Request = requestOf(ctx)
		return &s
	}
	return nil
}

func Warn(ctx context.Context, messages ...any) {
	write(`WARN`, join(messages))
}

func Info(ctx context.Context, messages ...any) {
	write(`INFO`, join(messages))
}

func Debug(ctx context.Context, messages ...any) {
	write(`DEBUG`, join(messages))
}

func requestOf(ctx context.Context) string {
	if ctx == nil {
		return ``
	}
	if req, ok := ctx.Value(RequestKey).(string); ok {
		return req
	}
	return ``
}

func join(messages []any) string {
	var parts []string
	for _, msg := range messages {
		parts = append(parts, fmt.Sprintf("%v", msg))
	}
	return strings.Join(parts, ` `)
}

func write(level string, msg string) {
	mutex.Lock()
	defer mutex.Unlock()
	timestamp := time.Now().Format(`2006-01-02 15:04:05`)
	fmt.Fprintf(output, "%s %s %s\n", timestamp, level, msg)
}
