package stdio_exec

import (
	"bufio"
	"context"
	"os/exec"
	"sync"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// RunScriptWithLogging runs a batch subprocess, such as demucs source
// separation, to completion. Stdout lines are logged as INFO and stderr
// lines as WARN, because model tools write progress to stderr.
func RunScriptWithLogging(ctx context.Context, command string, args ...string) *log.Status {
	cmd := exec.CommandContext(ctx, command, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return log.Error(ctx, 500, err, `Unable to open stdout for reading`, cmd.String())
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return log.Error(ctx, 500, err, `Unable to open stderr for reading`, cmd.String())
	}
	err = cmd.Start()
	if err != nil {
		return log.Error(ctx, 500, err, `Unable to execute command`, cmd.String())
	}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			log.Info(ctx, "EXEC:", scanner.Text())
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			log.Warn(ctx, "EXEC:", scanner.Text())
		}
	}()
	err = cmd.Wait()
	if err != nil {
		return log.Error(ctx, 500, err, `Error occurred in final wait of cmd`, cmd.String())
	}
	wg.Wait()
	return nil
}
