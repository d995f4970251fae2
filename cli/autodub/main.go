package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"time"

	"github.com/tob-euro/auto-dubbing/cleanup"
	"github.com/tob-euro/auto-dubbing/controller"
	"github.com/tob-euro/auto-dubbing/decode_yaml"
	"github.com/tob-euro/auto-dubbing/evaluate"

	log "github.com/tob-euro/auto-dubbing/logger"
)

func main() {
	var (
		requestFile = flag.String("request", "", "Path to yaml dub request (required)")
		runCleanup  = flag.Bool("cleanup", false, "Remove stale run directories and exit")
		evalRef     = flag.String("eval-ref", "", "Reference transcript for evaluation")
		evalHyp     = flag.String("eval-hyp", "", "Hypothesis transcript for evaluation")
	)
	flag.Parse()

	ctx := context.Background()
	if logFile := os.Getenv("DUB_LOG_FILE"); logFile != "" {
		log.SetOutput(logFile)
	}

	if *runCleanup {
		cleanup.CleanupWorkDirectories(ctx)
		return
	}
	if *evalRef != "" || *evalHyp != "" {
		evaluateTranscripts(*evalRef, *evalHyp)
		return
	}
	if *requestFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -request <dub.yaml>\n\nOptions:\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	content, err := os.ReadFile(*requestFile)
	if err != nil {
		stdlog.Fatalf("Failed to read request file: %v", err)
	}
	ctx = context.WithValue(ctx, log.RequestKey, string(content))

	decoder := decode_yaml.NewRequestDecoder(ctx)
	req, status := decoder.Process(content)
	if status != nil {
		stdlog.Fatalf("Invalid dub request: %s", status)
	}

	start := time.Now()
	pipeline := controller.NewPipeline(ctx, req)
	run, status := pipeline.Process()
	if status != nil {
		log.Warn(ctx, "Dub run failed after", time.Since(start).String())
		fmt.Fprintln(os.Stderr, status)
		os.Exit(1)
	}
	fmt.Printf("Dub run %s complete in %s\n", req.JobName, time.Since(start).Round(time.Second))
	fmt.Printf("  video:  %s\n", run.OutputVideo)
	fmt.Printf("  audio:  %s\n", run.OutputAudio)
	fmt.Printf("  report: %s\n", run.ReportJson)
	failed := run.Report.FailedSegments()
	if len(failed) > 0 {
		fmt.Printf("  %d of %d segments degraded to background only, see report\n",
			len(failed), len(run.Report.Segments))
	}
}

func evaluateTranscripts(refPath string, hypPath string) {
	reference, err := os.ReadFile(refPath)
	if err != nil {
		stdlog.Fatalf("Failed to read reference transcript: %v", err)
	}
	hypothesis, err := os.ReadFile(hypPath)
	if err != nil {
		stdlog.Fatalf("Failed to read hypothesis transcript: %v", err)
	}
	result := evaluate.Compare(string(reference), string(hypothesis))
	fmt.Printf("Reference words: %d\n", result.ReferenceWords)
	fmt.Printf("Substitutions:   %d\n", result.Substitutions)
	fmt.Printf("Deletions:       %d\n", result.Deletions)
	fmt.Printf("Insertions:      %d\n", result.Insertions)
	fmt.Printf("Word error rate: %.3f\n", result.WordErrorRate)
}
