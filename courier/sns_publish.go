package courier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	"github.com/tob-euro/auto-dubbing/mix"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// RunEvent is the SNS payload summarizing one completed run.
type RunEvent struct {
	JobName          string   `json:"job_name"`
	Username         string   `json:"username"`
	TargetLanguage   string   `json:"target_language"`
	Duration         string   `json:"duration"`
	SegmentCount     int      `json:"segment_count"`
	DegradedSegments int      `json:"degraded_segments"`
	Overflows        int      `json:"overflows"`
	TotalDrift       float64  `json:"total_drift_seconds"`
	OutputKeys       []string `json:"output_keys,omitempty"`
}

func newRunEvent(req request.Request, report *mix.MixReport, duration time.Duration, outputKeys []string) RunEvent {
	event := RunEvent{
		JobName:        req.JobName,
		Username:       req.Username,
		TargetLanguage: req.TargetLanguage,
		Duration:       duration.String(),
		OutputKeys:     outputKeys,
	}
	if report != nil {
		event.SegmentCount = len(report.Segments)
		event.DegradedSegments = len(report.FailedSegments())
		event.Overflows = report.Overflows
		event.TotalDrift = report.TotalDriftSeconds
	}
	return event
}

func PublishSNSMessage(ctx context.Context, topicArn string, subject string, event any) (string, *log.Status) {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error Marshalling SNS Message")
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error loading AWS configuration")
	}
	client := sns.NewFromConfig(cfg)
	input := &sns.PublishInput{
		Message:  aws.String(string(jsonData)),
		TopicArn: aws.String(topicArn),
		Subject:  aws.String(subject),
	}
	result, err := client.Publish(ctx, input)
	if err != nil {
		return "", log.Error(ctx, 500, err, "Error publishing SNS Message")
	}
	log.Info(ctx, "Published: ", subject, *result.MessageId)
	return *result.MessageId, nil
}
