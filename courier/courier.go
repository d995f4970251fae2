package courier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tob-euro/auto-dubbing/decode_yaml/request"
	"github.com/tob-euro/auto-dubbing/mix"

	log "github.com/tob-euro/auto-dubbing/logger"
)

// Courier delivers the artifacts of a finished dub run: upload to S3,
// SNS run summary, and email with the reports attached. Everything
// here is best effort; a delivery failure never undoes a completed
// render, so errors are logged as warnings and processing continues.
type Courier struct {
	ctx        context.Context
	IsUnitTest bool // set by bucket integration tests
	start      time.Time
	req        request.Request
	outputs    []string
	outputKeys []string
}

func NewCourier(ctx context.Context, req request.Request) Courier {
	var c Courier
	c.ctx = ctx
	c.start = time.Now()
	c.req = req
	return c
}

func (c *Courier) AddOutput(outputPath string) {
	if len(outputPath) > 0 {
		c.outputs = append(c.outputs, outputPath)
	}
}

func (c *Courier) GetOutputPaths() []string {
	return c.outputs
}

func (c *Courier) GetOutputByExt(fileExt string) []string {
	var results []string
	for _, path := range c.outputs {
		if strings.HasSuffix(path, fileExt) {
			results = append(results, path)
		}
	}
	return results
}

// Deliver runs every configured delivery channel.
func (c *Courier) Deliver(report *mix.MixReport) {
	if c.req.Notify.Bucket != `` {
		if status := c.PersistToBucket(); status != nil {
			log.Warn(c.ctx, "Artifact upload failed:", status.Message)
		}
	}
	if c.req.Notify.SNSTopic != `` {
		event := newRunEvent(c.req, report, time.Since(c.start), c.outputKeys)
		if _, status := PublishSNSMessage(c.ctx, c.req.Notify.SNSTopic,
			"Dub run complete: "+c.req.JobName, event); status != nil {
			log.Warn(c.ctx, "SNS notification failed:", status.Message)
		}
	}
	if len(c.req.Notify.Email) > 0 {
		subject := "Dub run complete: " + c.req.JobName
		if status := GoMailSendMail(c.ctx, c.req.Notify.Email, subject,
			c.summaryMsg(report), c.reportArchive(), c.GetOutputByExt(`.json`)); status != nil {
			log.Warn(c.ctx, "Email notification failed:", status.Message)
		}
	}
}

// reportArchive names the email attachment bundle after the job, next
// to the other run artifacts. Empty when there is nothing to attach.
func (c *Courier) reportArchive() string {
	reports := c.GetOutputByExt(`.json`)
	if len(reports) == 0 {
		return ``
	}
	return filepath.Join(filepath.Dir(reports[0]), c.req.JobName+`_reports.zip`)
}

func (c *Courier) summaryMsg(report *mix.MixReport) string {
	var message []string
	message = append(message, "Job: "+c.req.JobName)
	message = append(message, "Duration: "+time.Since(c.start).String())
	if report != nil {
		message = append(message, fmt.Sprintf("Segments: %d", len(report.Segments)))
		message = append(message, fmt.Sprintf("Degraded: %d", len(report.FailedSegments())))
		message = append(message, fmt.Sprintf("Overflows: %d", report.Overflows))
		message = append(message, fmt.Sprintf("Total drift: %.2fs", report.TotalDriftSeconds))
	}
	for _, output := range c.outputs {
		message = append(message, output)
	}
	return strings.Join(message, "\n")
}

// PersistToBucket uploads every artifact under
// <username>/<job_name>/<timestamp>/.
func (c *Courier) PersistToBucket() *log.Status {
	var status *log.Status
	if !testing.Testing() || c.IsUnitTest {
		cfg, err := config.LoadDefaultConfig(c.ctx, config.WithRegion(awsRegion()))
		if err != nil {
			return log.Error(c.ctx, 500, err, "Error loading AWS config.")
		}
		client := s3.NewFromConfig(cfg)
		runStamp := c.start.Format(`20060102_150405`)
		for _, output := range c.outputs {
			outputKey, status2 := c.uploadFile(client, runStamp, output)
			if status2 != nil && status == nil {
				status = status2
			}
			if outputKey != `` {
				c.outputKeys = append(c.outputKeys, outputKey)
			}
		}
	}
	return status
}

func (c *Courier) uploadFile(client *s3.Client, runStamp string, filePath string) (string, *log.Status) {
	var objectKey string
	file, err := os.Open(filePath)
	if err != nil {
		log.Warn(c.ctx, "Error opening file to upload to S3:", err)
		return objectKey, nil
	}
	defer file.Close()
	objectKey = c.createKey(runStamp, filePath)
	_, err = client.PutObject(c.ctx, &s3.PutObjectInput{
		Bucket: &c.req.Notify.Bucket,
		Key:    &objectKey,
		Body:   file,
	})
	if err != nil {
		return objectKey, log.Error(c.ctx, 500, err, "Error uploading file to S3.")
	}
	return objectKey, nil
}

func (c *Courier) createKey(runStamp string, filename string) string {
	username := c.req.Username
	if username == `` {
		username = `anonymous`
	}
	return username + "/" + c.req.JobName + "/" + runStamp + "/" + filepath.Base(filename)
}

func awsRegion() string {
	region := os.Getenv(`AWS_REGION`)
	if region == `` {
		region = `us-west-2`
	}
	return region
}
