// internal/workers/communication/notify-recommendations/handler.go
package notifyrecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/models"
)

const (
	TaskType = "notify-recommendations"
)

// EmailSender and SMSSender are satisfied by the shared AWS SES/SNS wrappers.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		errors: apperrors.NewErrorHandler(log),
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errors.HandleJobError(ctx, client, job, apperrors.NewParseError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode(err)).Inc()
		h.errors.HandleJobError(ctx, client, job, err)
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Recommendations == nil {
		return nil, apperrors.NewParseError("recommendations payload is required")
	}

	channels := h.resolveChannels(input)
	if len(channels) == 0 {
		return nil, apperrors.NewParseError("no deliverable channel: check addresses and channel configuration")
	}

	results := make([]ChannelResult, 0, len(channels))
	anySuccess := false
	var lastErr error

	for _, channel := range channels {
		var messageID string
		var err error
		switch channel {
		case "email":
			messageID, err = h.sendEmail(ctx, input)
		case "sms":
			messageID, err = h.sendSMS(ctx, input)
		}

		result := ChannelResult{Channel: channel, Success: err == nil, MessageID: messageID}
		if err != nil {
			result.Error = err.Error()
			lastErr = err
			h.logger.Warn("notification channel failed", map[string]interface{}{
				"channel": channel,
				"userId":  input.UserID,
				"error":   err.Error(),
			})
		} else {
			anySuccess = true
		}
		results = append(results, result)
	}

	// Partial delivery counts as success; total failure is retryable.
	if !anySuccess {
		return nil, apperrors.NewNotificationSendFailedError(strings.Join(channels, ","), lastErr)
	}

	h.logger.Info("recommendation notification sent", map[string]interface{}{
		"userId":   input.UserID,
		"channels": channels,
	})

	return &Output{
		Success: true,
		Results: results,
		SentAt:  time.Now().UTC(),
	}, nil
}

func (h *Handler) resolveChannels(input *Input) []string {
	requested := input.Channels
	if len(requested) == 0 {
		requested = []string{"email", "sms"}
	}

	channels := []string{}
	for _, c := range requested {
		switch strings.ToLower(c) {
		case "email":
			if h.config.EmailEnabled && input.Email != "" {
				channels = append(channels, "email")
			}
		case "sms":
			if h.config.SMSEnabled && input.PhoneNumber != "" {
				channels = append(channels, "sms")
			}
		}
	}
	return channels
}

func (h *Handler) sendEmail(ctx context.Context, input *Input) (string, error) {
	body := buildEmailBody(input.Recommendations, h.config.TopResults)
	subject := fmt.Sprintf("Your immigration program recommendations (%d matches)", input.Recommendations.TotalCount)

	out, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(h.config.FromEmail),
		Destination: &sestypes.Destination{ToAddresses: []string{input.Email}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: awssdk.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: awssdk.String(body)},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func (h *Handler) sendSMS(ctx context.Context, input *Input) (string, error) {
	out, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: awssdk.String(input.PhoneNumber),
		Message:     awssdk.String(buildSMSBody(input.Recommendations)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(h.config.SMSSenderID),
			},
		},
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func buildEmailBody(set *models.RecommendationSet, topResults int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "We found %d immigration programs matching your profile.\n\n", set.TotalCount)

	limit := topResults
	if limit > len(set.Results) {
		limit = len(set.Results)
	}
	for i := 0; i < limit; i++ {
		rec := set.Results[i]
		fmt.Fprintf(&b, "%d. %s (%s) - overall score %d/100\n", i+1, rec.ProgramName, rec.Country, rec.CompositeScore)
		if rec.Alternative {
			b.WriteString("   Alternative pathway: review its gap analysis for next steps.\n")
		}
	}

	if len(set.Results) > limit {
		fmt.Fprintf(&b, "\n...and %d more in your full report.\n", len(set.Results)-limit)
	}
	b.WriteString("\nLog in to review eligibility details, gaps and improvement plans.\n")
	return b.String()
}

func buildSMSBody(set *models.RecommendationSet) string {
	if set.TotalCount == 0 {
		return "Your immigration assessment is ready. No direct matches yet: log in to see alternative pathways."
	}
	top := set.Results[0]
	return fmt.Sprintf("Your immigration assessment is ready: %d programs matched. Top result: %s (%s). Log in for details.",
		set.TotalCount, top.ProgramName, top.Country)
}

func errorCode(err error) string {
	if stdErr, ok := err.(*apperrors.StandardError); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN"
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
