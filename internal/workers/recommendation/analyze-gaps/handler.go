// internal/workers/recommendation/analyze-gaps/handler.go
package analyzegaps

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "immigration-workers/internal/common/errors"
	"immigration-workers/internal/common/logger"
	"immigration-workers/internal/common/metrics"
	"immigration-workers/internal/recommendation"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "analyze-gaps"
)

type Handler struct {
	config   *Config
	profiles recommendation.ProfileAnalyzer
	analyzer *recommendation.GapAnalyzer
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, profiles recommendation.ProfileAnalyzer, analyzer *recommendation.GapAnalyzer, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		profiles: profiles,
		analyzer: analyzer,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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
	profile := input.Profile
	if profile == nil {
		if input.UserID == "" {
			return nil, apperrors.NewParseError("either profile or userId is required")
		}
		var err error
		profile, err = h.profiles.AnalyzeProfile(ctx, input.UserID, input.SessionID)
		if err != nil {
			return nil, err
		}
	}

	matches := h.analyzer.AnalyzeGaps(profile, input.Matches)

	analyzed := 0
	for i := range matches {
		if matches[i].GapAnalysis != nil {
			analyzed++
		}
	}

	h.logger.Info("gap analysis completed", map[string]interface{}{
		"userId":        input.UserID,
		"matchCount":    len(matches),
		"analyzedCount": analyzed,
	})

	return &Output{
		Matches:       matches,
		AnalyzedCount: analyzed,
	}, nil
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
