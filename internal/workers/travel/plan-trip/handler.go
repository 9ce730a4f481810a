// internal/workers/travel/plan-trip/handler.go
package plantrip

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "travel-planner/internal/common/errors"
	"travel-planner/internal/common/metrics"
	"travel-planner/internal/models"
	"travel-planner/pkg/registry"
)

const TaskType = "plan-trip"

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Planner runs the two end-to-end planning workflows.
type Planner interface {
	CompleteSearch(ctx context.Context, req models.CompleteSearchRequest) (*models.AIResponse, error)
	PlanFromConversation(ctx context.Context, text string) (*models.AIResponse, error)
}

type Handler struct {
	config  *Config
	planner Planner
	stage   *registry.Stage
	errors  *apperrors.ErrorHandler
	logger  Logger
}

func NewHandler(config *Config, planner Planner, stage *registry.Stage, log Logger) *Handler {
	l := log.With(map[string]interface{}{
		"taskType": TaskType,
	})
	return &Handler{
		config:  config,
		planner: planner,
		stage:   stage,
		errors:  apperrors.NewErrorHandler(l),
		logger:  l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	output, err := h.execute(ctx, input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	if h.stage != nil {
		if err := h.stage.ValidateInput([]byte(job.Variables)); err != nil {
			return nil, err
		}
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, apperrors.NewInvalidRequestError(fmt.Sprintf("parse input: %v", err))
	}
	if input.FlightRequest == nil && strings.TrimSpace(input.ConversationText) == "" {
		return nil, apperrors.NewInvalidRequestError("flightRequest or conversationText is required")
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		plan *models.AIResponse
		err  error
		mode string
	)
	if strings.TrimSpace(input.ConversationText) != "" {
		mode = "conversation"
		plan, err = h.planner.PlanFromConversation(ctx, input.ConversationText)
	} else {
		mode = "structured"
		plan, err = h.planner.CompleteSearch(ctx, h.completeSearchRequest(input))
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"mode":        mode,
		"flightCount": len(plan.Flights),
		"hotelCount":  len(plan.Hotels),
	}
	if plan.Itinerary == "" {
		h.logger.Warn("trip planned without itinerary", fields)
	} else {
		h.logger.Info("trip planned", fields)
	}
	return &Output{TravelPlan: plan}, nil
}

func (h *Handler) completeSearchRequest(input *Input) models.CompleteSearchRequest {
	now := h.config.Now()
	var req models.CompleteSearchRequest
	if input.FlightRequest != nil {
		req.FlightRequest = *input.FlightRequest
	}
	req.FlightRequest.ApplyDefaults(now)
	if input.HotelRequest != nil {
		hotel := *input.HotelRequest
		hotel.ApplyDefaults(now)
		req.HotelRequest = &hotel
	}
	return req
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := apperrors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	h.errors.HandleJobError(context.WithoutCancel(ctx), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
