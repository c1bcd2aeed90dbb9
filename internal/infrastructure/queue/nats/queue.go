package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/deck-pipeline/internal/core/domain"
	"github.com/kirillkom/deck-pipeline/internal/infrastructure/resilience"
)

// Queue carries pipeline run requests to workers and announces finished runs.
type Queue struct {
	conn             *nats.Conn
	runSubject       string
	completedSubject string
	executor         *resilience.Executor
	logger           *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, runSubject, completedSubject string) (*Queue, error) {
	return NewWithOptions(url, runSubject, completedSubject, Options{})
}

func NewWithOptions(url, runSubject, completedSubject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("deck-pipeline"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:             conn,
		runSubject:       runSubject,
		completedSubject: completedSubject,
		executor:         options.ResilienceExecutor,
		logger:           logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishRunRequested enqueues a run for the worker pool.
func (q *Queue) PublishRunRequested(ctx context.Context, req domain.RunRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode run request: %w", err)
	}
	return q.publish(ctx, q.runSubject, payload)
}

func (q *Queue) PublishRunCompleted(ctx context.Context, run *domain.PipelineRun) error {
	if run == nil {
		return nil
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run completed: %w", err)
	}
	return q.publish(ctx, q.completedSubject, payload)
}

func (q *Queue) publish(ctx context.Context, subject string, payload []byte) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeRunRequests consumes run requests in the "workers" queue group until ctx is done.
// Malformed payloads are logged and dropped.
func (q *Queue) SubscribeRunRequests(ctx context.Context, handler func(context.Context, domain.RunRequest) error) error {
	sub, err := q.conn.QueueSubscribe(q.runSubject, "workers", func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
		req, err := decodeRunRequest(msg.Data)
		if err != nil {
			q.logger.Warn("run_request_rejected", "error", err)
			return
		}

		handlerCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		if err := handler(handlerCtx, req); err != nil {
			q.logger.Error("run_request_failed", "project", req.ProjectID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func decodeRunRequest(data []byte) (domain.RunRequest, error) {
	var req domain.RunRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return domain.RunRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode run request", err)
	}
	req.ProjectID = strings.TrimSpace(req.ProjectID)
	if req.ProjectID == "" {
		return domain.RunRequest{}, domain.WrapError(domain.ErrInvalidInput, "decode run request", errors.New("project_id is required"))
	}
	return req, nil
}
