// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/okian/rrtrack/internal/domain/failure"
	"github.com/okian/rrtrack/internal/domain/model"
	"github.com/okian/rrtrack/pkg/logger"
	"github.com/okian/rrtrack/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName          = "github.com/okian/rrtrack/internal/app"
	stepLookup          = "lookup"
	nanosecondsPerMilli = 1e6
)

// ErrNotConfigured is returned when the service lacks a fetcher or builder.
var ErrNotConfigured = errors.New("service not configured")

// Fetcher retrieves raw competitive updates for an account.
type Fetcher interface {
	FetchMatchHistory(ctx context.Context, creds model.Credentials, clientAddr string) ([]model.RawMatchEvent, error)
}

// Builder turns raw updates into ordered match records.
type Builder interface {
	Build(ctx context.Context, events []model.RawMatchEvent) ([]model.MatchRecord, error)
}

// Service answers match history lookups.
type Service struct {
	fetcher Fetcher
	builder Builder
	tracer  trace.Tracer
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithFetcher sets the upstream fetcher.
func WithFetcher(f Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

// WithBuilder sets the history builder.
func WithBuilder(b Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service.
func New(opts ...Option) *Service {
	s := &Service{
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	return s
}

// Matches logs into the account described by creds and returns its recent
// competitive matches, newest first. Errors carry a failure kind.
func (s *Service) Matches(ctx context.Context, creds model.Credentials, clientAddr string) ([]model.MatchRecord, error) {
	const op = "service.matches"

	ctx, span := s.tracer.Start(ctx, op, trace.WithAttributes(
		attribute.String("rrtrack.region", creds.Region),
	))
	defer span.End()

	if s.fetcher == nil || s.builder == nil {
		err := failure.Wrap(op, failure.ErrFetch, ErrNotConfigured)
		s.fail(ctx, span, creds, err)
		return nil, err
	}

	start := time.Now()
	events, err := s.fetcher.FetchMatchHistory(ctx, creds, clientAddr)
	elapsed := float64(time.Since(start).Nanoseconds()) / nanosecondsPerMilli
	if err != nil {
		metrics.RecordUpstreamCall(stepLookup, "error", elapsed)
		if failure.KindOf(err) == nil {
			err = failure.Wrap(op, failure.ErrFetch, err)
		}
		s.fail(ctx, span, creds, err)
		return nil, err
	}
	metrics.RecordUpstreamCall(stepLookup, "ok", elapsed)

	records, err := s.builder.Build(ctx, events)
	if err != nil {
		if failure.KindOf(err) == nil {
			err = failure.Wrap(op, failure.ErrNormalization, err)
		}
		s.fail(ctx, span, creds, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("rrtrack.events", len(events)),
		attribute.Int("rrtrack.records", len(records)),
	)
	s.logger.Debug(ctx, "match history built",
		logger.String("username", creds.Username),
		logger.String("region", creds.Region),
		logger.Int("events", len(events)),
		logger.Int("records", len(records)),
	)
	return records, nil
}

func (s *Service) fail(ctx context.Context, span trace.Span, creds model.Credentials, err error) {
	kind := failure.Label(err)
	metrics.RecordFailure(kind)
	span.SetAttributes(attribute.String("rrtrack.failure", kind))
	span.SetStatus(codes.Error, kind)

	var ferr *failure.Error
	opName := ""
	if errors.As(err, &ferr) {
		opName = ferr.Op
	}
	s.logger.Warn(ctx, "match lookup failed",
		logger.String("kind", kind),
		logger.String("op", opName),
		logger.String("username", creds.Username),
		logger.String("region", creds.Region),
		logger.Error(err),
	)
}
