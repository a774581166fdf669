// Package service orchestrates the law module: evaluating daily protocols
// against the published catalog, browsing it, and recording observances.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"altar/internal/law"
	"altar/internal/law/metrics"
	"altar/internal/law/ports"
	"altar/internal/observance"
	dErrors "altar/pkg/domain-errors"
	"altar/pkg/platform/audit"
	"altar/pkg/platform/sentinel"
	"altar/pkg/requestcontext"
)

const (
	tracerName = "altar/internal/law/service"

	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Service evaluates protocols and records observances. Each operation reads
// exactly one catalog snapshot, so a concurrent reload never mixes rules.
type Service struct {
	catalog        ports.CatalogSource
	observances    ports.ObservanceStore
	auditPublisher ports.AuditPublisher
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	defaultPoints  int
	newID          func() string
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithDefaultPoints sets the points awarded when a request omits them.
func WithDefaultPoints(points int) Option {
	return func(s *Service) {
		s.defaultPoints = points
	}
}

// WithIDGenerator replaces the observance id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New constructs a Service.
func New(catalog ports.CatalogSource, observances ports.ObservanceStore, opts ...Option) (*Service, error) {
	if catalog == nil {
		return nil, errors.New("catalog source is required")
	}
	if observances == nil {
		return nil, errors.New("observance store is required")
	}
	s := &Service{
		catalog:       catalog,
		observances:   observances,
		logger:        slog.Default(),
		tracer:        otel.Tracer(tracerName),
		defaultPoints: observance.DefaultPoints,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultPoints < observance.MinPoints || s.defaultPoints > observance.MaxPoints {
		return nil, errors.New("default points out of range")
	}
	return s, nil
}

// Protocol evaluates the daily protocol for a validated context.
func (s *Service) Protocol(ctx context.Context, uc law.UserContext) (*ProtocolResult, error) {
	ctx, span := s.tracer.Start(ctx, "law.Protocol", trace.WithAttributes(contextAttributes(uc)...))
	defer span.End()

	res := s.evaluate(ctx, uc)
	span.SetAttributes(
		attribute.Int("law.primary_rule_id", res.Protocol.Primary.ID),
		attribute.Bool("law.fallback", res.Protocol.Fallback),
	)
	s.emitAudit(ctx, audit.Event{
		Action:         string(audit.EventProtocolEvaluated),
		RuleID:         res.Protocol.Primary.ID,
		CatalogVersion: res.CatalogVersion,
		Attributes:     protocolAttributes(uc, res.Protocol),
	})
	return res, nil
}

// Today evaluates the protocol for a user and loads their score in parallel,
// then marks which surfaced rules they already observed today.
func (s *Service) Today(ctx context.Context, userID string, uc law.UserContext) (*TodayResult, error) {
	ctx, span := s.tracer.Start(ctx, "law.Today", trace.WithAttributes(contextAttributes(uc)...))
	defer span.End()

	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var (
		res    *ProtocolResult
		totals observance.Totals
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = s.evaluate(gctx, uc)
		return nil
	})
	g.Go(func() error {
		var err error
		totals, err = s.observances.Totals(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alignment score"))
	}

	surfaced := []int{res.Protocol.Primary.ID}
	for _, r := range res.Protocol.Supporting {
		surfaced = append(surfaced, r.ID)
	}
	observed, err := s.observances.ObservedOn(ctx, userID, observance.DayOf(res.EvaluatedAt), surfaced)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load today's observances"))
	}

	s.emitAudit(ctx, audit.Event{
		Action:         string(audit.EventProtocolEvaluated),
		UserID:         userID,
		RuleID:         res.Protocol.Primary.ID,
		CatalogVersion: res.CatalogVersion,
		Attributes:     protocolAttributes(uc, res.Protocol),
	})

	return &TodayResult{
		ProtocolResult: *res,
		Score:          observance.NewScore(userID, totals),
		ObservedToday:  observed,
	}, nil
}

func (s *Service) evaluate(ctx context.Context, uc law.UserContext) *ProtocolResult {
	snapshot := s.catalog.Current()
	start := time.Now()
	p := snapshot.Evaluate(uc)
	elapsed := time.Since(start)

	s.metrics.ObserveEvaluateLatency(elapsed)
	s.metrics.IncrementProtocol(p.Fallback, p.ActiveCount, p.TrainingCount, p.DormantCount, p.InactiveCount)

	s.logger.InfoContext(ctx, "protocol evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"tribe", uc.Tribe,
		"location", uc.Location,
		"feast", uc.Feast.String(),
		"primary_rule_id", p.Primary.ID,
		"fallback", p.Fallback,
		"active", p.ActiveCount,
		"catalog_version", snapshot.Version(),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &ProtocolResult{
		Context:        uc,
		Protocol:       p,
		CatalogVersion: snapshot.Version(),
		EvaluatedAt:    requestcontext.Now(ctx).UTC(),
		Brief:          law.Brief(uc, p),
	}
}

// Search filters the published catalog.
func (s *Service) Search(ctx context.Context, q law.Query) []law.Rule {
	_, span := s.tracer.Start(ctx, "law.Search")
	defer span.End()

	return law.Search(s.catalog.Current().Rules(), q)
}

// Get returns one rule of the published catalog.
func (s *Service) Get(_ context.Context, id int) (law.Rule, error) {
	rule, ok := s.catalog.Current().Get(id)
	if !ok {
		return law.Rule{}, dErrors.New(dErrors.CodeNotFound, "law "+strconv.Itoa(id)+" not found")
	}
	return rule, nil
}

// Catalog summarizes the published catalog.
func (s *Service) Catalog(_ context.Context) CatalogSummary {
	c := s.catalog.Current()
	return CatalogSummary{Version: c.Version(), Rules: c.Len(), ByCategory: c.CountByCategory()}
}

// RecordObservance records that a user kept a rule today. A zero points value
// awards the default.
func (s *Service) RecordObservance(ctx context.Context, userID string, ruleID, points int) (*observance.Observance, error) {
	ctx, span := s.tracer.Start(ctx, "law.RecordObservance", trace.WithAttributes(attribute.Int("law.rule_id", ruleID)))
	defer span.End()

	if points == 0 {
		points = s.defaultPoints
	}
	snapshot := s.catalog.Current()
	if _, ok := snapshot.Get(ruleID); !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "law "+strconv.Itoa(ruleID)+" not found")
	}

	o, err := observance.NewObservance(s.newID(), userID, ruleID, points, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.observances.Record(ctx, o); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementObservance("conflict")
			return nil, dErrors.New(dErrors.CodeConflict, "law already observed today")
		}
		s.metrics.IncrementObservance("error")
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record observance"))
	}
	s.metrics.IncrementObservance("recorded")

	s.logger.InfoContext(ctx, "observance recorded",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", o.UserID,
		"rule_id", o.RuleID,
		"points", o.Points,
		"day", o.Day,
	)
	s.emitAudit(ctx, audit.Event{
		Action:         string(audit.EventObservanceRecorded),
		UserID:         o.UserID,
		RuleID:         o.RuleID,
		CatalogVersion: snapshot.Version(),
		Attributes: map[string]string{
			"observance_id": o.ID,
			"points":        strconv.Itoa(o.Points),
			"day":           o.Day,
		},
	})
	return o, nil
}

// Score returns a user's alignment score.
func (s *Service) Score(ctx context.Context, userID string) (*observance.Score, error) {
	ctx, span := s.tracer.Start(ctx, "law.Score")
	defer span.End()

	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	totals, err := s.observances.Totals(ctx, userID)
	if err != nil {
		return nil, s.fail(span, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load alignment score"))
	}
	score := observance.NewScore(userID, totals)
	return &score, nil
}

// History lists a user's most recent observances. A non-positive limit uses
// the default; larger limits are capped.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]*observance.Observance, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)
	records, err := s.observances.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list observances")
	}
	return records, nil
}

// ObserveReload records the outcome of a catalog reload. It matches the
// catalog watcher's reload hook.
func (s *Service) ObserveReload(c *law.Catalog, err error) {
	ctx := context.Background()
	if err != nil {
		s.metrics.RecordCatalogReload(false, 0)
		return
	}
	s.metrics.RecordCatalogReload(true, c.Len())
	s.emitAudit(ctx, audit.Event{
		Action:         string(audit.EventCatalogReloaded),
		CatalogVersion: c.Version(),
		Attributes:     map[string]string{"rules": strconv.Itoa(c.Len())},
	})
}

// emitAudit publishes an audit event. Audit failures are logged and never
// fail the operation.
func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"request_id", requestcontext.RequestID(ctx),
			"action", event.Action,
			"error", err,
		)
	}
}

func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("law service operation failed", "error", err)
	return err
}

func validateUserID(userID string) error {
	if userID == "" {
		return dErrors.New(dErrors.CodeValidation, "user_id is required")
	}
	return nil
}

func contextAttributes(uc law.UserContext) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("law.tribe", string(uc.Tribe)),
		attribute.String("law.sex", string(uc.Sex)),
		attribute.Int("law.age", uc.Age),
		attribute.String("law.location", string(uc.Location)),
		attribute.String("law.feast", uc.Feast.String()),
	}
}

func protocolAttributes(uc law.UserContext, p law.DailyProtocol) map[string]string {
	return map[string]string{
		"tribe":    string(uc.Tribe),
		"location": string(uc.Location),
		"feast":    uc.Feast.String(),
		"fallback": strconv.FormatBool(p.Fallback),
		"active":   strconv.Itoa(p.ActiveCount),
		"training": strconv.Itoa(p.TrainingCount),
		"dormant":  strconv.Itoa(p.DormantCount),
		"inactive": strconv.Itoa(p.InactiveCount),
	}
}
