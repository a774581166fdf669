package service

//go:generate mockgen -source=../ports/observance.go -destination=mocks/observance_mocks.go -package=mocks ObservanceStore
//go:generate mockgen -source=../ports/audit.go -destination=mocks/audit_mocks.go -package=mocks AuditPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"altar/internal/law"
	"altar/internal/law/catalog"
	"altar/internal/law/metrics"
	"altar/internal/law/service/mocks"
	"altar/internal/observance"
	dErrors "altar/pkg/domain-errors"
	"altar/pkg/platform/audit"
	"altar/pkg/platform/sentinel"
	"altar/pkg/requestcontext"
)

// =============================================================================
// Law Service Test Suite
// =============================================================================
// Justification for unit tests: the service owns snapshot handling, error
// translation from stores, default points, and audit emission. Evaluation
// rules themselves are covered in the law package.

type LawServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockObservanceStore
	mockAudit *mocks.MockAuditPublisher
	holder    *catalog.Holder
	metrics   *metrics.Metrics
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestLawServiceSuite(t *testing.T) {
	suite.Run(t, new(LawServiceSuite))
}

func rule(id int, severity law.Severity, mode law.ActivationMode) law.Rule {
	return law.Rule{
		ID:       id,
		Title:    "Law",
		Citation: "Exodus 20",
		Category: law.CategoryIdentity,
		Severity: severity,
		Tribes:   law.AllTribes(),
		MaxAge:   law.MaxAge,
		Mode:     mode,
	}
}

func (s *LawServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockObservanceStore(s.ctrl)
	s.mockAudit = mocks.NewMockAuditPublisher(s.ctrl)

	c, err := law.NewCatalog([]law.Rule{
		rule(1, law.SeverityJudgment, law.ModeAlways),
		rule(4, law.SeverityCommand, law.ModeCalendarBased),
		rule(7, law.SeverityInstruction, law.ModeAlways),
		rule(24, law.SeverityCommand, law.ModeConditional),
	}, "v1")
	s.Require().NoError(err)
	s.holder, err = catalog.NewHolder(c)
	s.Require().NoError(err)

	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service, err = New(s.holder, s.mockStore,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.mockAudit),
		WithMetrics(s.metrics),
		WithIDGenerator(func() string { return "obs-1" }),
	)
	s.Require().NoError(err)

	s.now = time.Date(2024, 4, 22, 6, 30, 0, 0, time.UTC)
	s.ctx = requestcontext.WithRequestID(requestcontext.WithTime(context.Background(), s.now), "req-1")
}

func (s *LawServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *LawServiceSuite) subject(feast law.Feast) law.UserContext {
	return law.UserContext{Tribe: law.TribeJudah, Sex: law.SexMale, Age: 30, Location: law.LocationExile, Feast: feast}
}

// =============================================================================
// Constructor Tests (Invariant Enforcement)
// =============================================================================

func (s *LawServiceSuite) TestNew() {
	s.Run("nil catalog returns error", func() {
		_, err := New(nil, s.mockStore)
		s.ErrorContains(err, "catalog source is required")
	})

	s.Run("nil store returns error", func() {
		_, err := New(s.holder, nil)
		s.ErrorContains(err, "observance store is required")
	})

	s.Run("default points out of range returns error", func() {
		_, err := New(s.holder, s.mockStore, WithDefaultPoints(101))
		s.Error(err)
	})

	s.Run("with options applies options", func() {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		svc, err := New(s.holder, s.mockStore, WithLogger(logger), WithAuditPublisher(s.mockAudit), WithDefaultPoints(10))
		s.NoError(err)
		s.Equal(logger, svc.logger)
		s.Equal(s.mockAudit, svc.auditPublisher)
		s.Equal(10, svc.defaultPoints)
	})
}

// =============================================================================
// Protocol
// =============================================================================

func (s *LawServiceSuite) TestProtocol() {
	s.Run("evaluates against the published catalog and audits", func() {
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventProtocolEvaluated), e.Action)
				s.Equal(4, e.RuleID)
				s.Equal("v1", e.CatalogVersion)
				s.Equal("Passover", e.Attributes["feast"])
				return nil
			})

		res, err := s.service.Protocol(s.ctx, s.subject("Passover"))
		s.Require().NoError(err)
		s.Equal(4, res.Protocol.Primary.ID)
		s.Equal([]int{1, 7}, ids(res.Protocol.Supporting))
		s.Equal("v1", res.CatalogVersion)
		s.Equal(s.now, res.EvaluatedAt)
		s.Contains(res.Brief, "Primary: #4")
	})

	s.Run("audit failure does not fail evaluation", func() {
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("sink down"))

		res, err := s.service.Protocol(s.ctx, s.subject(law.NoFeast))
		s.Require().NoError(err)
		s.Equal(1, res.Protocol.Primary.ID)
	})

	s.Run("records outcome metrics", func() {
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		before := promtestutil.ToFloat64(s.metrics.ProtocolOutcome.WithLabelValues("active"))

		_, err := s.service.Protocol(s.ctx, s.subject(law.NoFeast))
		s.Require().NoError(err)
		s.Equal(before+1, promtestutil.ToFloat64(s.metrics.ProtocolOutcome.WithLabelValues("active")))
	})
}

func (s *LawServiceSuite) TestProtocol_UsesSnapshotPublishedAtCallTime() {
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	first, err := s.service.Protocol(s.ctx, s.subject(law.NoFeast))
	s.Require().NoError(err)

	next, err := law.NewCatalog([]law.Rule{rule(99, law.SeverityInstruction, law.ModeAlways)}, "v2")
	s.Require().NoError(err)
	_, err = s.holder.Replace(next)
	s.Require().NoError(err)

	second, err := s.service.Protocol(s.ctx, s.subject(law.NoFeast))
	s.Require().NoError(err)

	s.Equal("v1", first.CatalogVersion)
	s.Equal(1, first.Protocol.Primary.ID)
	s.Equal("v2", second.CatalogVersion)
	s.Equal(99, second.Protocol.Primary.ID)
}

// =============================================================================
// Today
// =============================================================================

func (s *LawServiceSuite) TestToday() {
	s.Run("combines protocol, score and today's observances", func() {
		s.mockStore.EXPECT().Totals(gomock.Any(), "u1").Return(observance.Totals{Points: 55, Observances: 11}, nil)
		s.mockStore.EXPECT().ObservedOn(gomock.Any(), "u1", "2024-04-22", []int{4, 1, 7}).Return([]int{7}, nil)
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal("u1", e.UserID)
				return nil
			})

		res, err := s.service.Today(s.ctx, "u1", s.subject("Passover"))
		s.Require().NoError(err)
		s.Equal(4, res.Protocol.Primary.ID)
		s.Equal(55, res.Score.Total)
		s.Equal(observance.TierBurning, res.Score.Tier)
		s.Equal([]int{7}, res.ObservedToday)
	})

	s.Run("score failure is internal", func() {
		s.mockStore.EXPECT().Totals(gomock.Any(), "u1").Return(observance.Totals{}, errors.New("redis down"))

		_, err := s.service.Today(s.ctx, "u1", s.subject(law.NoFeast))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("observed lookup failure is internal", func() {
		s.mockStore.EXPECT().Totals(gomock.Any(), "u1").Return(observance.Totals{}, nil)
		s.mockStore.EXPECT().ObservedOn(gomock.Any(), "u1", gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := s.service.Today(s.ctx, "u1", s.subject(law.NoFeast))
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("missing user is rejected", func() {
		_, err := s.service.Today(s.ctx, "", s.subject(law.NoFeast))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Observances
// =============================================================================

func (s *LawServiceSuite) TestRecordObservance() {
	s.Run("records with default points", func() {
		s.mockStore.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, o *observance.Observance) error {
				s.Equal("obs-1", o.ID)
				s.Equal(observance.DefaultPoints, o.Points)
				s.Equal("2024-04-22", o.Day)
				return nil
			})
		s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventObservanceRecorded), e.Action)
				s.Equal("u1", e.UserID)
				s.Equal(4, e.RuleID)
				s.Equal("5", e.Attributes["points"])
				return nil
			})

		o, err := s.service.RecordObservance(s.ctx, "u1", 4, 0)
		s.Require().NoError(err)
		s.Equal(4, o.RuleID)
	})

	s.Run("unknown rule is not found", func() {
		_, err := s.service.RecordObservance(s.ctx, "u1", 404, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid points are rejected before the store", func() {
		_, err := s.service.RecordObservance(s.ctx, "u1", 4, 101)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("duplicate on the same day is a conflict", func() {
		s.mockStore.EXPECT().Record(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.service.RecordObservance(s.ctx, "u1", 4, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(1.0, promtestutil.ToFloat64(s.metrics.ObservanceResult.WithLabelValues("conflict")))
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

		_, err := s.service.RecordObservance(s.ctx, "u1", 4, 5)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *LawServiceSuite) TestScore() {
	s.Run("derives tier and progress", func() {
		s.mockStore.EXPECT().Totals(gomock.Any(), "u1").Return(observance.Totals{Points: 125, Observances: 25}, nil)

		score, err := s.service.Score(s.ctx, "u1")
		s.Require().NoError(err)
		s.Equal(observance.TierSealed, score.Tier)
		s.InDelta(50.0, score.Progress, 1e-9)
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().Totals(gomock.Any(), "u1").Return(observance.Totals{}, errors.New("boom"))

		_, err := s.service.Score(s.ctx, "u1")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *LawServiceSuite) TestHistory() {
	s.Run("default limit", func() {
		s.mockStore.EXPECT().ListByUser(gomock.Any(), "u1", defaultHistoryLimit).Return(nil, nil)
		_, err := s.service.History(s.ctx, "u1", 0)
		s.NoError(err)
	})

	s.Run("limit is capped", func() {
		s.mockStore.EXPECT().ListByUser(gomock.Any(), "u1", maxHistoryLimit).Return(nil, nil)
		_, err := s.service.History(s.ctx, "u1", 10_000)
		s.NoError(err)
	})
}

// =============================================================================
// Catalog browsing
// =============================================================================

func (s *LawServiceSuite) TestSearchAndGet() {
	found := s.service.Search(s.ctx, law.Query{Severity: law.SeverityCommand})
	s.Equal([]int{4, 24}, ids(found))

	r, err := s.service.Get(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal(7, r.ID)

	_, err = s.service.Get(s.ctx, 8)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	summary := s.service.Catalog(s.ctx)
	s.Equal("v1", summary.Version)
	s.Equal(4, summary.Rules)
	s.Equal(4, summary.ByCategory[law.CategoryIdentity])
}

func (s *LawServiceSuite) TestObserveReload() {
	c, err := law.NewCatalog([]law.Rule{rule(1, law.SeverityJudgment, law.ModeAlways)}, "v9")
	s.Require().NoError(err)
	s.mockAudit.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventCatalogReloaded), e.Action)
			s.Equal("v9", e.CatalogVersion)
			return nil
		})

	s.service.ObserveReload(c, nil)
	s.service.ObserveReload(nil, errors.New("bad yaml"))

	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CatalogRules))
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CatalogReloads.WithLabelValues("rejected")))
}

func ids(rules []law.Rule) []int {
	out := make([]int, len(rules))
	for i, r := range rules {
		out[i] = r.ID
	}
	return out
}
