package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/access"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/reporting"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util/errorutil"
)

// ReportService serves aggregate statistics to staff.
type ReportService struct {
	store  repository.Store
	access *access.Evaluator
	cache  cache.ReportCache
	logger *zap.Logger
	cfg    config.ReportsConfig
	loc    *time.Location
	now    func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	Store     repository.Store
	Evaluator *access.Evaluator
	Cache     cache.ReportCache
	Logger    *zap.Logger
	Config    config.ReportsConfig
	Location  *time.Location
	Clock     func() time.Time
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	svc := &ReportService{
		store:  deps.Store,
		access: deps.Evaluator,
		cache:  deps.Cache,
		logger: deps.Logger,
		cfg:    deps.Config,
		loc:    deps.Location,
		now:    deps.Clock,
	}
	if svc.cache == nil {
		svc.cache = cache.Noop{}
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.cfg.DefaultRangeDays <= 0 {
		svc.cfg.DefaultRangeDays = 30
	}
	return svc
}

// Aggregate computes the report for tickets created between from and to,
// both inclusive calendar dates. Missing bounds default to the last
// DefaultRangeDays days through today.
func (s *ReportService) Aggregate(ctx context.Context, principal *domain.Principal, from, to *time.Time) (*domain.ReportStats, error) {
	if !s.access.CanViewReports(principal) {
		return nil, denied(principal, "reports are staff only")
	}

	now := s.now()
	end := startOfDay(now, s.loc)
	if to != nil {
		end = startOfDay(*to, s.loc)
	}
	start := end.AddDate(0, 0, -s.cfg.DefaultRangeDays)
	if from != nil {
		start = startOfDay(*from, s.loc)
	}
	if start.After(end) {
		return nil, apperrors.NewValidationError("date_from must not be after date_to", map[string]any{
			"date_from": start.Format(time.DateOnly),
			"date_to":   end.Format(time.DateOnly),
		})
	}

	query := access.ReportScope(principal, repository.TicketQuery{})
	key := reportCacheKey(query.Scope, start, end)
	if stats, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("report cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		return stats, nil
	}

	before := end.AddDate(0, 0, 1)
	tickets, err := s.store.Tickets().List(ctx, query.WithCreatedRange(&start, &before))
	if err != nil {
		return nil, err
	}
	lookups, err := s.lookups(ctx, tickets)
	if err != nil {
		return nil, err
	}

	stats := reporting.Aggregate(tickets, lookups, now)
	stats.DateFrom = start
	stats.DateTo = end

	if err := s.cache.Set(ctx, key, &stats); err != nil {
		s.logger.Warn("report cache write failed", zap.String("key", key), zap.Error(err))
	}
	return &stats, nil
}

func (s *ReportService) lookups(ctx context.Context, tickets []domain.Ticket) (reporting.Lookups, error) {
	lookups := reporting.Lookups{
		Departments: map[string]string{},
		Priorities:  map[string]domain.Priority{},
		Users:       map[string]string{},
	}
	departments, err := s.store.Departments().List(ctx, false)
	if err != nil {
		return lookups, err
	}
	for _, dept := range departments {
		lookups.Departments[dept.ID] = dept.Name
	}
	priorities, err := s.store.Priorities().List(ctx)
	if err != nil {
		return lookups, err
	}
	for _, priority := range priorities {
		lookups.Priorities[priority.ID] = priority
	}

	seen := map[string]struct{}{}
	var agentIDs []string
	for i := range tickets {
		if id := tickets[i].AssigneeID; id != nil {
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				agentIDs = append(agentIDs, *id)
			}
		}
	}
	profiles, err := s.store.Profiles().ListByUserIDs(ctx, agentIDs)
	if err != nil {
		return lookups, err
	}
	for _, profile := range profiles {
		lookups.Users[profile.UserID] = profile.DisplayName()
	}
	return lookups, nil
}

func reportCacheKey(scope repository.TicketScope, start, end time.Time) string {
	dept := "-"
	if scope.DepartmentID != nil {
		dept = *scope.DepartmentID
	}
	return fmt.Sprintf("%d:%s:%s:%s", scope.Kind, dept, start.Format(time.DateOnly), end.Format(time.DateOnly))
}
