package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestgate/internal/domain"
)

type reportService struct {
	reportRepo     domain.ReportRepository
	auditRepo      domain.AuditRepository
	eventRepo      domain.EventRepository
	guestRepo      domain.GuestRepository
	quotaService   domain.QuotaService
	userService    domain.UserService
	contextTimeout time.Duration
}

// NewReportService creates the read-side report projections. Each report
// kind is a fixed record shape; nothing here mutates state.
func NewReportService(
	reportRepo domain.ReportRepository,
	auditRepo domain.AuditRepository,
	eventRepo domain.EventRepository,
	guestRepo domain.GuestRepository,
	quotaService domain.QuotaService,
	userService domain.UserService,
	timeout time.Duration,
) domain.ReportService {
	return &reportService{
		reportRepo:     reportRepo,
		auditRepo:      auditRepo,
		eventRepo:      eventRepo,
		guestRepo:      guestRepo,
		quotaService:   quotaService,
		userService:    userService,
		contextTimeout: timeout,
	}
}

func (s *reportService) AdminReport(ctx context.Context, actorID string) (*domain.AdminReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.Can(domain.CapBypassOwnership) {
		return nil, domain.ErrForbidden
	}

	events, err := s.reportRepo.CountEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	guests, checkedIn, err := s.reportRepo.CountGuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("count guests: %w", err)
	}
	tierUsage, err := s.reportRepo.TierUsage(ctx)
	if err != nil {
		return nil, fmt.Errorf("tier usage: %w", err)
	}
	if tierUsage == nil {
		tierUsage = []*domain.TierUsageLine{}
	}
	actionCounts, err := s.auditRepo.CountByAction(ctx, domain.AuditFilter{})
	if err != nil {
		return nil, fmt.Errorf("count audit actions: %w", err)
	}

	return &domain.AdminReport{
		TotalEvents:    events,
		TotalGuests:    guests,
		TotalCheckedIn: checkedIn,
		TierUsage:      tierUsage,
		ActionCounts:   actionCounts,
		GeneratedAt:    time.Now(),
	}, nil
}

func (s *reportService) ManagerReport(ctx context.Context, managerID string) (*domain.EventManagerReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	summary, err := s.quotaService.Summary(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("quota summary: %w", err)
	}
	events, err := s.eventRepo.ListByOwnerID(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return &domain.EventManagerReport{
		ManagerID:   managerID,
		Summary:     summary,
		Events:      events,
		GeneratedAt: time.Now(),
	}, nil
}

func (s *reportService) GuestsReport(ctx context.Context, eventID, actorID string) (*domain.GuestsReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	actor, err := s.userService.ResolveActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actorID && !actor.Can(domain.CapBypassOwnership) {
		return nil, domain.ErrForbidden
	}

	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w", err)
	}
	report := &domain.GuestsReport{
		EventID:          eventID,
		EventName:        event.Name,
		CountsByCategory: make(map[domain.GuestCategory]int),
		Guests:           guests,
		GeneratedAt:      time.Now(),
	}
	if report.Guests == nil {
		report.Guests = []*domain.Guest{}
	}
	for _, g := range guests {
		report.GuestCount++
		report.CompanionCount += g.Companions
		report.CountsByCategory[g.Category]++
		if g.CheckedIn {
			report.CheckedInCount++
		}
	}
	return report, nil
}
