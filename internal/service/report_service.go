package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	apperrors "cyberguard/internal/errors"
	"cyberguard/internal/model"
	"cyberguard/internal/notify"
	"cyberguard/internal/repository"
	"cyberguard/internal/validation"
)

// ReportService keeps local copies of all reports and of the flagged ones.
type ReportService interface {
	Load(ctx context.Context) error
	Reports() []model.Report
	Flagged() []model.Report
	Get(ctx context.Context, id string) (*model.Report, error)
	Submit(ctx context.Context, in model.ReportInput) (*model.Report, error)
	Flag(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	React(ctx context.Context, id, emoji string) error
	UpdateProgress(ctx context.Context, id, message string) error
	AddUpdate(ctx context.Context, id, message string) error
	Sync(ctx context.Context, interval time.Duration) error
}

type reportService struct {
	repo     repository.ReportRepository
	identity Identity
	notifier notify.Notifier
	logger   *zap.Logger

	mu      sync.RWMutex
	reports []model.Report
	flagged []model.Report
}

// NewReportService creates a ReportService with empty local lists.
func NewReportService(repo repository.ReportRepository, identity Identity, notifier notify.Notifier, logger *zap.Logger) ReportService {
	notifier, logger = orDefaults(notifier, logger)
	return &reportService{
		repo:     repo,
		identity: identity,
		notifier: notifier,
		logger:   logger.Named("reports"),
	}
}

func (s *reportService) fail(message string, err error) error {
	s.notifier.Notify(notify.Failure(message, err))
	return err
}

// Load fetches both lists in parallel. Each list is replaced only when its own
// fetch succeeds; the first failure is returned.
func (s *reportService) Load(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error {
		reports, err := s.repo.List(ctx)
		if err != nil {
			s.notifier.Notify(notify.Failure("Failed to load reports", err))
			return err
		}
		s.mu.Lock()
		s.reports = reports
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		flagged, err := s.repo.Flagged(ctx)
		if err != nil {
			s.notifier.Notify(notify.Failure("Failed to load flagged reports", err))
			return err
		}
		s.mu.Lock()
		s.flagged = flagged
		s.mu.Unlock()
		return nil
	})
	return g.Wait()
}

func (s *reportService) Reports() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReports(s.reports)
}

func (s *reportService) Flagged() []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneReports(s.flagged)
}

// Get fetches one report and refreshes its cached copy.
func (s *reportService) Get(ctx context.Context, id string) (*model.Report, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.fail("Failed to load report", err)
	}
	s.replace(*r)
	return r, nil
}

// Submit validates the form locally; invalid input never reaches the network.
func (s *reportService) Submit(ctx context.Context, in model.ReportInput) (*model.Report, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.IncidentType = strings.TrimSpace(in.IncidentType)
	in.Platform = strings.TrimSpace(in.Platform)
	in.Title = strings.TrimSpace(in.Title)
	if err := validation.Struct(in); err != nil {
		return nil, s.fail("Failed to submit report", err)
	}

	report, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, s.fail("Failed to submit report", err)
	}
	if s.identity.User() != nil {
		s.reloadQuietly(ctx)
	}
	s.notifier.Notify(notify.Success("Report submitted", "Your incident report has been submitted successfully."))
	return report, nil
}

// Flag marks a report for review and reloads both lists.
func (s *reportService) Flag(ctx context.Context, id string) error {
	if err := s.repo.Flag(ctx, id); err != nil {
		return s.fail("Failed to flag report", err)
	}
	s.reloadQuietly(ctx)
	s.notifier.Notify(notify.Success("Report flagged", "The report has been flagged for review."))
	return nil
}

func (s *reportService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("Failed to delete report", err)
	}
	s.remove(id)
	s.notifier.Notify(notify.Success("Report deleted", "The report has been permanently removed."))
	return nil
}

func (s *reportService) React(ctx context.Context, id, emoji string) error {
	in := model.ReactInput{Emoji: strings.TrimSpace(emoji)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to add reaction", err)
	}
	if err := s.repo.React(ctx, id, in); err != nil {
		return s.fail("Failed to add reaction", err)
	}
	s.refetch(ctx, id)
	s.notifier.Notify(notify.Success("Reaction added", fmt.Sprintf("You reacted with %s", in.Emoji)))
	return nil
}

func (s *reportService) UpdateProgress(ctx context.Context, id, message string) error {
	in := model.ProgressInput{Message: strings.TrimSpace(message)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to update progress", err)
	}
	if err := s.repo.UpdateProgress(ctx, id, in); err != nil {
		return s.fail("Failed to update progress", err)
	}
	s.refetch(ctx, id)
	s.notifier.Notify(notify.Success("Progress updated", "Report progress has been updated."))
	return nil
}

func (s *reportService) AddUpdate(ctx context.Context, id, message string) error {
	in := model.ProgressInput{Message: strings.TrimSpace(message)}
	if err := validation.Struct(in); err != nil {
		return s.fail("Failed to add update", err)
	}
	if err := s.repo.AddUpdate(ctx, id, in); err != nil {
		return s.fail("Failed to add update", err)
	}
	s.refetch(ctx, id)
	s.notifier.Notify(notify.Success("Update added", "The report timeline has been updated."))
	return nil
}

// Sync reloads both lists every interval until ctx is cancelled.
func (s *reportService) Sync(ctx context.Context, interval time.Duration) error {
	return poll(ctx, interval, s.reloadQuietly)
}

// reloadQuietly refreshes both lists without emitting notices.
func (s *reportService) reloadQuietly(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		reports, err := s.repo.List(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.reports = reports
		s.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		flagged, err := s.repo.Flagged(ctx)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.flagged = flagged
		s.mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		s.logger.Debug("reload reports", zap.Error(err))
	}
}

// refetch pulls one report after a confirmed mutation; failure is only logged.
func (s *reportService) refetch(ctx context.Context, id string) {
	r, err := s.repo.Get(ctx, id)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		s.remove(id)
	case err != nil:
		s.logger.Warn("refetch report", zap.String("report", id), zap.Error(err))
	default:
		s.replace(*r)
	}
}

// replace swaps the cached copies of r and keeps the flagged list in step
// with r.Flagged.
func (s *reportService) replace(r model.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for i := range s.reports {
		if s.reports[i].ID == r.ID {
			s.reports[i] = r
			found = true
		}
	}
	if !found {
		s.reports = append(s.reports, r)
	}
	s.flagged = withoutReport(s.flagged, r.ID)
	if r.Flagged {
		s.flagged = append(s.flagged, r)
	}
}

func (s *reportService) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = withoutReport(s.reports, id)
	s.flagged = withoutReport(s.flagged, id)
}

func withoutReport(in []model.Report, id string) []model.Report {
	out := in[:0:0]
	for _, r := range in {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

func cloneReports(in []model.Report) []model.Report {
	if in == nil {
		return nil
	}
	out := make([]model.Report, len(in))
	for i, r := range in {
		r.Reactions = append([]model.Reaction(nil), r.Reactions...)
		r.Updates = append([]model.ReportUpdate(nil), r.Updates...)
		out[i] = r
	}
	return out
}
