package repository

import (
	"context"
	"net/http"

	"cyberguard/internal/model"
)

const reportsRoot = "/reports"

// ReportRepository wraps the incident report endpoints.
type ReportRepository interface {
	List(ctx context.Context) ([]model.Report, error)
	Flagged(ctx context.Context) ([]model.Report, error)
	Get(ctx context.Context, id string) (*model.Report, error)
	Create(ctx context.Context, in model.ReportInput) (*model.Report, error)
	Flag(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	React(ctx context.Context, id string, in model.ReactInput) error
	UpdateProgress(ctx context.Context, id string, in model.ProgressInput) error
	AddUpdate(ctx context.Context, id string, in model.ProgressInput) error
}

type reportRepository struct {
	api API
}

// NewReportRepository builds an HTTP-backed ReportRepository.
func NewReportRepository(api API) ReportRepository {
	return &reportRepository{api: api}
}

func (r *reportRepository) List(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := r.api.JSON(ctx, http.MethodGet, reportsRoot, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) Flagged(ctx context.Context) ([]model.Report, error) {
	var reports []model.Report
	if err := r.api.JSON(ctx, http.MethodGet, path(reportsRoot, "flagged"), nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *reportRepository) Get(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := r.api.JSON(ctx, http.MethodGet, path(reportsRoot, id), nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Create submits a report. Anonymous reports never carry the bearer token;
// others carry it when one is stored so the backend can attribute them.
func (r *reportRepository) Create(ctx context.Context, in model.ReportInput) (*model.Report, error) {
	send := r.api.JSON
	if in.Anonymous {
		send = r.api.PublicJSON
	}
	var report model.Report
	if err := send(ctx, http.MethodPost, reportsRoot, in, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) Flag(ctx context.Context, id string) error {
	return r.api.JSON(ctx, http.MethodPatch, path(reportsRoot, id, "flag"), nil, nil)
}

func (r *reportRepository) Delete(ctx context.Context, id string) error {
	return r.api.JSON(ctx, http.MethodDelete, path(reportsRoot, id), nil, nil)
}

func (r *reportRepository) React(ctx context.Context, id string, in model.ReactInput) error {
	return r.api.JSON(ctx, http.MethodPatch, path(reportsRoot, id, "react"), in, nil)
}

func (r *reportRepository) UpdateProgress(ctx context.Context, id string, in model.ProgressInput) error {
	return r.api.JSON(ctx, http.MethodPatch, path(reportsRoot, id, "progress"), in, nil)
}

func (r *reportRepository) AddUpdate(ctx context.Context, id string, in model.ProgressInput) error {
	return r.api.JSON(ctx, http.MethodPost, path(reportsRoot, id, "update"), in, nil)
}
