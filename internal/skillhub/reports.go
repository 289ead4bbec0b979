package skillhub

import (
	"context"

	"skillhub/internal/models"
)

type NewReport struct {
	ReporterID  string `json:"reporterId"`
	Type        string `json:"type"`
	Description string `json:"description"`
	TargetType  string `json:"targetType"`
	TargetID    string `json:"targetId"`
}

func (a *API) SubmitReport(ctx context.Context, r NewReport) (models.Report, error) {
	var out models.Report
	err := a.c.Post(ctx, "/report", r, &out)
	return out, err
}

func (a *API) ListReports(ctx context.Context) ([]models.Report, error) {
	var out []models.Report
	err := a.c.Get(ctx, "/reports", &out)
	return out, err
}

func (a *API) GetReport(ctx context.Context, id string) (models.Report, error) {
	var out models.Report
	err := a.c.Get(ctx, "/reports/"+esc(id), &out)
	return out, err
}

func (a *API) UpdateReportStatus(ctx context.Context, id, status string) error {
	return a.c.Patch(ctx, "/reports/"+esc(id), map[string]string{"status": status}, nil)
}

func (a *API) DeleteReport(ctx context.Context, id string) error {
	return a.c.Delete(ctx, "/report/"+esc(id), nil)
}

// Notifications

func (a *API) ListNotifications(ctx context.Context, userID string) ([]models.Notification, error) {
	var out []models.Notification
	err := a.c.Get(ctx, "/notifications/"+esc(userID), &out)
	return out, err
}

func (a *API) MarkNotificationRead(ctx context.Context, id string) error {
	return a.c.Patch(ctx, "/notifications/"+esc(id)+"/read", map[string]any{}, nil)
}
