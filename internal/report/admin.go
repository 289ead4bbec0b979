package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"skillhub/internal/apperrors"
	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/toast"
)

// Admin is the moderation queue: a list view and a detail view.
type Admin struct {
	api     API
	sess    session.Session
	toaster toast.Toaster
	log     zerolog.Logger
	onBack  func()

	mu       sync.Mutex
	reports  []models.Report
	selected *models.Report
}

// NewAdmin returns the moderation view. onBack, when set, is called after
// a delete to send the user back to the list.
func NewAdmin(api API, sess session.Session, toaster toast.Toaster, log zerolog.Logger, onBack func()) *Admin {
	if toaster == nil {
		toaster = toast.Discard{}
	}
	return &Admin{
		api:     api,
		sess:    sess,
		toaster: toaster,
		log:     log.With().Str("component", "report_admin").Logger(),
		onBack:  onBack,
	}
}

func (a *Admin) requireAdmin() error {
	if !a.sess.IsAdmin() {
		return apperrors.NewForbiddenError("reports are visible to admins only")
	}
	return nil
}

// List fetches every report and replaces the local list.
func (a *Admin) List(ctx context.Context) ([]models.Report, error) {
	if err := a.requireAdmin(); err != nil {
		return nil, err
	}
	reports, err := a.api.ListReports(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("list reports")
		a.toaster.Error("Failed to load reports")
		return nil, err
	}
	a.mu.Lock()
	a.reports = reports
	a.mu.Unlock()
	return append([]models.Report(nil), reports...), nil
}

// Get opens the detail view of one report.
func (a *Admin) Get(ctx context.Context, id string) (models.Report, error) {
	if err := a.requireAdmin(); err != nil {
		return models.Report{}, err
	}
	r, err := a.api.GetReport(ctx, id)
	if err != nil {
		a.log.Error().Err(err).Str("report_id", id).Msg("get report")
		if apperrors.Is(err, apperrors.ErrNotFound) {
			a.toaster.Error("Report not found")
			return models.Report{}, apperrors.NewNotFoundError(fmt.Sprintf("report %s not found", id))
		}
		a.toaster.Error("Failed to load report")
		return models.Report{}, err
	}
	a.mu.Lock()
	a.selected = &r
	a.mu.Unlock()
	return r, nil
}

func (a *Admin) Reports() []models.Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.Report(nil), a.reports...)
}

// Selected returns the report open in the detail view.
func (a *Admin) Selected() (models.Report, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.selected == nil {
		return models.Report{}, false
	}
	return *a.selected, true
}

// Resolve marks a report resolved and updates the local copies in place.
func (a *Admin) Resolve(ctx context.Context, id string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.api.UpdateReportStatus(ctx, id, models.ReportResolved); err != nil {
		a.log.Error().Err(err).Str("report_id", id).Msg("resolve report")
		a.toaster.Error("Failed to resolve report")
		return err
	}
	a.mu.Lock()
	for i := range a.reports {
		if a.reports[i].ID == id {
			a.reports[i].Status = models.ReportResolved
		}
	}
	if a.selected != nil && a.selected.ID == id {
		a.selected.Status = models.ReportResolved
	}
	a.mu.Unlock()
	a.toaster.Success("Report resolved")
	return nil
}

// Delete removes a report, drops it from the list and leaves the detail view.
func (a *Admin) Delete(ctx context.Context, id string) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.api.DeleteReport(ctx, id); err != nil {
		a.log.Error().Err(err).Str("report_id", id).Msg("delete report")
		a.toaster.Error("Failed to delete report")
		return err
	}
	a.mu.Lock()
	kept := a.reports[:0]
	for _, r := range a.reports {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	a.reports = kept
	if a.selected != nil && a.selected.ID == id {
		a.selected = nil
	}
	a.mu.Unlock()
	a.toaster.Success("Report deleted")
	if a.onBack != nil {
		a.onBack()
	}
	return nil
}

// TargetLabel is the human label for what a report points at.
func TargetLabel(r models.Report) string {
	switch r.TargetType {
	case models.TargetUser:
		if r.TargetID.Fullname != "" {
			return r.TargetID.Fullname
		}
	case models.TargetCourse:
		if r.TargetID.Title != "" {
			return r.TargetID.Title
		}
	}
	return r.TargetID.ID
}
