// Package report implements content flagging for any signed-in user and
// the moderation queue admins triage.
package report

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"skillhub/internal/models"
	"skillhub/internal/session"
	"skillhub/internal/skillhub"
	"skillhub/internal/toast"
	"skillhub/internal/validation"
)

var ErrClosed = errors.New("report form is not open")

type API interface {
	SubmitReport(ctx context.Context, r skillhub.NewReport) (models.Report, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	GetReport(ctx context.Context, id string) (models.Report, error)
	UpdateReportStatus(ctx context.Context, id, status string) error
	DeleteReport(ctx context.Context, id string) error
}

// Fields is what a reporter fills in. Target fields come from the view
// the form was opened on.
type Fields struct {
	Type        string `json:"type" validate:"required,oneof=abuse inappropriate bug"`
	Description string `json:"description" validate:"required,notblank,max=2000"`
	TargetType  string `json:"targetType" validate:"required,oneof=User Course Post Comment"`
	TargetID    string `json:"targetId" validate:"required"`
}

// Form is the report modal.
type Form struct {
	api     API
	sess    session.Session
	toaster toast.Toaster
	log     zerolog.Logger

	mu     sync.Mutex
	open   bool
	fields Fields
}

func NewForm(api API, sess session.Session, toaster toast.Toaster, log zerolog.Logger) *Form {
	if toaster == nil {
		toaster = toast.Discard{}
	}
	return &Form{
		api:     api,
		sess:    sess,
		toaster: toaster,
		log:     log.With().Str("component", "report").Logger(),
	}
}

// Open shows an empty form for the given target.
func (f *Form) Open(targetType, targetID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.fields = Fields{TargetType: targetType, TargetID: targetID}
}

func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.fields = Fields{}
}

func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Form) SetType(t string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Type = strings.ToLower(strings.TrimSpace(t))
}

func (f *Form) SetDescription(d string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields.Description = d
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Submit validates the form and files the report. Invalid input never
// reaches the network. On success the form is reset and closed.
func (f *Form) Submit(ctx context.Context) (models.Report, error) {
	f.mu.Lock()
	open, fields := f.open, f.fields
	f.mu.Unlock()
	if !open {
		return models.Report{}, ErrClosed
	}
	if err := validation.Struct(fields); err != nil {
		f.toaster.Error(err.Error())
		return models.Report{}, err
	}

	created, err := f.api.SubmitReport(ctx, skillhub.NewReport{
		ReporterID:  f.sess.UserID,
		Type:        fields.Type,
		Description: strings.TrimSpace(fields.Description),
		TargetType:  fields.TargetType,
		TargetID:    fields.TargetID,
	})
	if err != nil {
		f.log.Error().Err(err).Str("target_type", fields.TargetType).Str("target_id", fields.TargetID).Msg("submit report")
		f.toaster.Error("Failed to submit report")
		return models.Report{}, err
	}
	f.toaster.Success("Report submitted")
	f.Close()
	return created, nil
}
