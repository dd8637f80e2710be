package rides

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/richxcame/rider-client/internal/notify"
	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/logger"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/storage"
	"go.uber.org/zap"
)

// MaxAttachments is the most files a report may carry.
const MaxAttachments = 5

// Attachment is a file the rider adds to a report
type Attachment struct {
	Filename    string
	ContentType string // derived from the extension when empty
	Size        int64
	Body        io.Reader
}

// ReportInput is what the rider fills in
type ReportInput struct {
	ViolationTypeID string
	Description     string
	Attachments     []Attachment
}

// ReportFlow files a driver report for a ride.
type ReportFlow struct {
	ride     models.Ride
	client   RideClient
	store    storage.Storage
	notifier notify.Notifier
	maxBytes int64
	logger   *zap.Logger
}

// NewReportFlow creates the flow. store may be nil when attachments are not supported.
func NewReportFlow(ride models.Ride, client RideClient, store storage.Storage, notifier notify.Notifier, maxSizeMB int, log *zap.Logger) *ReportFlow {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &ReportFlow{
		ride:     ride,
		client:   client,
		store:    store,
		notifier: notifier,
		maxBytes: int64(maxSizeMB) << 20,
		logger:   logger.OrNop(log).With(zap.String("ride_id", ride.ID)),
	}
}

// ViolationTypes lists what can be reported.
func (r *ReportFlow) ViolationTypes(ctx context.Context) ([]models.ViolationType, error) {
	if !ActionsFor(r.ride.Status).CanReport {
		return nil, unavailable("reporting", r.ride.Status)
	}
	types, err := r.client.ViolationTypes(ctx)
	if err != nil {
		r.notifyError(ctx, err)
		return nil, err
	}
	return types, nil
}

// Submit validates in, uploads its attachments and files the report as pending.
// Uploaded files are removed again when the report is rejected.
func (r *ReportFlow) Submit(ctx context.Context, in ReportInput) error {
	if !ActionsFor(r.ride.Status).CanReport {
		return unavailable("reporting", r.ride.Status)
	}
	if err := r.validate(&in); err != nil {
		r.notifyError(ctx, err)
		return err
	}

	var keys, urls []string
	for _, a := range in.Attachments {
		key := storage.ReportMediaKey(r.ride.ID, a.Filename, time.Now())
		res, err := r.store.Upload(ctx, key, a.Body, a.Size, a.ContentType)
		if err != nil {
			r.cleanup(keys)
			err = common.NewServiceUnavailableError(fmt.Sprintf("Could not upload %s", a.Filename))
			r.notifyError(ctx, err)
			return err
		}
		keys = append(keys, key)
		urls = append(urls, res.URL)
	}

	report := models.Report{
		RideID:          r.ride.ID,
		ViolationTypeID: in.ViolationTypeID,
		Description:     strings.TrimSpace(in.Description),
		Attachments:     urls,
		Status:          models.ReportStatusPending,
	}
	if r.ride.Driver != nil {
		report.DriverID = r.ride.Driver.ID
	} else if r.ride.DriverID != nil {
		report.DriverID = *r.ride.DriverID
	}

	if err := r.client.SubmitReport(ctx, report); err != nil {
		r.cleanup(keys)
		r.notifyError(ctx, err)
		return err
	}
	r.logger.Info("report submitted", zap.String("violation_type_id", in.ViolationTypeID), zap.Int("attachments", len(urls)))
	if r.notifier != nil {
		r.notifier.Success(ctx, "rider.report.submitted")
	}
	return nil
}

func (r *ReportFlow) validate(in *ReportInput) error {
	if strings.TrimSpace(in.ViolationTypeID) == "" {
		return common.NewBadRequestError("choose what went wrong", nil)
	}
	if len(in.Attachments) > MaxAttachments {
		return common.NewBadRequestError(fmt.Sprintf("at most %d attachments are allowed", MaxAttachments), nil)
	}
	if len(in.Attachments) > 0 && r.store == nil {
		return common.NewBadRequestError("attachments are not supported", nil)
	}
	for i := range in.Attachments {
		a := &in.Attachments[i]
		if a.ContentType == "" {
			a.ContentType = storage.ContentTypeFor(a.Filename)
		}
		if !storage.ReportMedia.Allows(a.ContentType) {
			return common.NewBadRequestError(fmt.Sprintf("%s: unsupported file type", a.Filename), nil)
		}
		if a.Size > r.maxBytes {
			return common.NewBadRequestError(fmt.Sprintf("%s is larger than %d MB", a.Filename, r.maxBytes>>20), nil)
		}
		if a.Body == nil {
			return common.NewBadRequestError(fmt.Sprintf("%s has no content", a.Filename), nil)
		}
	}
	return nil
}

// cleanup uses a fresh context; the submit context may already be done.
func (r *ReportFlow) cleanup(keys []string) {
	for _, k := range keys {
		if err := r.store.Delete(context.Background(), k); err != nil {
			r.logger.Warn("failed to remove orphaned attachment", zap.String("key", k), zap.Error(err))
		}
	}
}

func (r *ReportFlow) notifyError(ctx context.Context, err error) {
	if r.notifier != nil {
		r.notifier.Error(ctx, err)
	}
}
