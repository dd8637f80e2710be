package backend

import (
	"context"

	"github.com/richxcame/rider-client/pkg/common"
	"github.com/richxcame/rider-client/pkg/models"
	"github.com/richxcame/rider-client/pkg/validation"
)

// SubmitReport files a driver report. Status is always pending.
func (c *Client) SubmitReport(ctx context.Context, report models.Report) error {
	report.Status = models.ReportStatusPending
	if err := validation.Struct(report); err != nil {
		return common.NewBadRequestError(err.Error(), err)
	}
	return c.post(ctx, "/api/reports", report, nil)
}
