package models

// ViolationType is a reportable kind of driver misconduct
type ViolationType struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ReportStatusPending is the only status a client-submitted report carries
const ReportStatusPending = "pending"

// Report is the body of POST /api/reports
type Report struct {
	RideID          string   `json:"ride_id" validate:"required"`
	DriverID        string   `json:"driver_id,omitempty"`
	ViolationTypeID string   `json:"violation_type_id" validate:"required"`
	Description     string   `json:"description,omitempty" validate:"max=2000"`
	Attachments     []string `json:"attachments,omitempty" validate:"max=5,dive,url"`
	Status          string   `json:"status"`
}
