package model

import "time"

// Report types recognized by the system.
const (
	ReportTypeProteinTest = "protein_test"
	ReportTypeGeneTest    = "gene_test"
	ReportTypeBloodTest   = "blood_test"
	ReportTypeUrineTest   = "urine_test"
	ReportTypeOtherTest   = "other_test"
)

// Report represents a health report record owning one stored file.
// FilePath is a logical reference, not a filesystem path: either a legacy
// "/uploads/reports/..." string or a relative "user_<id>/<uuid>_<name><ext>"
// path under the storage root. This is a pure domain model with no
// database-specific dependencies or tags.
type Report struct {
	ID               string     `json:"id"`
	UserID           int64      `json:"user_id"`
	ReportType       string     `json:"report_type"`
	Status           string     `json:"status"`
	FilePath         string     `json:"file_path"`
	FileSize         int64      `json:"file_size"`
	OriginalFilename string     `json:"original_filename"`
	ReportDate       *time.Time `json:"report_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"-"`
}

// Active reports whether the report has not been soft-deleted.
func (r *Report) Active() bool {
	return r.DeletedAt == nil
}
