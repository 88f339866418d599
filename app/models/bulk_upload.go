package models

import "time"

// Bulk upload statuses. An upload is created as processing and finalized once.
const (
	BulkUploadProcessing = "processing"
	BulkUploadCompleted  = "completed"
)

// BulkUpload tracks one CSV import batch. At completion
// successful_records + failed_records equals processed_records.
type BulkUpload struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UUID              string     `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	UploadName        string     `gorm:"type:varchar(255);not null" json:"upload_name"`
	FileName          string     `gorm:"type:varchar(255);not null" json:"file_name"`
	FileSize          int64      `gorm:"not null;default:0" json:"file_size"`
	ArchiveKey        string     `gorm:"type:varchar(255);default:''" json:"archive_key,omitempty"`
	ProcessedRecords  int        `gorm:"not null;default:0" json:"processed_records"`
	SuccessfulRecords int        `gorm:"not null;default:0" json:"successful_records"`
	FailedRecords     int        `gorm:"not null;default:0" json:"failed_records"`
	Status            string     `gorm:"type:varchar(20);not null;default:'processing';index" json:"status"`
	UploadedBy        uint       `gorm:"index" json:"uploaded_by"`
	CompletedAt       *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (BulkUpload) TableName() string {
	return "bulk_uploads"
}

// BulkUploadError records one failed input row. RowNumber is 1-based and
// counts data rows, not the header.
type BulkUploadError struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BulkUploadID uint      `gorm:"not null;index" json:"bulk_upload_id"`
	RowNumber    int       `gorm:"not null" json:"row_number"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	RawRow       string    `gorm:"type:text" json:"raw_row"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (BulkUploadError) TableName() string {
	return "bulk_upload_errors"
}
