package bulkimport

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/drishiq/drishiq/app/models"
	"github.com/drishiq/drishiq/internal/pkg/invitecode"
)

var (
	ErrMalformedCSV   = errors.New("file is not parseable as CSV")
	ErrMissingColumns = errors.New("required columns missing: name, email, phone, language")
	ErrTooManyRows    = errors.New("file exceeds the row limit for this plan")
)

// SummaryErrorLimit caps how many row errors an import response carries.
// The full list stays queryable per upload.
const SummaryErrorLimit = 10

// Archiver stores the raw CSV after processing. A nil archiver skips the step.
type Archiver interface {
	ArchiveCSV(ctx context.Context, key string, data []byte) error
}

// Result summarizes one import run. Errors holds at most SummaryErrorLimit
// entries; TotalErrors is the full count.
type Result struct {
	Upload      *models.BulkUpload        `json:"upload"`
	Errors      []models.BulkUploadError  `json:"errors"`
	TotalErrors int                       `json:"total_errors"`
}

// Importer turns an uploaded CSV into bulk_uploaded invitations, one row at a
// time. A bad row records an error and moves on; it never aborts the batch.
type Importer struct {
	repo     Repository
	archiver Archiver
	validate *validator.Validate
}

func NewImporter(repo Repository, archiver Archiver) *Importer {
	return &Importer{
		repo:     repo,
		archiver: archiver,
		validate: validator.New(),
	}
}

func NewImporterFromDB(db *gorm.DB, archiver Archiver) *Importer {
	return NewImporter(NewRepository(db), archiver)
}

type rowInput struct {
	Name     string `validate:"required,min=2,max=150"`
	Email    string `validate:"required,email,max=200"`
	Phone    string `validate:"max=30"`
	Language string `validate:"max=10"`
	Note     string
}

// Import validates the file, checks the header, then processes every data row
// independently. The returned error is non-nil only for whole-file rejections;
// row-level failures land in Result.Errors.
func (im *Importer) Import(ctx context.Context, actorID uint, uploadName, fileName string, data []byte, maxRows int) (*Result, error) {
	if err := ValidateCSVFile(fileName, data); err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, ErrMalformedCSV
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}

	columns, err := parseHeader(records[0])
	if err != nil {
		return nil, err
	}
	rows := records[1:]
	if maxRows > 0 && len(rows) > maxRows {
		return nil, ErrTooManyRows
	}

	upload := &models.BulkUpload{
		UUID:       uuid.NewString(),
		UploadName: strings.TrimSpace(uploadName),
		FileName:   fileName,
		FileSize:   int64(len(data)),
		Status:     models.BulkUploadProcessing,
		UploadedBy: actorID,
	}
	if upload.UploadName == "" {
		upload.UploadName = fileName
	}
	if err := im.repo.CreateBulkUpload(upload); err != nil {
		return nil, err
	}

	result := &Result{Upload: upload}
	seenEmails := make(map[string]int)
	successful := 0

	for i, record := range rows {
		rowNumber := i + 1
		if err := im.importRow(ctx, upload, columns, record, rowNumber, seenEmails); err != nil {
			im.recordRowError(result, upload.ID, rowNumber, err.Error(), strings.Join(record, ","))
			continue
		}
		successful++
	}

	archiveKey := ""
	if im.archiver != nil {
		archiveKey = fmt.Sprintf("bulk-uploads/%s/%s", upload.UUID, fileName)
		if err := im.archiver.ArchiveCSV(ctx, archiveKey, data); err != nil {
			logrus.WithError(err).WithField("upload_uuid", upload.UUID).Warn("failed to archive import file")
			archiveKey = ""
		}
	}

	if err := im.repo.FinalizeBulkUpload(upload.ID, len(rows), successful, result.TotalErrors, archiveKey); err != nil {
		return nil, err
	}
	upload.ProcessedRecords = len(rows)
	upload.SuccessfulRecords = successful
	upload.FailedRecords = result.TotalErrors
	upload.Status = models.BulkUploadCompleted
	upload.ArchiveKey = archiveKey

	logrus.WithFields(logrus.Fields{
		"upload_uuid": upload.UUID,
		"processed":   upload.ProcessedRecords,
		"successful":  upload.SuccessfulRecords,
		"failed":      upload.FailedRecords,
	}).Info("bulk import finished")
	return result, nil
}

func (im *Importer) importRow(ctx context.Context, upload *models.BulkUpload, columns map[string]int, record []string, rowNumber int, seenEmails map[string]int) error {
	_ = ctx
	field := func(name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	input := rowInput{
		Name:     field("name"),
		Email:    strings.ToLower(field("email")),
		Phone:    field("phone"),
		Language: field("language"),
		Note:     field("note"),
	}
	if err := im.validate.Struct(&input); err != nil {
		return fmt.Errorf("invalid row: %s", firstValidationError(err))
	}
	if prevRow, seen := seenEmails[input.Email]; seen {
		return fmt.Errorf("duplicate email, already present in row %d", prevRow)
	}
	open, err := im.repo.HasOpenInvitation(input.Email)
	if err != nil {
		return err
	}
	if open {
		return errors.New("an open invitation already exists for this email")
	}

	code, err := invitecode.Generate(invitecode.DefaultLength)
	if err != nil {
		return err
	}
	inv := &models.Invitation{
		UUID:          uuid.NewString(),
		Code:          code,
		Category:      models.CategoryBulkUploaded,
		Status:        models.InvitationPending,
		Name:          input.Name,
		Email:         input.Email,
		Phone:         input.Phone,
		Language:      input.Language,
		Note:          input.Note,
		BulkUploadID:  &upload.ID,
		BulkUploadRow: rowNumber,
	}
	if inv.Language == "" {
		inv.Language = "en"
	}
	if err := im.repo.CreateInvitation(inv); err != nil {
		return err
	}
	seenEmails[input.Email] = rowNumber
	return nil
}

func (im *Importer) recordRowError(result *Result, uploadID uint, rowNumber int, message, rawRow string) {
	rowErr := models.BulkUploadError{
		BulkUploadID: uploadID,
		RowNumber:    rowNumber,
		Message:      message,
		RawRow:       rawRow,
	}
	if err := im.repo.CreateBulkUploadError(&rowErr); err != nil {
		logrus.WithError(err).WithField("row", rowNumber).Error("failed to persist row error")
	}
	result.TotalErrors++
	if len(result.Errors) < SummaryErrorLimit {
		result.Errors = append(result.Errors, rowErr)
	}
}

// requiredColumns must all be present in the header row; a missing one
// rejects the whole file before any row is processed.
var requiredColumns = []string{"name", "email", "phone", "language"}

// parseHeader maps lower-cased column names to their index.
func parseHeader(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		if name != "" {
			columns[name] = i
		}
	}
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, ErrMissingColumns
		}
	}
	return columns, nil
}

func firstValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fmt.Sprintf("field %s failed on %s", strings.ToLower(fe.Field()), fe.Tag())
	}
	return err.Error()
}
