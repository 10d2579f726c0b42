package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidCount   ErrCode = "INVALID_COUNT"
	ErrInvalidFormat  ErrCode = "UNSUPPORTED_EXPORT_FORMAT"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Files ─────────────────────────────────────────────────────────
	ErrFileRequired     ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile  ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge     ErrCode = "FILE_TOO_LARGE"
	ErrInvalidWorkbook  ErrCode = "INVALID_WORKBOOK"
	ErrEmptyCSV         ErrCode = "EMPTY_CSV"
	ErrInvalidFileName  ErrCode = "INVALID_FILE_NAME"
	ErrFileNotFound     ErrCode = "FILE_NOT_FOUND"
	ErrImportJobMissing ErrCode = "IMPORT_JOB_NOT_FOUND"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal    ErrCode = "INTERNAL_ERROR"
	ErrUnavailable ErrCode = "SERVICE_UNAVAILABLE"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidCount:
		return "Count must be a positive number within the allowed limit."
	case ErrInvalidFormat:
		return "Export format must be one of csv, xlsx or pdf."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Files ─────────────────────────────────────────────────────────
	case ErrFileRequired:
		return "A file upload is required."
	case ErrUnsupportedFile:
		return "Unsupported file type."
	case ErrFileTooLarge:
		return "File size exceeds the limit."
	case ErrInvalidWorkbook:
		return "The uploaded workbook could not be read."
	case ErrEmptyCSV:
		return "CSV file is empty."
	case ErrInvalidFileName:
		return "Invalid file name."
	case ErrFileNotFound:
		return "File not found."
	case ErrImportJobMissing:
		return "Import job not found."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	case ErrUnavailable:
		return "A backing service is unavailable."
	default:
		return "An unexpected error occurred."
	}
}
