package dto

import "net/http"

// API error codes, ERR_<CATEGORY>_<DESCRIPTION>.
const (
	// General
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	// Validation
	ErrCodeValidation         = "ERR_VALIDATION"
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	ErrCodeValidationRange    = "ERR_VALIDATION_RANGE"

	// Resources
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	// Business rules
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeBusinessRule      = "ERR_BUSINESS_RULE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeLotUnavailable    = "ERR_LOT_UNAVAILABLE"

	// Input
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"

	// Throttling and availability
	ErrCodeRateLimited       = "ERR_RATE_LIMITED"
	ErrCodeExportUnavailable = "ERR_EXPORT_UNAVAILABLE"
)

// GetHTTPStatus maps an API error code to its HTTP status. Unknown codes
// report as internal server errors.
func GetHTTPStatus(code string) int {
	switch code {
	case ErrCodeValidation, ErrCodeValidationRequired, ErrCodeValidationRange,
		ErrCodeBadRequest, ErrCodeInvalidInput, ErrCodeInvalidJSON:
		return http.StatusBadRequest
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict, ErrCodeConcurrencyConflict:
		return http.StatusConflict
	case ErrCodeInvalidState, ErrCodeBusinessRule, ErrCodeInsufficientStock, ErrCodeLotUnavailable:
		return http.StatusUnprocessableEntity
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeExportUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// domainCodeToAPI translates the codes carried by domain errors into the
// API's wire format.
var domainCodeToAPI = map[string]string{
	"NOT_FOUND":                   ErrCodeNotFound,
	"PRODUCT_NOT_FOUND":           ErrCodeNotFound,
	"WAREHOUSE_NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":              ErrCodeAlreadyExists,
	"INVALID_INPUT":               ErrCodeInvalidInput,
	"INVALID_QUANTITY":            ErrCodeValidationRange,
	"INVALID_COST":                ErrCodeValidationRange,
	"INVALID_REASON":              ErrCodeValidationRequired,
	"INVALID_CODE":                ErrCodeValidationRequired,
	"INVALID_NAME":                ErrCodeValidationRequired,
	"INVALID_UNIT":                ErrCodeInvalidInput,
	"INVALID_MOVEMENT_TYPE":       ErrCodeInvalidInput,
	"INVALID_TRANSFER":            ErrCodeInvalidInput,
	"INVALID_MOVEMENT_TRANSITION": ErrCodeInvalidState,
	"MOVEMENT_ALREADY_EXECUTED":   ErrCodeInvalidState,
	"INSUFFICIENT_STOCK":          ErrCodeInsufficientStock,
	"LOT_UNAVAILABLE":             ErrCodeLotUnavailable,
	"CONCURRENCY_CONFLICT":        ErrCodeConcurrencyConflict,
	"OPTIMISTIC_LOCK_FAILED":      ErrCodeConcurrencyConflict,
	"STORAGE_ERROR":               ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := domainCodeToAPI[code]; ok {
		return apiCode
	}
	return code
}
