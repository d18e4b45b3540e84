package dto

import (
	"errors"
	"net/http"

	"github.com/erp/stockengine/internal/domain/shared"
)

// Error codes exposed over HTTP. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidQuantity     = "ERR_INVALID_QUANTITY"
	ErrCodeNoBillOfMaterials   = "ERR_NO_BILL_OF_MATERIALS"
	ErrCodeNothingToReceive    = "ERR_NOTHING_TO_RECEIVE"
	ErrCodeNothingPending      = "ERR_NOTHING_PENDING"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidTransition   = "ERR_INVALID_TRANSITION"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
	ErrCodeMissingActor        = "ERR_MISSING_ACTOR"
	ErrCodeRequestTooLarge     = "ERR_REQUEST_TOO_LARGE"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodeDuplicateRequest    = "ERR_DUPLICATE_REQUEST"
)

// domainCodes maps domain error codes to their HTTP codes
var domainCodes = map[string]string{
	shared.CodeValidation:          ErrCodeValidation,
	shared.CodeInvalidInput:        ErrCodeInvalidInput,
	shared.CodeInvalidQuantity:     ErrCodeInvalidQuantity,
	shared.CodeNoBillOfMaterials:   ErrCodeNoBillOfMaterials,
	shared.CodeNothingToReceive:    ErrCodeNothingToReceive,
	shared.CodeNothingPending:      ErrCodeNothingPending,
	shared.CodeAlreadyExists:       ErrCodeAlreadyExists,
	shared.CodeInsufficientStock:   ErrCodeInsufficientStock,
	shared.CodeInvalidTransition:   ErrCodeInvalidTransition,
	shared.CodeInvalidState:        ErrCodeInvalidState,
	shared.CodeNotFound:            ErrCodeNotFound,
	shared.CodeConcurrencyConflict: ErrCodeConcurrencyConflict,
}

// kindStatus maps error kinds to HTTP status codes
var kindStatus = map[shared.ErrorKind]int{
	shared.KindValidation:        http.StatusBadRequest,
	shared.KindInsufficientStock: http.StatusUnprocessableEntity,
	shared.KindInvalidTransition: http.StatusUnprocessableEntity,
	shared.KindNotFound:          http.StatusNotFound,
	shared.KindConcurrency:       http.StatusConflict,
	shared.KindInternal:          http.StatusInternalServerError,
}

// NormalizeErrorCode converts a domain code to its HTTP code. Unknown codes
// pass through unchanged.
func NormalizeErrorCode(code string) string {
	if c, ok := domainCodes[code]; ok {
		return c
	}
	return code
}

// FromError builds the status and error body for err. Errors that are not
// domain errors are reported as internal without leaking their text.
func FromError(err error, requestID string) (int, ErrorInfo) {
	var de *shared.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrorInfo{
			Code:      ErrCodeInternal,
			Message:   "An unexpected error occurred",
			RequestID: requestID,
		}
	}

	kind := shared.KindOf(de)
	status := kindStatus[kind]
	if de.Code == shared.CodeAlreadyExists {
		status = http.StatusConflict
	}
	return status, ErrorInfo{
		Code:      NormalizeErrorCode(de.Code),
		Message:   de.Message,
		Details:   de.Details,
		Retryable: shared.IsRetryable(de),
		RequestID: requestID,
	}
}
