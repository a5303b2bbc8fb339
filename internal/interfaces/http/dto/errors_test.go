package dto

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeLotNotFound, http.StatusNotFound},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeInsufficientStock, http.StatusUnprocessableEntity},
		{ErrCodeInvalidQuantity, http.StatusUnprocessableEntity},
		{ErrCodeDuplicateLotNumber, http.StatusConflict},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		{ErrCodeInvalidJSON, http.StatusBadRequest},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Domain codes should be normalized
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"INSUFFICIENT_STOCK", ErrCodeInsufficientStock},
		{"DUPLICATE_LOT_NUMBER", ErrCodeDuplicateLotNumber},
		{"INVALID_QUANTITY", ErrCodeInvalidQuantity},
		{"LOT_NOT_FOUND", ErrCodeLotNotFound},
		// Transport codes should pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes should pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorCodeConstants(t *testing.T) {
	// Ensure all error codes are in the HTTP status map
	allCodes := []string{
		ErrCodeUnknown,
		ErrCodeInternal,
		ErrCodeValidation,
		ErrCodeNotFound,
		ErrCodeAlreadyExists,
		ErrCodeConflict,
		ErrCodeConcurrencyConflict,
		ErrCodeLotNotFound,
		ErrCodeInvalidState,
		ErrCodeInsufficientStock,
		ErrCodeInvalidQuantity,
		ErrCodeDuplicateLotNumber,
		ErrCodeBadRequest,
		ErrCodeInvalidInput,
		ErrCodeInvalidJSON,
	}

	for _, code := range allCodes {
		t.Run(code, func(t *testing.T) {
			status, ok := ErrorCodeHTTPStatus[code]
			assert.True(t, ok, "Error code %s should be in ErrorCodeHTTPStatus map", code)
			assert.Greater(t, status, 0, "Status code should be positive")
			assert.True(t, strings.HasPrefix(code, "ERR_"), "Error code %s should have ERR_ prefix", code)
		})
	}
}

func TestDomainErrorCodeMappingTargetsAreKnown(t *testing.T) {
	for domainCode, transportCode := range DomainErrorCodeMapping {
		t.Run(domainCode, func(t *testing.T) {
			_, ok := ErrorCodeHTTPStatus[transportCode]
			assert.True(t, ok, "mapped code %s should resolve to an HTTP status", transportCode)
		})
	}
}
