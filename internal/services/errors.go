package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP codes by the handlers.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("referenced entity not found")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrCustomerInUse    = errors.New("customer has documents")
	ErrItemInUse        = errors.New("item is referenced by documents")
	ErrInvoicePaid      = errors.New("paid invoice cannot be modified")
	ErrQuoteConverted   = errors.New("quote already converted")
	ErrNumberConflict   = errors.New("document number conflict")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// isUniqueViolation matches duplicate-key failures across postgres (translated
// by gorm) and sqlite (string form only).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
