package billing

import "time"

// Quote statuses.
const (
	QuoteStatusDraft     = "draft"
	QuoteStatusSent      = "sent"
	QuoteStatusSeen      = "seen"
	QuoteStatusConverted = "converted"
)

// Invoice statuses. Overdue is derived at read time from the due date and is
// never stored.
const (
	InvoiceStatusDraft     = "draft"
	InvoiceStatusSent      = "sent"
	InvoiceStatusPaid      = "paid"
	InvoiceStatusCancelled = "cancelled"
	InvoiceStatusOverdue   = "overdue"
)

func ValidQuoteStatus(s string) bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusSeen, QuoteStatusConverted:
		return true
	}
	return false
}

func ValidInvoiceStatus(s string) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusPaid, InvoiceStatusCancelled:
		return true
	}
	return false
}

// EffectiveInvoiceStatus maps a stored status to the one shown to callers:
// a sent invoice past its due date reads as overdue.
func EffectiveInvoiceStatus(stored string, dueDate, now time.Time) string {
	if stored == InvoiceStatusSent && !dueDate.IsZero() && now.After(dueDate) {
		return InvoiceStatusOverdue
	}
	return stored
}
