package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// InvoiceInput is DocumentInput plus invoice dates: Date is the issue date,
// DueDate defaults to issue + 30 days when zero.
type InvoiceInput struct {
	DocumentInput
	DueDate time.Time
}

type InvoiceService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
}

func NewInvoiceService(db *gorm.DB, c *cache.Cache, log *logrus.Logger) *InvoiceService {
	return &InvoiceService{db: db, cache: c, log: log}
}

func (s *InvoiceService) Create(ctx context.Context, userID uint, in InvoiceInput) (*models.Invoice, error) {
	var created *models.Invoice
	for attempt := 0; ; attempt++ {
		inv := s.newFromInput(userID, in)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := checkDocumentRefs(tx, userID, in.DocumentInput); err != nil {
				return err
			}
			year := time.Now().Year()
			last, err := lastNumber(tx, &models.Invoice{}, "invoice_number", userID, billing.InvoicePrefix, year)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = billing.NextNumber(billing.InvoicePrefix, last, year)
			if err := tx.Create(inv).Error; err != nil {
				return err
			}
			if err := s.replaceItems(tx, inv, in.Lines); err != nil {
				return err
			}
			if err := s.recalculate(tx, inv); err != nil {
				return err
			}
			return writeAudit(tx, userID, models.EntityInvoice, inv.PublicID, "created", inv.InvoiceNumber)
		})
		if err == nil {
			created = inv
			break
		}
		if isUniqueViolation(err) {
			if attempt == 0 {
				s.log.WithFields(logrus.Fields{"user_id": userID, "number": inv.InvoiceNumber}).Warn("invoice number collision, regenerating")
				continue
			}
			return nil, ErrNumberConflict
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindInvoice)
	return s.Get(ctx, userID, created.ID)
}

// Update rejects paid invoices; everything else follows the quote update
// shape: header rewrite, batch line replacement, recalculation, one
// transaction.
func (s *InvoiceService) Update(ctx context.Context, userID, invoiceID uint, in InvoiceInput) (*models.Invoice, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
			return notFound(err)
		}
		if inv.Status == billing.InvoiceStatusPaid {
			return ErrInvoicePaid
		}
		if err := checkDocumentRefs(tx, userID, in.DocumentInput); err != nil {
			return err
		}
		issue, due := invoiceDates(in)
		updates := map[string]any{
			"customer_id":    in.CustomerID,
			"title":          in.Title,
			"po_number":      in.PONumber,
			"issue_date":     issue,
			"due_date":       due,
			"currency":       in.Currency,
			"discount_type":  in.DiscountType,
			"discount_value": in.DiscountValue,
			"tax_rate":       in.TaxRate,
			"terms":          in.Terms,
			"notes":          in.Notes,
		}
		if err := tx.Model(&inv).Updates(updates).Error; err != nil {
			return err
		}
		inv.DiscountType = in.DiscountType
		inv.DiscountValue = in.DiscountValue
		inv.TaxRate = in.TaxRate
		if err := s.replaceItems(tx, &inv, in.Lines); err != nil {
			return err
		}
		if err := s.recalculate(tx, &inv); err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityInvoice, inv.PublicID, "updated", inv.InvoiceNumber)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindInvoice)
	return s.Get(ctx, userID, invoiceID)
}

// SetStatus updates the stored status and appends the transition to the
// invoice's history in the same transaction. Any status may follow any other.
func (s *InvoiceService) SetStatus(ctx context.Context, userID, invoiceID uint, status string) (*models.Invoice, error) {
	if !billing.ValidInvoiceStatus(status) {
		return nil, ErrInvalidStatus
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
			return notFound(err)
		}
		if inv.Status == status {
			return nil
		}
		from := inv.Status
		if err := tx.Model(&inv).Update("status", status).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.InvoiceStatusHistory{InvoiceID: inv.ID, FromStatus: from, ToStatus: status}).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityInvoice, inv.PublicID, "status_changed", fmt.Sprintf("%s->%s", from, status))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindInvoice)
	return s.Get(ctx, userID, invoiceID)
}

// History returns the transition log, oldest first.
func (s *InvoiceService) History(ctx context.Context, userID, invoiceID uint) ([]models.InvoiceStatusHistory, error) {
	if _, err := s.Get(ctx, userID, invoiceID); err != nil {
		return nil, err
	}
	var rows []models.InvoiceStatusHistory
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("id asc").
		Find(&rows).Error
	return rows, err
}

func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv models.Invoice
		if err := tx.Where("id = ? AND user_id = ?", invoiceID, userID).First(&inv).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceStatusHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&inv).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityInvoice, inv.PublicID, "deleted", inv.InvoiceNumber)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID, cache.KindInvoice)
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Item").
		Where("id = ? AND user_id = ?", invoiceID, userID).
		First(&inv).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &inv, nil
}

func (s *InvoiceService) List(ctx context.Context, userID uint, query string, page, limit int) ([]models.Invoice, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	dbq := s.db.WithContext(ctx).Model(&models.Invoice{}).Where("user_id = ?", userID)
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(searchSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(title) LIKE ? OR lower(invoice_number) LIKE ? OR lower(status) LIKE ?", like, like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var invoices []models.Invoice
	err := dbq.Preload("Customer").Preload("Items.Item").
		Order("id desc").Limit(limit).Offset(offset).
		Find(&invoices).Error
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// AllForExport returns every invoice of the user with customers preloaded,
// oldest first, for the spreadsheet export.
func (s *InvoiceService) AllForExport(ctx context.Context, userID uint) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Where("user_id = ?", userID).
		Order("id asc").
		Find(&invoices).Error
	return invoices, err
}

// ConvertFromQuote materializes a draft invoice from a quote: customer,
// currency, discount and tax configuration, terms/notes, and every line item
// (same item reference, qty and price snapshot) are copied; the due date
// defaults to today + 30 days; the source quote flips to converted. The whole
// conversion is a single transaction, so a mid-way failure leaves neither
// document mutated.
func (s *InvoiceService) ConvertFromQuote(ctx context.Context, userID, quoteID uint) (*models.Invoice, error) {
	var created *models.Invoice
	for attempt := 0; ; attempt++ {
		inv := &models.Invoice{}
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var q models.Quote
			if err := tx.Preload("Items").Where("id = ? AND user_id = ?", quoteID, userID).First(&q).Error; err != nil {
				return notFound(err)
			}
			if q.Status == billing.QuoteStatusConverted {
				return ErrQuoteConverted
			}
			now := time.Now()
			*inv = models.Invoice{
				UserID:        userID,
				CustomerID:    q.CustomerID,
				QuoteID:       &q.ID,
				Title:         q.Title,
				PONumber:      q.PONumber,
				IssueDate:     now,
				DueDate:       now.AddDate(0, 0, 30),
				Currency:      q.Currency,
				Status:        billing.InvoiceStatusDraft,
				DiscountType:  q.DiscountType,
				DiscountValue: q.DiscountValue,
				TaxRate:       q.TaxRate,
				Terms:         q.Terms,
				Notes:         q.Notes,
			}
			year := now.Year()
			last, err := lastNumber(tx, &models.Invoice{}, "invoice_number", userID, billing.InvoicePrefix, year)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = billing.NextNumber(billing.InvoicePrefix, last, year)
			if err := tx.Create(inv).Error; err != nil {
				return err
			}
			items := make([]models.InvoiceItem, 0, len(q.Items))
			for _, it := range q.Items {
				items = append(items, models.InvoiceItem{InvoiceID: inv.ID, ItemID: it.ItemID, Price: it.Price, Qty: it.Qty})
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
			inv.Items = items
			if err := s.recalculate(tx, inv); err != nil {
				return err
			}
			if err := tx.Model(&q).Update("status", billing.QuoteStatusConverted).Error; err != nil {
				return err
			}
			if err := writeAudit(tx, userID, models.EntityQuote, q.PublicID, "converted", inv.InvoiceNumber); err != nil {
				return err
			}
			return writeAudit(tx, userID, models.EntityInvoice, inv.PublicID, "created", "converted from "+q.QuoteNumber)
		})
		if err == nil {
			created = inv
			break
		}
		if isUniqueViolation(err) {
			if attempt == 0 {
				continue
			}
			return nil, ErrNumberConflict
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindInvoice, cache.KindQuote)
	return s.Get(ctx, userID, created.ID)
}

func (s *InvoiceService) newFromInput(userID uint, in InvoiceInput) *models.Invoice {
	issue, due := invoiceDates(in)
	return &models.Invoice{
		UserID:        userID,
		CustomerID:    in.CustomerID,
		Title:         in.Title,
		PONumber:      in.PONumber,
		IssueDate:     issue,
		DueDate:       due,
		Currency:      in.Currency,
		Status:        billing.InvoiceStatusDraft,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		TaxRate:       in.TaxRate,
		Terms:         in.Terms,
		Notes:         in.Notes,
	}
}

func invoiceDates(in InvoiceInput) (issue, due time.Time) {
	issue = in.Date
	if issue.IsZero() {
		issue = time.Now()
	}
	due = in.DueDate
	if due.IsZero() {
		due = issue.AddDate(0, 0, 30)
	}
	return issue, due
}

func (s *InvoiceService) replaceItems(tx *gorm.DB, inv *models.Invoice, lines []LineInput) error {
	if err := tx.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItem{}).Error; err != nil {
		return err
	}
	items := make([]models.InvoiceItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.InvoiceItem{InvoiceID: inv.ID, ItemID: l.ItemID, Price: l.Price, Qty: l.Qty})
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	inv.Items = items
	return nil
}

func (s *InvoiceService) recalculate(tx *gorm.DB, inv *models.Invoice) error {
	lines := make([]billing.Line, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, billing.Line{Price: it.Price, Qty: it.Qty})
	}
	t := billing.Compute(lines, inv.DiscountType, inv.DiscountValue, inv.TaxRate)
	inv.SubTotal, inv.DiscountAmount, inv.Total = t.SubTotal, t.DiscountAmount, t.Total
	return tx.Model(&models.Invoice{}).Where("id = ?", inv.ID).
		Updates(map[string]any{"sub_total": t.SubTotal, "discount_amount": t.DiscountAmount, "total": t.Total}).Error
}
