package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/billing"
	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var searchSafeRe = regexp.MustCompile(`[^a-zA-Z0-9 \-_]`)

// QuoteService owns every write path touching quotes. All multi-step writes
// (header + batch line replacement + recalculation) run in one transaction.
type QuoteService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
}

func NewQuoteService(db *gorm.DB, c *cache.Cache, log *logrus.Logger) *QuoteService {
	return &QuoteService{db: db, cache: c, log: log}
}

// Create persists a new draft quote with its line items and computed totals.
// The quote number is generated inside the transaction; if a concurrent
// creation claims the same number, the unique constraint rejects the insert
// and generation is retried once.
func (s *QuoteService) Create(ctx context.Context, userID uint, in DocumentInput) (*models.Quote, error) {
	var created *models.Quote
	for attempt := 0; ; attempt++ {
		q := s.newFromInput(userID, in)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := checkDocumentRefs(tx, userID, in); err != nil {
				return err
			}
			year := time.Now().Year()
			last, err := lastNumber(tx, &models.Quote{}, "quote_number", userID, billing.QuotePrefix, year)
			if err != nil {
				return err
			}
			q.QuoteNumber = billing.NextNumber(billing.QuotePrefix, last, year)
			if err := tx.Create(q).Error; err != nil {
				return err
			}
			if err := s.replaceItems(tx, q, in.Lines); err != nil {
				return err
			}
			if err := s.recalculate(tx, q); err != nil {
				return err
			}
			return writeAudit(tx, userID, models.EntityQuote, q.PublicID, "created", q.QuoteNumber)
		})
		if err == nil {
			created = q
			break
		}
		if isUniqueViolation(err) {
			if attempt == 0 {
				s.log.WithFields(logrus.Fields{"user_id": userID, "number": q.QuoteNumber}).Warn("quote number collision, regenerating")
				continue
			}
			return nil, ErrNumberConflict
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindQuote)
	return s.Get(ctx, userID, created.ID)
}

// Update rewrites the header and replaces the line items as a batch, then
// recomputes totals, all in one transaction. Number and status are immutable
// here; status moves through SetStatus.
func (s *QuoteService) Update(ctx context.Context, userID, quoteID uint, in DocumentInput) (*models.Quote, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := tx.Where("id = ? AND user_id = ?", quoteID, userID).First(&q).Error; err != nil {
			return notFound(err)
		}
		if err := checkDocumentRefs(tx, userID, in); err != nil {
			return err
		}
		updates := map[string]any{
			"customer_id":    in.CustomerID,
			"title":          in.Title,
			"po_number":      in.PONumber,
			"date":           in.Date,
			"currency":       in.Currency,
			"discount_type":  in.DiscountType,
			"discount_value": in.DiscountValue,
			"tax_rate":       in.TaxRate,
			"terms":          in.Terms,
			"notes":          in.Notes,
		}
		if err := tx.Model(&q).Updates(updates).Error; err != nil {
			return err
		}
		q.DiscountType = in.DiscountType
		q.DiscountValue = in.DiscountValue
		q.TaxRate = in.TaxRate
		if err := s.replaceItems(tx, &q, in.Lines); err != nil {
			return err
		}
		if err := s.recalculate(tx, &q); err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityQuote, q.PublicID, "updated", q.QuoteNumber)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindQuote)
	return s.Get(ctx, userID, quoteID)
}

// SetStatus moves the quote to the target status. No transition graph is
// enforced; any status can follow any other.
func (s *QuoteService) SetStatus(ctx context.Context, userID, quoteID uint, status string) (*models.Quote, error) {
	if !billing.ValidQuoteStatus(status) {
		return nil, ErrInvalidStatus
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := tx.Where("id = ? AND user_id = ?", quoteID, userID).First(&q).Error; err != nil {
			return notFound(err)
		}
		if q.Status == status {
			return nil
		}
		from := q.Status
		if err := tx.Model(&q).Update("status", status).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityQuote, q.PublicID, "status_changed", fmt.Sprintf("%s->%s", from, status))
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindQuote)
	return s.Get(ctx, userID, quoteID)
}

func (s *QuoteService) Delete(ctx context.Context, userID, quoteID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var q models.Quote
		if err := tx.Where("id = ? AND user_id = ?", quoteID, userID).First(&q).Error; err != nil {
			return notFound(err)
		}
		// explicit child delete: sqlite test runs have no FK cascade enabled
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&q).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityQuote, q.PublicID, "deleted", q.QuoteNumber)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID, cache.KindQuote)
	return nil
}

func (s *QuoteService) Get(ctx context.Context, userID, quoteID uint) (*models.Quote, error) {
	var q models.Quote
	err := s.db.WithContext(ctx).
		Preload("Customer").
		Preload("Items.Item").
		Where("id = ? AND user_id = ?", quoteID, userID).
		First(&q).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &q, nil
}

// List returns a page of the user's quotes, newest first. query matches
// against title, number and status.
func (s *QuoteService) List(ctx context.Context, userID uint, query string, page, limit int) ([]models.Quote, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	dbq := s.db.WithContext(ctx).Model(&models.Quote{}).Where("user_id = ?", userID)
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(searchSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(title) LIKE ? OR lower(quote_number) LIKE ? OR lower(status) LIKE ?", like, like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var quotes []models.Quote
	err := dbq.Preload("Customer").Preload("Items.Item").
		Order("id desc").Limit(limit).Offset(offset).
		Find(&quotes).Error
	if err != nil {
		return nil, 0, err
	}
	return quotes, total, nil
}

func (s *QuoteService) newFromInput(userID uint, in DocumentInput) *models.Quote {
	date := in.Date
	if date.IsZero() {
		date = time.Now()
	}
	return &models.Quote{
		UserID:        userID,
		CustomerID:    in.CustomerID,
		Title:         in.Title,
		PONumber:      in.PONumber,
		Date:          date,
		Currency:      in.Currency,
		Status:        billing.QuoteStatusDraft,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		TaxRate:       in.TaxRate,
		Terms:         in.Terms,
		Notes:         in.Notes,
	}
}

// replaceItems swaps the quote's line items for the requested set: old rows
// deleted, new rows inserted, no diffing.
func (s *QuoteService) replaceItems(tx *gorm.DB, q *models.Quote, lines []LineInput) error {
	if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItem{}).Error; err != nil {
		return err
	}
	items := make([]models.QuoteItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.QuoteItem{QuoteID: q.ID, ItemID: l.ItemID, Price: l.Price, Qty: l.Qty})
	}
	if len(items) > 0 {
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
	}
	q.Items = items
	return nil
}

// recalculate recomputes and persists the quote's totals from its in-memory
// line items. Called explicitly by every write path that touches lines or
// discount fields; nothing recomputes behind the caller's back.
func (s *QuoteService) recalculate(tx *gorm.DB, q *models.Quote) error {
	lines := make([]billing.Line, 0, len(q.Items))
	for _, it := range q.Items {
		lines = append(lines, billing.Line{Price: it.Price, Qty: it.Qty})
	}
	t := billing.Compute(lines, q.DiscountType, q.DiscountValue, q.TaxRate)
	q.SubTotal, q.DiscountAmount, q.Total = t.SubTotal, t.DiscountAmount, t.Total
	return tx.Model(&models.Quote{}).Where("id = ?", q.ID).
		Updates(map[string]any{"sub_total": t.SubTotal, "discount_amount": t.DiscountAmount, "total": t.Total}).Error
}
