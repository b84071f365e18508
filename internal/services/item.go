package services

import (
	"context"
	"strings"

	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ItemService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
}

func NewItemService(db *gorm.DB, c *cache.Cache, log *logrus.Logger) *ItemService {
	return &ItemService{db: db, cache: c, log: log}
}

type ItemInput struct {
	Name        string
	Description string
	UnitPrice   decimal.Decimal
	Currency    string
}

func (s *ItemService) Create(ctx context.Context, userID uint, in ItemInput) (*models.Item, error) {
	item := &models.Item{
		UserID:      userID,
		Name:        in.Name,
		Description: in.Description,
		UnitPrice:   in.UnitPrice.Round(2),
		Currency:    in.Currency,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityItem, item.PublicID, "created", item.Name)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindItem)
	return item, nil
}

// Update changes the catalog entry only; existing line items keep their price
// snapshots.
func (s *ItemService) Update(ctx context.Context, userID, itemID uint, in ItemInput) (*models.Item, error) {
	var item models.Item
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return notFound(err)
		}
		updates := map[string]any{
			"name":        in.Name,
			"description": in.Description,
			"unit_price":  in.UnitPrice.Round(2),
			"currency":    in.Currency,
		}
		if err := tx.Model(&item).Updates(updates).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityItem, item.PublicID, "updated", item.Name)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindItem)
	return &item, nil
}

func (s *ItemService) Delete(ctx context.Context, userID, itemID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.Item
		if err := tx.Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return notFound(err)
		}
		var quoteRefs, invoiceRefs int64
		if err := tx.Model(&models.QuoteItem{}).Where("item_id = ?", item.ID).Count(&quoteRefs).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.InvoiceItem{}).Where("item_id = ?", item.ID).Count(&invoiceRefs).Error; err != nil {
			return err
		}
		if quoteRefs > 0 || invoiceRefs > 0 {
			return ErrItemInUse
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityItem, item.PublicID, "deleted", item.Name)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID, cache.KindItem)
	return nil
}

func (s *ItemService) Get(ctx context.Context, userID, itemID uint) (*models.Item, error) {
	var item models.Item
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (s *ItemService) List(ctx context.Context, userID uint, query string, page, limit int) ([]models.Item, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	dbq := s.db.WithContext(ctx).Model(&models.Item{}).Where("user_id = ?", userID)
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(searchSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.Item
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SoldQuantities sums invoiced quantities per catalog item for the user, used
// to populate the total_sold_quantity field of the item DTO.
func (s *ItemService) SoldQuantities(ctx context.Context, userID uint) (map[uint]int64, error) {
	type rowT struct {
		ItemID uint
		Total  int64
	}
	var rows []rowT
	err := s.db.WithContext(ctx).
		Model(&models.InvoiceItem{}).
		Select("invoice_items.item_id AS item_id, COALESCE(SUM(invoice_items.qty), 0) AS total").
		Joins("JOIN invoices ON invoices.id = invoice_items.invoice_id").
		Where("invoices.user_id = ?", userID).
		Group("invoice_items.item_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uint]int64, len(rows))
	for _, r := range rows {
		out[r.ItemID] = r.Total
	}
	return out, nil
}
