package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/billfold/billfold/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LineInput is one requested line item: a catalog reference plus the price
// snapshot and quantity to record.
type LineInput struct {
	ItemID uint
	Price  decimal.Decimal
	Qty    int
}

// DocumentInput carries the shared header fields of quotes and invoices.
type DocumentInput struct {
	CustomerID    uint
	Title         string
	PONumber      string
	Date          time.Time
	Currency      string
	DiscountType  string
	DiscountValue decimal.Decimal
	TaxRate       decimal.Decimal
	Terms         string
	Notes         string
	Lines         []LineInput
}

// checkDocumentRefs verifies the customer and every referenced catalog item
// belong to the requesting user. Documents never reference foreign rows.
func checkDocumentRefs(tx *gorm.DB, userID uint, in DocumentInput) error {
	var customerCount int64
	if err := tx.Model(&models.Customer{}).Where("id = ? AND user_id = ?", in.CustomerID, userID).Count(&customerCount).Error; err != nil {
		return err
	}
	if customerCount == 0 {
		return ErrInvalidReference
	}
	if len(in.Lines) == 0 {
		return nil
	}
	itemIDs := make([]uint, 0, len(in.Lines))
	for _, l := range in.Lines {
		itemIDs = append(itemIDs, l.ItemID)
	}
	var itemCount int64
	if err := tx.Model(&models.Item{}).Where("id IN ? AND user_id = ?", itemIDs, userID).Count(&itemCount).Error; err != nil {
		return err
	}
	// distinct count can legitimately be below len(lines) when an item repeats
	seen := make(map[uint]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		seen[id] = struct{}{}
	}
	if itemCount != int64(len(seen)) {
		return ErrInvalidReference
	}
	return nil
}

// lastNumber returns the highest document number already issued to this user
// for the given prefix and year, or "" when none exists. Sequences can outgrow
// their zero padding, so longer numbers win before the lexicographic tiebreak.
func lastNumber(tx *gorm.DB, model any, column string, userID uint, prefix string, year int) (string, error) {
	var numbers []string
	like := fmt.Sprintf("%s-%d%%", prefix, year)
	err := tx.Model(model).
		Where("user_id = ? AND "+column+" LIKE ?", userID, like).
		Order(fmt.Sprintf("length(%s) desc, %s desc", column, column)).
		Limit(1).
		Pluck(column, &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
