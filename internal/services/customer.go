package services

import (
	"context"
	"strings"

	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CustomerService struct {
	db    *gorm.DB
	cache *cache.Cache
	log   *logrus.Logger
}

func NewCustomerService(db *gorm.DB, c *cache.Cache, log *logrus.Logger) *CustomerService {
	return &CustomerService{db: db, cache: c, log: log}
}

type CustomerInput struct {
	Name         string
	ContactName  string
	Email        string
	Phone        string
	AddressLine1 string
	AddressLine2 string
	City         string
	PostalCode   string
	Country      string
	TaxID        string
}

func (s *CustomerService) Create(ctx context.Context, userID uint, in CustomerInput) (*models.Customer, error) {
	c := &models.Customer{
		UserID:       userID,
		Name:         in.Name,
		ContactName:  in.ContactName,
		Email:        in.Email,
		Phone:        in.Phone,
		AddressLine1: in.AddressLine1,
		AddressLine2: in.AddressLine2,
		City:         in.City,
		PostalCode:   in.PostalCode,
		Country:      in.Country,
		TaxID:        in.TaxID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityCustomer, c.PublicID, "created", c.Name)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindCustomer)
	return c, nil
}

func (s *CustomerService) Update(ctx context.Context, userID, customerID uint, in CustomerInput) (*models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", customerID, userID).First(&c).Error; err != nil {
			return notFound(err)
		}
		updates := map[string]any{
			"name":          in.Name,
			"contact_name":  in.ContactName,
			"email":         in.Email,
			"phone":         in.Phone,
			"address_line1": in.AddressLine1,
			"address_line2": in.AddressLine2,
			"city":          in.City,
			"postal_code":   in.PostalCode,
			"country":       in.Country,
			"tax_id":        in.TaxID,
		}
		if err := tx.Model(&c).Updates(updates).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityCustomer, c.PublicID, "updated", c.Name)
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, userID, cache.KindCustomer)
	return &c, nil
}

// Delete refuses when the customer still has quotes or invoices; the guard
// lives here at the API boundary, not in the schema.
func (s *CustomerService) Delete(ctx context.Context, userID, customerID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Customer
		if err := tx.Where("id = ? AND user_id = ?", customerID, userID).First(&c).Error; err != nil {
			return notFound(err)
		}
		var quoteCount, invoiceCount int64
		if err := tx.Model(&models.Quote{}).Where("customer_id = ?", c.ID).Count(&quoteCount).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Invoice{}).Where("customer_id = ?", c.ID).Count(&invoiceCount).Error; err != nil {
			return err
		}
		if quoteCount > 0 || invoiceCount > 0 {
			return ErrCustomerInUse
		}
		if err := tx.Delete(&c).Error; err != nil {
			return err
		}
		return writeAudit(tx, userID, models.EntityCustomer, c.PublicID, "deleted", c.Name)
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID, cache.KindCustomer)
	return nil
}

func (s *CustomerService) Get(ctx context.Context, userID, customerID uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", customerID, userID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *CustomerService) List(ctx context.Context, userID uint, query string, page, limit int) ([]models.Customer, int64, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}
	dbq := s.db.WithContext(ctx).Model(&models.Customer{}).Where("user_id = ?", userID)
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(searchSafeRe.ReplaceAllString(q, "")) + "%"
		dbq = dbq.Where("lower(name) LIKE ? OR lower(email) LIKE ?", like, like)
	}
	var total int64
	if err := dbq.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var customers []models.Customer
	if err := dbq.Order("id desc").Limit(limit).Offset(offset).Find(&customers).Error; err != nil {
		return nil, 0, err
	}
	return customers, total, nil
}
