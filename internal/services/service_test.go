package services

import (
	"fmt"
	"io"
	"testing"

	"github.com/billfold/billfold/internal/cache"
	"github.com/billfold/billfold/internal/db"
	"github.com/billfold/billfold/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbi, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(dbi); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return dbi
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testCache() *cache.Cache {
	return cache.New("", "", 0, testLogger())
}

func seedUser(t *testing.T, dbi *gorm.DB, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Password: "hash"}
	if err := dbi.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedCustomer(t *testing.T, dbi *gorm.DB, userID uint, name string) models.Customer {
	t.Helper()
	c := models.Customer{UserID: userID, Name: name, Email: name + "@example.com"}
	if err := dbi.Create(&c).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c
}

func seedItem(t *testing.T, dbi *gorm.DB, userID uint, name, price string) models.Item {
	t.Helper()
	p, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("bad price %q: %v", price, err)
	}
	it := models.Item{UserID: userID, Name: name, UnitPrice: p, Currency: "EUR"}
	if err := dbi.Create(&it).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	return it
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}
