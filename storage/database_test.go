package storage

import (
	"testing"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestApplyReservationConstraintsSkipsNonPostgres(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file:constraints?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Reservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	// the exclusion constraint is Postgres DDL; on any other dialect this must
	// return without attempting it (it would panic on failure)
	ApplyReservationConstraints(db)

	stay := models.Reservation{
		PropertyID: 1,
		GuestID:    1,
		CheckIn:    time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:   time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC),
	}
	if err := db.Create(&stay).Error; err != nil {
		t.Fatalf("table unusable after constraint pass: %v", err)
	}
}
