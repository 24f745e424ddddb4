package storage

import (
	"log"
	"os"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func connectToDB() *gorm.DB {
	// Only load .env in development (when RENDER env var is not set)
	if os.Getenv("RENDER") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Println("Warning: Could not load .env file (this is normal in production)")
		}
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Panic("DB_CONNECTION_STRING environment variable is required")
	}

	db, dbError := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if dbError != nil {
		log.Panic("error connection to db: " + dbError.Error())
	}

	DB = db
	return db
}

func performMigrations(db *gorm.DB) {
	db.AutoMigrate(
		&models.User{},
		&models.HostProfile{},
		&models.Property{},
		&models.Reservation{},
		&models.Review{},
		&models.Notification{},
		&models.AuditLog{},
	)

	ApplyReservationConstraints(db)
}

// ApplyReservationConstraints installs the write-time booking guarantees.
// The exclusion constraint rejects any two pending/confirmed reservations on
// the same property with intersecting [check_in, check_out) ranges, so a
// concurrent booking that slips past the application-level check still fails
// at insert with SQLSTATE 23P01.
func ApplyReservationConstraints(db *gorm.DB) {
	if db.Dialector.Name() != "postgres" {
		return
	}

	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS btree_gist;").Error; err != nil {
		log.Panic("could not install btree_gist: " + err.Error())
	}

	var installed int64
	db.Raw("SELECT COUNT(*) FROM pg_constraint WHERE conname = ?", "reservations_no_overlap").Scan(&installed)
	if installed > 0 {
		return
	}

	err := db.Exec(`ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
		EXCLUDE USING gist (
			property_id WITH =,
			daterange(check_in::date, check_out::date) WITH &&
		) WHERE (status IN ('pending', 'confirmed') AND deleted_at IS NULL);`).Error
	if err != nil {
		log.Panic("could not install reservations_no_overlap: " + err.Error())
	}
}

func InitializeDB() *gorm.DB {
	db := connectToDB()
	performMigrations(db)
	return db
}
