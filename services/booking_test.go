package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Property{}, &models.Reservation{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProperty(t *testing.T, db *gorm.DB, ownerID uint, pricePerNight, cleaningFee float64, minNights, maxNights int) *models.Property {
	t.Helper()
	active := true
	property := models.Property{
		OwnerID:       ownerID,
		Title:         "Villa Sabah",
		Type:          "villa",
		PricePerNight: pricePerNight,
		CleaningFee:   cleaningFee,
		MinNights:     minNights,
		MaxNights:     maxNights,
		IsActive:      &active,
	}
	if err := db.Create(&property).Error; err != nil {
		t.Fatalf("seed property: %v", err)
	}
	return &property
}

func TestRangesOverlap(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd time.Time
		want                       bool
	}{
		{"identical", date(2026, 6, 1), date(2026, 6, 5), date(2026, 6, 1), date(2026, 6, 5), true},
		{"contained", date(2026, 6, 1), date(2026, 6, 10), date(2026, 6, 3), date(2026, 6, 5), true},
		{"partial front", date(2026, 6, 1), date(2026, 6, 5), date(2026, 6, 4), date(2026, 6, 8), true},
		{"partial back", date(2026, 6, 4), date(2026, 6, 8), date(2026, 6, 1), date(2026, 6, 5), true},
		{"back to back", date(2026, 6, 1), date(2026, 6, 5), date(2026, 6, 5), date(2026, 6, 8), false},
		{"back to back reversed", date(2026, 6, 5), date(2026, 6, 8), date(2026, 6, 1), date(2026, 6, 5), false},
		{"disjoint", date(2026, 6, 1), date(2026, 6, 3), date(2026, 6, 10), date(2026, 6, 12), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RangesOverlap(tc.aStart, tc.aEnd, tc.bStart, tc.bEnd); got != tc.want {
				t.Errorf("RangesOverlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNights(t *testing.T) {
	if got := Nights(date(2026, 6, 1), date(2026, 6, 4)); got != 3 {
		t.Errorf("Nights = %d, want 3", got)
	}
	if got := Nights(date(2026, 6, 1), date(2026, 6, 2)); got != 1 {
		t.Errorf("Nights = %d, want 1", got)
	}
	// month boundary
	if got := Nights(date(2026, 6, 30), date(2026, 7, 2)); got != 2 {
		t.Errorf("Nights = %d, want 2", got)
	}
}

func TestPriceStay(t *testing.T) {
	property := &models.Property{PricePerNight: 100, CleaningFee: 20, MinNights: 2, MaxNights: 30}

	quote, err := PriceStay(property, date(2026, 6, 1), date(2026, 6, 4), nil)
	if err != nil {
		t.Fatalf("PriceStay: %v", err)
	}
	if quote.Nights != 3 {
		t.Errorf("nights = %d, want 3", quote.Nights)
	}
	if quote.Total != 320 {
		t.Errorf("total = %v, want 320", quote.Total)
	}

	// one night is below the minimum
	if _, err := PriceStay(property, date(2026, 6, 1), date(2026, 6, 2), nil); !errors.Is(err, ErrInvalidNights) {
		t.Errorf("1 night: err = %v, want ErrInvalidNights", err)
	}

	// beyond the maximum
	if _, err := PriceStay(property, date(2026, 6, 1), date(2026, 8, 1), nil); !errors.Is(err, ErrInvalidNights) {
		t.Errorf("61 nights: err = %v, want ErrInvalidNights", err)
	}

	// empty and inverted ranges
	if _, err := PriceStay(property, date(2026, 6, 1), date(2026, 6, 1), nil); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("empty range: err = %v, want ErrInvalidRange", err)
	}
	if _, err := PriceStay(property, date(2026, 6, 5), date(2026, 6, 1), nil); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range: err = %v, want ErrInvalidRange", err)
	}

	// booked services are billed on top
	extras := []BookedService{{Name: "airport transfer", Price: 40}, {Name: "late checkout", Price: 15}}
	quote, err = PriceStay(property, date(2026, 6, 1), date(2026, 6, 4), extras)
	if err != nil {
		t.Fatalf("PriceStay with services: %v", err)
	}
	if quote.ServicesTotal != 55 {
		t.Errorf("servicesTotal = %v, want 55", quote.ServicesTotal)
	}
	if quote.Total != 375 {
		t.Errorf("total = %v, want 375", quote.Total)
	}
}

func TestCheckAvailability(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	property := seedProperty(t, db, 1, 100, 0, 1, 365)

	booked := models.Reservation{
		PropertyID: property.ID,
		GuestID:    2,
		CheckIn:    date(2026, 6, 1),
		CheckOut:   date(2026, 6, 5),
		Status:     models.ReservationPending,
	}
	if err := db.Create(&booked).Error; err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	// back-to-back with the existing stay
	available, err := svc.CheckAvailability(ctx, property.ID, date(2026, 6, 5), date(2026, 6, 8))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !available {
		t.Error("range starting at existing check-out should be available")
	}

	// overlapping
	available, err = svc.CheckAvailability(ctx, property.ID, date(2026, 6, 4), date(2026, 6, 8))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if available {
		t.Error("overlapping range should not be available")
	}

	// cancelled reservations do not block
	if err := db.Model(&booked).Updates(map[string]interface{}{"status": models.ReservationCancelled}).Error; err != nil {
		t.Fatalf("cancel seed: %v", err)
	}
	available, err = svc.CheckAvailability(ctx, property.ID, date(2026, 6, 2), date(2026, 6, 4))
	if err != nil {
		t.Fatalf("CheckAvailability: %v", err)
	}
	if !available {
		t.Error("cancelled reservation should not block the range")
	}

	// inverted range
	if _, err := svc.CheckAvailability(ctx, property.ID, date(2026, 6, 8), date(2026, 6, 5)); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("inverted range: err = %v, want ErrInvalidRange", err)
	}

	// unknown property
	if _, err := svc.CheckAvailability(ctx, 9999, date(2026, 6, 1), date(2026, 6, 2)); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown property: err = %v, want ErrNotFound", err)
	}
}

func TestCreateReservation(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	property := seedProperty(t, db, 1, 100, 20, 1, 365)

	first, err := svc.CreateReservation(ctx, BookingInput{
		PropertyID: property.ID,
		GuestID:    2,
		CheckIn:    date(2026, 6, 1),
		CheckOut:   date(2026, 6, 4),
		Adults:     2,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if first.Status != models.ReservationPending {
		t.Errorf("status = %s, want pending", first.Status)
	}
	if first.PaymentStatus != models.PaymentPending {
		t.Errorf("paymentStatus = %s, want pending", first.PaymentStatus)
	}
	if first.TotalAmount != 320 {
		t.Errorf("totalAmount = %v, want 320", first.TotalAmount)
	}

	// overlapping attempt by another guest
	_, err = svc.CreateReservation(ctx, BookingInput{
		PropertyID: property.ID,
		GuestID:    3,
		CheckIn:    date(2026, 6, 3),
		CheckOut:   date(2026, 6, 6),
		Adults:     1,
	})
	if !errors.Is(err, ErrRangeUnavailable) {
		t.Fatalf("overlap: err = %v, want ErrRangeUnavailable", err)
	}

	// back-to-back succeeds
	if _, err := svc.CreateReservation(ctx, BookingInput{
		PropertyID: property.ID,
		GuestID:    3,
		CheckIn:    date(2026, 6, 4),
		CheckOut:   date(2026, 6, 7),
		Adults:     1,
	}); err != nil {
		t.Fatalf("back-to-back: %v", err)
	}

	// no adults
	if _, err := svc.CreateReservation(ctx, BookingInput{
		PropertyID: property.ID,
		GuestID:    3,
		CheckIn:    date(2026, 7, 1),
		CheckOut:   date(2026, 7, 3),
	}); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("no adults: err = %v, want ErrInvalidRange", err)
	}

	// deactivated listings cannot be booked
	inactive := false
	db.Model(property).Update("is_active", &inactive)
	if _, err := svc.CreateReservation(ctx, BookingInput{
		PropertyID: property.ID,
		GuestID:    3,
		CheckIn:    date(2026, 8, 1),
		CheckOut:   date(2026, 8, 3),
		Adults:     1,
	}); !errors.Is(err, ErrNotFound) {
		t.Errorf("inactive property: err = %v, want ErrNotFound", err)
	}
}

func TestCreateReservationIdempotency(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	property := seedProperty(t, db, 1, 100, 0, 1, 365)

	input := BookingInput{
		PropertyID:     property.ID,
		GuestID:        2,
		CheckIn:        date(2026, 6, 1),
		CheckOut:       date(2026, 6, 4),
		Adults:         2,
		IdempotencyKey: "client-key-1",
	}

	first, err := svc.CreateReservation(ctx, input)
	if err != nil {
		t.Fatalf("first attempt: %v", err)
	}

	second, err := svc.CreateReservation(ctx, input)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry created a new reservation: id %d != %d", second.ID, first.ID)
	}

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	if count != 1 {
		t.Errorf("reservation count = %d, want 1", count)
	}

	// a different key for the same range is a real conflict
	input.IdempotencyKey = "client-key-2"
	if _, err := svc.CreateReservation(ctx, input); !errors.Is(err, ErrRangeUnavailable) {
		t.Errorf("different key: err = %v, want ErrRangeUnavailable", err)
	}
}

func TestCreateReservationConcurrent(t *testing.T) {
	db := openTestDB(t)
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	// sqlite allows one writer; a single pooled connection makes the two
	// transactions queue instead of erroring on the write lock
	sqlDB.SetMaxOpenConns(1)

	svc := NewBookingService(db)
	property := seedProperty(t, db, 1, 100, 0, 1, 365)

	start := make(chan struct{})
	results := make(chan error, 2)
	for guest := uint(2); guest <= 3; guest++ {
		go func(guestID uint) {
			<-start
			_, err := svc.CreateReservation(context.Background(), BookingInput{
				PropertyID: property.ID,
				GuestID:    guestID,
				CheckIn:    date(2026, 6, 1),
				CheckOut:   date(2026, 6, 4),
				Adults:     1,
			})
			results <- err
		}(guest)
	}
	close(start)

	var succeeded, rejected int
	for i := 0; i < 2; i++ {
		switch err := <-results; {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrRangeUnavailable):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || rejected != 1 {
		t.Errorf("got %d successes and %d conflicts, want exactly 1 of each", succeeded, rejected)
	}

	var count int64
	db.Model(&models.Reservation{}).Count(&count)
	if count != 1 {
		t.Errorf("reservation count = %d, want 1", count)
	}
}

func TestTransition(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	const ownerID, guestID, strangerID = 1, 2, 3
	property := seedProperty(t, db, ownerID, 100, 0, 1, 365)

	newPending := func(t *testing.T) *models.Reservation {
		t.Helper()
		r := models.Reservation{
			PropertyID:    property.ID,
			GuestID:       guestID,
			CheckIn:       date(2026, 9, 1),
			CheckOut:      date(2026, 9, 4),
			Status:        models.ReservationPending,
			PaymentStatus: models.PaymentPending,
		}
		if err := db.Create(&r).Error; err != nil {
			t.Fatalf("seed reservation: %v", err)
		}
		return &r
	}

	t.Run("guest cancels with refund", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Cancel(ctx, r.ID, guestID, models.RoleTraveler); err != nil {
			t.Fatalf("Cancel: %v", err)
		}

		var got models.Reservation
		db.First(&got, r.ID)
		if got.Status != models.ReservationCancelled {
			t.Errorf("status = %s, want cancelled", got.Status)
		}
		if got.PaymentStatus != models.PaymentRefunded {
			t.Errorf("paymentStatus = %s, want refunded", got.PaymentStatus)
		}
	})

	t.Run("owner confirms and payment follows", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Confirm(ctx, r.ID, ownerID, models.RoleOwner); err != nil {
			t.Fatalf("Confirm: %v", err)
		}

		var got models.Reservation
		db.First(&got, r.ID)
		if got.Status != models.ReservationConfirmed {
			t.Errorf("status = %s, want confirmed", got.Status)
		}
		if got.PaymentStatus != models.PaymentPaid {
			t.Errorf("paymentStatus = %s, want paid", got.PaymentStatus)
		}
	})

	t.Run("guest cannot confirm", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Confirm(ctx, r.ID, guestID, models.RoleTraveler); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Cancel(ctx, r.ID, strangerID, models.RoleTraveler); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("admin may act on any reservation", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Cancel(ctx, r.ID, strangerID, models.RoleAdmin); err != nil {
			t.Errorf("admin cancel: %v", err)
		}
	})

	t.Run("terminal states reject transitions", func(t *testing.T) {
		r := newPending(t)
		if _, err := svc.Cancel(ctx, r.ID, guestID, models.RoleTraveler); err != nil {
			t.Fatalf("Cancel: %v", err)
		}
		if _, err := svc.Confirm(ctx, r.ID, ownerID, models.RoleOwner); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("confirm after cancel: err = %v, want ErrInvalidTransition", err)
		}
		if _, err := svc.Cancel(ctx, r.ID, guestID, models.RoleTraveler); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("double cancel: err = %v, want ErrInvalidTransition", err)
		}
	})

	t.Run("unknown reservation", func(t *testing.T) {
		if _, err := svc.Cancel(ctx, 9999, guestID, models.RoleTraveler); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestCompleteDueStays(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	property := seedProperty(t, db, 1, 100, 0, 1, 365)

	due := models.Reservation{
		PropertyID: property.ID, GuestID: 2,
		CheckIn: date(2026, 5, 1), CheckOut: date(2026, 5, 5),
		Status: models.ReservationConfirmed,
	}
	upcoming := models.Reservation{
		PropertyID: property.ID, GuestID: 2,
		CheckIn: date(2026, 7, 1), CheckOut: date(2026, 7, 5),
		Status: models.ReservationConfirmed,
	}
	stillPending := models.Reservation{
		PropertyID: property.ID, GuestID: 3,
		CheckIn: date(2026, 5, 10), CheckOut: date(2026, 5, 12),
		Status: models.ReservationPending,
	}
	for _, r := range []*models.Reservation{&due, &upcoming, &stillPending} {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	count, err := svc.CompleteDueStays(ctx, date(2026, 6, 1))
	if err != nil {
		t.Fatalf("CompleteDueStays: %v", err)
	}
	if count != 1 {
		t.Errorf("completed = %d, want 1", count)
	}

	var gotDue, gotUpcoming, gotPending models.Reservation
	db.First(&gotDue, due.ID)
	if gotDue.Status != models.ReservationCompleted {
		t.Errorf("due stay status = %s, want completed", gotDue.Status)
	}
	db.First(&gotUpcoming, upcoming.ID)
	if gotUpcoming.Status != models.ReservationConfirmed {
		t.Errorf("upcoming stay status = %s, want confirmed", gotUpcoming.Status)
	}
	db.First(&gotPending, stillPending.ID)
	if gotPending.Status != models.ReservationPending {
		t.Errorf("unconfirmed past stay status = %s, want pending", gotPending.Status)
	}
}

func TestOwnerStats(t *testing.T) {
	db := openTestDB(t)
	svc := NewBookingService(db)
	ctx := context.Background()

	mine := seedProperty(t, db, 1, 100, 0, 1, 365)
	theirs := seedProperty(t, db, 2, 100, 0, 1, 365)

	rows := []models.Reservation{
		{PropertyID: mine.ID, GuestID: 5, CheckIn: date(2026, 6, 1), CheckOut: date(2026, 6, 4), Status: models.ReservationConfirmed, TotalAmount: 300},
		{PropertyID: mine.ID, GuestID: 6, CheckIn: date(2026, 7, 1), CheckOut: date(2026, 7, 3), Status: models.ReservationPending, TotalAmount: 200},
		{PropertyID: mine.ID, GuestID: 7, CheckIn: date(2026, 5, 1), CheckOut: date(2026, 5, 3), Status: models.ReservationCancelled, TotalAmount: 200},
		{PropertyID: theirs.ID, GuestID: 5, CheckIn: date(2026, 6, 1), CheckOut: date(2026, 6, 4), Status: models.ReservationConfirmed, TotalAmount: 999},
	}
	for i := range rows {
		if err := db.Create(&rows[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	stats, err := svc.OwnerStats(ctx, 1)
	if err != nil {
		t.Fatalf("OwnerStats: %v", err)
	}
	if stats.TotalReservations != 3 {
		t.Errorf("total = %d, want 3", stats.TotalReservations)
	}
	if stats.ConfirmedReservations != 1 || stats.PendingReservations != 1 || stats.CancelledReservations != 1 {
		t.Errorf("per-status counts = %+v", stats)
	}
	if stats.TotalRevenue != 700 {
		t.Errorf("revenue = %v, want 700", stats.TotalRevenue)
	}
}
