package services

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"

	"github.com/Discovery-supp/Nzoo-immo-concerigerie/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Lock namespace for per-property booking serialization.
const bookingLockClass = 2205

// BookingService owns availability checks, pricing and the reservation
// lifecycle. Creation is serialized per property inside a transaction, with
// the reservations exclusion constraint as the storage-level backstop, so two
// concurrent bookings for the same free slot cannot both succeed.
type BookingService struct {
	db *gorm.DB
}

func NewBookingService(db *gorm.DB) *BookingService {
	return &BookingService{db: db}
}

// BookedService is an extra billable item attached to a reservation
// (airport transfer, late check-out, ...).
type BookedService struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type BookingInput struct {
	PropertyID     uint
	GuestID        uint
	CheckIn        time.Time
	CheckOut       time.Time
	Adults         int
	Children       int
	Infants        int
	Pets           int
	Services       []BookedService
	IdempotencyKey string
}

// Quote is the server-side price breakdown for a stay.
type Quote struct {
	Nights        int     `json:"nights"`
	PricePerNight float64 `json:"pricePerNight"`
	Accommodation float64 `json:"accommodation"`
	CleaningFee   float64 `json:"cleaningFee"`
	ServicesTotal float64 `json:"servicesTotal"`
	Total         float64 `json:"total"`
}

// RangesOverlap reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// A range ending exactly where the other begins is not an overlap, so
// back-to-back stays are allowed.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Nights counts whole calendar days in [checkIn, checkOut).
func Nights(checkIn, checkOut time.Time) int {
	a := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// PriceStay computes the total for a stay at the given property:
// price_per_night × nights + cleaning fee + booked services. The stay length
// must fall inside the property's night limits.
func PriceStay(property *models.Property, checkIn, checkOut time.Time, extras []BookedService) (*Quote, error) {
	if !checkIn.Before(checkOut) {
		return nil, ErrInvalidRange
	}

	nights := Nights(checkIn, checkOut)
	if nights < property.MinNights || nights > property.MaxNights {
		return nil, ErrInvalidNights
	}

	q := &Quote{
		Nights:        nights,
		PricePerNight: property.PricePerNight,
		Accommodation: property.PricePerNight * float64(nights),
		CleaningFee:   property.CleaningFee,
	}
	for _, s := range extras {
		q.ServicesTotal += s.Price
	}
	q.Total = q.Accommodation + q.CleaningFee + q.ServicesTotal
	return q, nil
}

// CheckAvailability reports whether [checkIn, checkOut) can be booked for the
// property: true iff no pending or confirmed reservation overlaps the range.
// Read-only; the authoritative check happens again at booking time.
func (s *BookingService) CheckAvailability(ctx context.Context, propertyID uint, checkIn, checkOut time.Time) (bool, error) {
	if !checkIn.Before(checkOut) {
		return false, ErrInvalidRange
	}

	var property models.Property
	if err := s.db.WithContext(ctx).Select("id").First(&property, propertyID).Error; err != nil {
		return false, translateDBError(err)
	}

	count, err := s.countOverlapping(s.db.WithContext(ctx), propertyID, checkIn, checkOut)
	if err != nil {
		return false, translateDBError(err)
	}
	return count == 0, nil
}

func (s *BookingService) countOverlapping(tx *gorm.DB, propertyID uint, checkIn, checkOut time.Time) (int64, error) {
	var count int64
	err := tx.Model(&models.Reservation{}).
		Where("property_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			propertyID,
			[]models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed},
			checkOut, checkIn).
		Count(&count).Error
	return count, err
}

// CreateReservation books a stay. The reservation starts out pending/payment
// pending. Inside the transaction the property row's advisory lock serializes
// competing bookings and the overlap check runs again; a conflicting insert
// that still reaches the table is rejected by the exclusion constraint.
// Retrying with the same idempotency key returns the reservation created by
// the first attempt instead of inserting a second row.
func (s *BookingService) CreateReservation(ctx context.Context, input BookingInput) (*models.Reservation, error) {
	if !input.CheckIn.Before(input.CheckOut) {
		return nil, ErrInvalidRange
	}
	if input.Adults < 1 || input.Children < 0 || input.Infants < 0 || input.Pets < 0 {
		return nil, ErrInvalidRange
	}

	db := s.db.WithContext(ctx)

	if input.IdempotencyKey != "" {
		var existing models.Reservation
		err := db.Where("idempotency_key = ?", input.IdempotencyKey).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translateDBError(err)
		}
	}

	var property models.Property
	if err := db.First(&property, input.PropertyID).Error; err != nil {
		return nil, translateDBError(err)
	}
	if property.IsActive != nil && !*property.IsActive {
		return nil, ErrNotFound
	}

	quote, err := PriceStay(&property, input.CheckIn, input.CheckOut, input.Services)
	if err != nil {
		return nil, err
	}

	reservation := models.Reservation{
		PropertyID:    input.PropertyID,
		GuestID:       input.GuestID,
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
		Adults:        input.Adults,
		Children:      input.Children,
		Infants:       input.Infants,
		Pets:          input.Pets,
		TotalAmount:   quote.Total,
		Status:        models.ReservationPending,
		PaymentStatus: models.PaymentPending,
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		reservation.IdempotencyKey = &key
	}
	if len(input.Services) > 0 {
		if raw, err := json.Marshal(input.Services); err == nil {
			reservation.Services = raw
		}
	}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?, ?)", bookingLockClass, int64(input.PropertyID)).Error; err != nil {
				return err
			}
		}

		count, err := s.countOverlapping(tx, input.PropertyID, input.CheckIn, input.CheckOut)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrRangeUnavailable
		}

		return tx.Create(&reservation).Error
	})

	if txErr != nil {
		translated := translateDBError(txErr)
		// A duplicate-key failure on the idempotency index means a previous
		// attempt (possibly one that timed out on our side) already wrote the
		// row; hand that row back instead of failing.
		if errors.Is(translated, errDuplicateKey) && input.IdempotencyKey != "" {
			var existing models.Reservation
			if err := db.Where("idempotency_key = ?", input.IdempotencyKey).First(&existing).Error; err == nil {
				return &existing, nil
			}
		}
		if errors.Is(translated, errDuplicateKey) {
			return nil, ErrRangeUnavailable
		}
		return nil, translated
	}

	return &reservation, nil
}

// Transition applies a status change to a reservation after checking the
// caller's relationship to it and the state machine. Cancellation refunds
// and confirmation marks the payment as paid in the same UPDATE, so the two
// fields are never observable out of sync.
func (s *BookingService) Transition(ctx context.Context, reservationID uint, to models.ReservationStatus, actorID uint, actorRole string) (*models.Reservation, error) {
	db := s.db.WithContext(ctx)

	var reservation models.Reservation
	if err := db.Preload("Property").First(&reservation, reservationID).Error; err != nil {
		return nil, translateDBError(err)
	}

	if err := authorizeTransition(&reservation, to, actorID, actorRole); err != nil {
		return nil, err
	}

	if !reservation.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}

	updates := map[string]interface{}{"status": to}
	switch to {
	case models.ReservationCancelled:
		updates["payment_status"] = models.PaymentRefunded
	case models.ReservationConfirmed:
		updates["payment_status"] = models.PaymentPaid
	}

	if err := db.Model(&reservation).Updates(updates).Error; err != nil {
		return nil, translateDBError(err)
	}
	return &reservation, nil
}

// Cancel moves a reservation to cancelled with the refund applied atomically.
func (s *BookingService) Cancel(ctx context.Context, reservationID, actorID uint, actorRole string) (*models.Reservation, error) {
	return s.Transition(ctx, reservationID, models.ReservationCancelled, actorID, actorRole)
}

// Confirm is the owner/admin acceptance of a pending booking; payment is
// marked paid with the same write.
func (s *BookingService) Confirm(ctx context.Context, reservationID, actorID uint, actorRole string) (*models.Reservation, error) {
	return s.Transition(ctx, reservationID, models.ReservationConfirmed, actorID, actorRole)
}

func authorizeTransition(r *models.Reservation, to models.ReservationStatus, actorID uint, actorRole string) error {
	if actorRole == models.RoleAdmin {
		return nil
	}
	isGuest := r.GuestID == actorID
	isOwner := r.Property != nil && r.Property.OwnerID == actorID

	switch to {
	case models.ReservationCancelled:
		// Guests cancel their own stays; owners cancel bookings on their
		// listings.
		if isGuest || isOwner {
			return nil
		}
	case models.ReservationConfirmed, models.ReservationCompleted:
		if isOwner {
			return nil
		}
	}
	return ErrUnauthorized
}

// CompleteDueStays marks confirmed reservations whose check-out has passed as
// completed. Run by an admin or a periodic job; there is no in-process
// scheduler.
func (s *BookingService) CompleteDueStays(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("status = ? AND check_out <= ?", models.ReservationConfirmed, now).
		Update("status", models.ReservationCompleted)
	if res.Error != nil {
		return 0, translateDBError(res.Error)
	}
	return res.RowsAffected, nil
}

// OwnerStats aggregates reservation activity across an owner's listings.
type OwnerStats struct {
	TotalReservations     int64   `json:"totalReservations"`
	TotalRevenue          float64 `json:"totalRevenue"`
	PendingReservations   int64   `json:"pendingReservations"`
	ConfirmedReservations int64   `json:"confirmedReservations"`
	CompletedReservations int64   `json:"completedReservations"`
	CancelledReservations int64   `json:"cancelledReservations"`
}

func (s *BookingService) OwnerStats(ctx context.Context, ownerID uint) (*OwnerStats, error) {
	var reservations []models.Reservation
	err := s.db.WithContext(ctx).
		Joins("JOIN properties p ON p.id = reservations.property_id").
		Where("p.owner_id = ?", ownerID).
		Find(&reservations).Error
	if err != nil {
		return nil, translateDBError(err)
	}

	stats := &OwnerStats{TotalReservations: int64(len(reservations))}
	for _, r := range reservations {
		stats.TotalRevenue += r.TotalAmount
		switch r.Status {
		case models.ReservationPending:
			stats.PendingReservations++
		case models.ReservationConfirmed:
			stats.ConfirmedReservations++
		case models.ReservationCompleted:
			stats.CompletedReservations++
		case models.ReservationCancelled:
			stats.CancelledReservations++
		}
	}
	return stats, nil
}

// errDuplicateKey is internal; CreateReservation decides whether a duplicate
// means "idempotent replay" or "slot already taken".
var errDuplicateKey = errors.New("duplicate key")

// translateDBError maps storage failures onto the booking-domain taxonomy.
// Postgres SQLSTATEs: 23P01 is the reservations exclusion constraint, 23505 a
// unique index.
func translateDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrRangeUnavailable) || errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrInvalidNights) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrTransient
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23P01": // exclusion_violation
			return ErrRangeUnavailable
		case "23505": // unique_violation
			return errDuplicateKey
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return errDuplicateKey
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTransient
	}
	return err
}
