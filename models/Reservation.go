package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// Terminal reports whether no further status transition is permitted.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationCancelled || s == ReservationCompleted
}

// CanTransition is the reservation state machine:
// pending → confirmed → completed, with pending/confirmed → cancelled.
func (s ReservationStatus) CanTransition(to ReservationStatus) bool {
	switch s {
	case ReservationPending:
		return to == ReservationConfirmed || to == ReservationCancelled
	case ReservationConfirmed:
		return to == ReservationCompleted || to == ReservationCancelled
	}
	return false
}

// Reservation is a guest's stay at a property over [CheckIn, CheckOut).
// For a given property no two reservations with status pending or confirmed
// may overlap; the reservations table enforces this with an exclusion
// constraint and bookings additionally serialize per property.
type Reservation struct {
	gorm.Model
	PropertyID     uint              `json:"propertyID" gorm:"not null;index"`
	GuestID        uint              `json:"guestID" gorm:"not null;index"`
	CheckIn        time.Time         `json:"checkIn" gorm:"type:date;not null"`
	CheckOut       time.Time         `json:"checkOut" gorm:"type:date;not null"`
	Adults         int               `json:"adults" gorm:"default:1"`
	Children       int               `json:"children" gorm:"default:0"`
	Infants        int               `json:"infants" gorm:"default:0"`
	Pets           int               `json:"pets" gorm:"default:0"`
	TotalAmount    float64           `json:"totalAmount"`
	Status         ReservationStatus `json:"status" gorm:"type:varchar(20);default:pending;index"`
	PaymentStatus  PaymentStatus     `json:"paymentStatus" gorm:"type:varchar(20);default:pending"`
	Services       datatypes.JSON    `json:"services" gorm:"type:jsonb"` // additional services billed into TotalAmount
	IdempotencyKey *string           `json:"idempotencyKey,omitempty" gorm:"uniqueIndex"`

	Property *Property `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Guest    *User     `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
}

// OverlapsRange reports whether the stay intersects [checkIn, checkOut)
// under half-open semantics: back-to-back stays do not overlap.
func (r *Reservation) OverlapsRange(checkIn, checkOut time.Time) bool {
	return r.CheckIn.Before(checkOut) && r.CheckOut.After(checkIn)
}
