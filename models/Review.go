package models

import "gorm.io/gorm"

// Review is left by a guest after a completed stay. The unique index on
// ReservationID keeps it to one review per reservation.
type Review struct {
	gorm.Model
	GuestID       uint  `json:"guestID" gorm:"not null;index"`
	PropertyID    uint  `json:"propertyID" gorm:"not null;index"`
	ReservationID *uint `json:"reservationID" gorm:"uniqueIndex"`

	Rating  int    `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment string `json:"comment" gorm:"type:text"`

	Guest       User         `json:"guest,omitempty" gorm:"foreignKey:GuestID"`
	Property    Property     `json:"property,omitempty" gorm:"foreignKey:PropertyID"`
	Reservation *Reservation `json:"reservation,omitempty" gorm:"foreignKey:ReservationID"`
}
