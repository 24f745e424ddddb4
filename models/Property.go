package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Property struct {
	gorm.Model
	OwnerID            uint           `json:"ownerID" gorm:"not null;index"`
	Title              string         `json:"title"`
	Description        string         `json:"description" gorm:"type:text"`
	Type               string         `json:"type"` // apartment, villa, studio, house
	Address            string         `json:"address"`
	Surface            float64        `json:"surface"` // square meters
	MaxGuests          int            `json:"maxGuests"`
	Bedrooms           int            `json:"bedrooms"`
	Bathrooms          int            `json:"bathrooms"`
	Beds               int            `json:"beds"`
	PricePerNight      float64        `json:"pricePerNight"`
	CleaningFee        float64        `json:"cleaningFee"`
	MinNights          int            `json:"minNights" gorm:"default:1"`
	MaxNights          int            `json:"maxNights" gorm:"default:365"`
	Amenities          datatypes.JSON `json:"amenities" gorm:"type:jsonb"`
	Images             datatypes.JSON `json:"images" gorm:"type:jsonb"`
	Rules              datatypes.JSON `json:"rules" gorm:"type:jsonb"`
	CancellationPolicy string         `json:"cancellationPolicy" gorm:"type:varchar(20);default:flexible"` // flexible, moderate, strict
	CheckInTime        string         `json:"checkInTime" gorm:"type:varchar(10);default:'15:00'"`
	CheckOutTime       string         `json:"checkOutTime" gorm:"type:varchar(10);default:'11:00'"`
	Category           string         `json:"category" gorm:"index"`
	Neighborhood       string         `json:"neighborhood" gorm:"index"`
	BeachAccess        bool           `json:"beachAccess"`
	IsActive           *bool          `json:"isActive" gorm:"default:true;index"`
	Rating             float64        `json:"rating"`

	Owner        User          `json:"owner,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	Reviews      []Review      `json:"reviews,omitempty"`
	Reservations []Reservation `json:"reservations,omitempty"`
}

// ValidNightBounds checks the listing's stay limits. Both bounds are
// positive and min never exceeds max.
func (p *Property) ValidNightBounds() bool {
	return p.MinNights > 0 && p.MaxNights > 0 && p.MinNights <= p.MaxNights
}
