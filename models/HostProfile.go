package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// HostProfile holds the onboarding details an owner or provider fills in
// before publishing listings.
type HostProfile struct {
	gorm.Model
	UserID       uint           `json:"userID" gorm:"not null;uniqueIndex"`
	CompanyName  string         `json:"companyName"`
	Bio          string         `json:"bio" gorm:"type:text"`
	Languages    datatypes.JSON `json:"languages" gorm:"type:jsonb"`
	Neighborhood string         `json:"neighborhood"`
	IsVerified   bool           `json:"isVerified" gorm:"default:false;index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
