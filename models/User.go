package models

import (
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Account roles form a closed set; role middleware dispatches on them.
const (
	RoleAdmin    = "admin"
	RoleOwner    = "owner"
	RoleTraveler = "traveler"
	RolePartner  = "partner"
	RoleProvider = "provider"
)

// ValidRole reports whether role is one of the known account types.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleOwner, RoleTraveler, RolePartner, RoleProvider:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	FirstName           string         `json:"firstName"`
	LastName            string         `json:"lastName"`
	Email               string         `json:"email" gorm:"uniqueIndex"`
	Phone               string         `json:"phone"`
	Password            string         `json:"-"`
	SocialLogin         bool           `json:"socialLogin"`
	SocialProvider      string         `json:"socialProvider"`
	ProfileImage        string         `json:"profileImage"`
	Role                string         `json:"role" gorm:"type:varchar(20);default:traveler;index"` // admin, owner, traveler, partner, provider
	SavedProperties     datatypes.JSON `json:"savedProperties"`
	PushTokens          datatypes.JSON `json:"pushTokens"`
	AllowsNotifications *bool          `json:"allowsNotifications"`
	Properties          []Property     `json:"properties,omitempty" gorm:"foreignKey:OwnerID;references:ID"`
	HostProfile         *HostProfile   `json:"hostProfile,omitempty" gorm:"foreignKey:UserID"`
}

// Custom JSON marshaling so JSONB columns render as arrays, not raw bytes.
func (u *User) MarshalJSON() ([]byte, error) {
	type Alias User
	aux := &struct {
		SavedProperties []int    `json:"savedProperties,omitempty"`
		PushTokens      []string `json:"pushTokens,omitempty"`
		*Alias
	}{
		SavedProperties: []int{},
		PushTokens:      []string{},
		Alias:           (*Alias)(u),
	}

	if u.SavedProperties != nil {
		var saved []int
		if err := json.Unmarshal(u.SavedProperties, &saved); err == nil {
			aux.SavedProperties = saved
		}
	}

	if u.PushTokens != nil {
		var tokens []string
		if err := json.Unmarshal(u.PushTokens, &tokens); err == nil {
			aux.PushTokens = tokens
		}
	}

	return json.Marshal(aux)
}
