package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Username     string  `gorm:"unique;not null" json:"username"`
	Email        string  `gorm:"unique;not null" json:"email"`
	PasswordHash string  `gorm:"not null" json:"-"`
	Profile      Profile `json:"profile"`
}

// Profile carries the ranking counter and the explicit role flags for a user.
// Roles live here instead of a group table so handlers never have to look
// group membership up mid-request.
type Profile struct {
	gorm.Model
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	Ranking        int        `gorm:"default:0" json:"ranking"`
	IsModerator    bool       `gorm:"default:false" json:"is_moderator"`
	IsAdmin        bool       `gorm:"default:false" json:"is_admin"`
	LastModRequest *time.Time `json:"last_mod_request,omitempty"`
}

// ModRequestCooldown is the minimum wait between two moderator-rights requests.
const ModRequestCooldown = 7 * 24 * time.Hour

// ModRequestAllowed reports whether the user may request moderator rights.
// Moderators and admins already hold the rights and are never allowed.
func (p *Profile) ModRequestAllowed(now time.Time) bool {
	if p.IsModerator || p.IsAdmin {
		return false
	}
	if p.LastModRequest == nil {
		return true
	}
	return now.Sub(*p.LastModRequest) >= ModRequestCooldown
}
