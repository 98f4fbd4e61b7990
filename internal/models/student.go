package models

import "time"

// Student represents a tracked learner with a Codeforces profile.
type Student struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Email         string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Phone         string     `gorm:"size:32" json:"phone"`
	Handle        string     `gorm:"size:255;uniqueIndex;not null" json:"cf_handle"`
	CurrentRating *int       `json:"current_rating"`
	MaxRating     *int       `json:"max_rating"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	EmailOptOut   bool       `gorm:"not null;default:false" json:"email_opt_out"`
	ReminderCount int        `gorm:"not null;default:0" json:"reminder_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
