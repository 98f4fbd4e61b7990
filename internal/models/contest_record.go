package models

import "time"

// ContestRecord stores one rated contest appearance for a student.
// The full set for a student is replaced on every successful sync; the
// upstream rating endpoint always returns the authoritative history.
type ContestRecord struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"not null;index" json:"student_id"`
	ContestID    int       `gorm:"not null" json:"contest_id"`
	ContestName  string    `gorm:"size:255" json:"contest_name"`
	Rank         int       `json:"rank"`
	RatingChange int       `json:"rating_change"`
	SolvedCount  *int      `json:"solved_count"`
	NewRating    int       `json:"new_rating"`
	Date         time.Time `gorm:"not null" json:"date"`
	Student      Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
