package models

import "time"

// ProblemRecord stores the first accepted solve of one problem by a student.
// ProblemID is the canonical "contestID-index" identifier; exactly one record
// exists per distinct problem per student.
type ProblemRecord struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	StudentID   uint      `gorm:"not null;index:idx_problem_student_problem,unique" json:"student_id"`
	ProblemID   string    `gorm:"size:64;not null;index:idx_problem_student_problem,unique" json:"problem_id"`
	ProblemName string    `gorm:"size:255" json:"problem_name"`
	Rating      *int      `json:"rating"`
	DateSolved  time.Time `gorm:"not null;index" json:"date_solved"`
	Student     Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
