package dto

import (
	"time"

	"github.com/noah-isme/spms-go-api/internal/models"
)

// StudentCreateRequest is the payload for registering a student.
type StudentCreateRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Handle      string `json:"cf_handle" validate:"required,min=1,max=255"`
	EmailOptOut bool   `json:"email_opt_out"`
}

// StudentUpdateRequest carries partial updates; nil fields are left untouched.
type StudentUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	Handle      *string `json:"cf_handle" validate:"omitempty,min=1,max=255"`
	EmailOptOut *bool   `json:"email_opt_out"`
}

// StudentResponse is the API shape of one student.
type StudentResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Handle        string     `json:"cf_handle"`
	CurrentRating *int       `json:"current_rating"`
	MaxRating     *int       `json:"max_rating"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	EmailOptOut   bool       `json:"email_opt_out"`
	ReminderCount int        `json:"reminder_count"`
	CreatedAt     time.Time  `json:"created_at"`
}

// StudentListResponse wraps a paginated student listing.
type StudentListResponse struct {
	Students    []StudentResponse `json:"students"`
	Total       int64             `json:"total"`
	Pages       int               `json:"pages"`
	CurrentPage int               `json:"current_page"`
}

// NewStudentResponse maps a student model into its API shape.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:            student.ID,
		Name:          student.Name,
		Email:         student.Email,
		Phone:         student.Phone,
		Handle:        student.Handle,
		CurrentRating: student.CurrentRating,
		MaxRating:     student.MaxRating,
		LastSyncedAt:  student.LastSyncedAt,
		EmailOptOut:   student.EmailOptOut,
		ReminderCount: student.ReminderCount,
		CreatedAt:     student.CreatedAt,
	}
}

// NewStudentResponseSlice maps a slice of student models.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
