package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/dto"
	"github.com/noah-isme/spms-go-api/internal/models"
	"github.com/noah-isme/spms-go-api/internal/repository"
)

// ErrStudentNotFound signals an unknown student id or handle.
var ErrStudentNotFound = errors.New("student not found")

// ErrStudentConflict signals a duplicate email or Codeforces handle.
var ErrStudentConflict = errors.New("email or codeforces handle already exists")

// StudentService manages the student roster.
type StudentService interface {
	Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, id uint) (dto.StudentResponse, error)
	List(ctx context.Context, page, perPage int) (dto.StudentListResponse, error)
	Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, id uint) error
}

type studentService struct {
	repo      repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs the roster service.
func NewStudentService(repo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		repo:      repo,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:        payload.Name,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Handle:      payload.Handle,
		EmailOptOut: payload.EmailOptOut,
	}

	if err := s.repo.Create(ctx, &student); err != nil {
		if isDuplicateError(err) {
			return dto.StudentResponse{}, ErrStudentConflict
		}
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Str("cf_handle", student.Handle).Msg("student registered")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, id uint) (dto.StudentResponse, error) {
	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, page, perPage int) (dto.StudentListResponse, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	students, total, err := s.repo.List(ctx, page, perPage)
	if err != nil {
		return dto.StudentListResponse{}, err
	}

	pages := int(total) / perPage
	if int(total)%perPage != 0 {
		pages++
	}

	return dto.StudentListResponse{
		Students:    dto.NewStudentResponseSlice(students),
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
	}, nil
}

func (s *studentService) Update(ctx context.Context, id uint, payload dto.StudentUpdateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrStudentNotFound
		}
		return dto.StudentResponse{}, err
	}

	if payload.Name != nil {
		student.Name = *payload.Name
	}
	if payload.Email != nil {
		student.Email = *payload.Email
	}
	if payload.Phone != nil {
		student.Phone = *payload.Phone
	}
	if payload.Handle != nil {
		student.Handle = *payload.Handle
	}
	if payload.EmailOptOut != nil {
		student.EmailOptOut = *payload.EmailOptOut
	}

	if err := s.repo.Update(ctx, &student); err != nil {
		if isDuplicateError(err) {
			return dto.StudentResponse{}, ErrStudentConflict
		}
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id uint) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	return s.repo.Delete(ctx, id)
}

func isDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
