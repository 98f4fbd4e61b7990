package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/models"
)

// StudentRepository provides access to student records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByHandle(ctx context.Context, handle string) (models.Student, error)
	List(ctx context.Context, page, perPage int) ([]models.Student, int64, error)
	ListAll(ctx context.Context) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	UpdateSyncedRating(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	IncrementReminderCount(ctx context.Context, id uint) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) GetByHandle(ctx context.Context, handle string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("handle = ?", handle).First(&student).Error; err != nil {
		return models.Student{}, err
	}

	return student, nil
}

func (r *studentRepository) List(ctx context.Context, page, perPage int) ([]models.Student, int64, error) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 10
	}

	query := r.db.WithContext(ctx).Model(&models.Student{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var students []models.Student
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("id").Find(&students).Error; err != nil {
		return nil, err
	}

	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

// Update persists the roster-editable columns only. Sync-owned columns
// (ratings, last-synced, reminder counter) move concurrently and have their
// own scoped writers, so a stale snapshot here can never clobber them.
func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Model(student).
		Select("name", "email", "phone", "handle", "email_opt_out").
		Updates(student).Error
}

// UpdateSyncedRating writes the rating snapshot columns only. The reminder
// counter keeps moving between a student's load and this write when the sweep
// and an on-demand sync race, so it must never be written back from the
// loaded snapshot.
func (r *studentRepository) UpdateSyncedRating(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", student.ID).
		Updates(map[string]interface{}{
			"current_rating": student.CurrentRating,
			"max_rating":     student.MaxRating,
			"last_synced_at": student.LastSyncedAt,
		}).Error
}

// Delete removes the student together with all owned contest and problem
// records. The cascade is explicit so it holds on engines where foreign key
// enforcement is off by default.
func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", id).Delete(&models.ContestRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("student_id = ?", id).Delete(&models.ProblemRecord{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Student{}, id).Error
	})
}

// IncrementReminderCount bumps the reminder counter by one without touching
// any other column.
func (r *studentRepository) IncrementReminderCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Student{}).
		Where("id = ?", id).
		UpdateColumn("reminder_count", gorm.Expr("reminder_count + 1")).Error
}
