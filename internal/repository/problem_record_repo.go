package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/models"
)

// ProblemRecordRepository defines data operations for solved-problem records.
type ProblemRecordRepository interface {
	ListByStudent(ctx context.Context, studentID uint, since *time.Time) ([]models.ProblemRecord, error)
	LatestForStudent(ctx context.Context, studentID uint) (models.ProblemRecord, error)
	ReplaceForStudent(ctx context.Context, studentID uint, records []models.ProblemRecord) error
}

type problemRecordRepository struct {
	db *gorm.DB
}

// NewProblemRecordRepository instantiates the repository.
func NewProblemRecordRepository(db *gorm.DB) ProblemRecordRepository {
	return &problemRecordRepository{db: db}
}

func (r *problemRecordRepository) ListByStudent(ctx context.Context, studentID uint, since *time.Time) ([]models.ProblemRecord, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if since != nil {
		query = query.Where("date_solved >= ?", *since)
	}

	var records []models.ProblemRecord
	if err := query.Order("date_solved ASC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// LatestForStudent returns the most recent solve over the student's full
// history. Callers get gorm.ErrRecordNotFound when no solve exists.
func (r *problemRecordRepository) LatestForStudent(ctx context.Context, studentID uint) (models.ProblemRecord, error) {
	var record models.ProblemRecord
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("date_solved DESC").
		First(&record).Error; err != nil {
		return models.ProblemRecord{}, err
	}

	return record, nil
}

// ReplaceForStudent swaps the student's full solved-problem set in one
// transaction, mirroring the contest record replace semantics.
func (r *problemRecordRepository) ReplaceForStudent(ctx context.Context, studentID uint, records []models.ProblemRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&models.ProblemRecord{}).Error; err != nil {
			return err
		}
		if len(records) == 0 {
			return nil
		}
		for i := range records {
			records[i].ID = 0
			records[i].StudentID = studentID
		}
		return tx.CreateInBatches(records, 100).Error
	})
}
