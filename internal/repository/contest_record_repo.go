package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/models"
)

// ContestRecordRepository defines data operations for contest records.
type ContestRecordRepository interface {
	ListByStudent(ctx context.Context, studentID uint, since *time.Time) ([]models.ContestRecord, error)
	ReplaceForStudent(ctx context.Context, studentID uint, records []models.ContestRecord) error
}

type contestRecordRepository struct {
	db *gorm.DB
}

// NewContestRecordRepository instantiates the repository.
func NewContestRecordRepository(db *gorm.DB) ContestRecordRepository {
	return &contestRecordRepository{db: db}
}

func (r *contestRecordRepository) ListByStudent(ctx context.Context, studentID uint, since *time.Time) ([]models.ContestRecord, error) {
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	if since != nil {
		query = query.Where("date >= ?", *since)
	}

	var records []models.ContestRecord
	if err := query.Order("date DESC").Find(&records).Error; err != nil {
		return nil, err
	}

	return records, nil
}

// ReplaceForStudent swaps the student's full contest history in one
// transaction so readers never observe a mixed old/new set.
func (r *contestRecordRepository) ReplaceForStudent(ctx context.Context, studentID uint, records []models.ContestRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("student_id = ?", studentID).Delete(&models.ContestRecord{}).Error; err != nil {
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
