package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/spms-go-api/internal/repository"
)

const rosterSheet = "Students"

// ExportService renders the student roster as a spreadsheet.
type ExportService interface {
	StudentRoster(ctx context.Context) ([]byte, error)
}

type exportService struct {
	students repository.StudentRepository
	logger   zerolog.Logger
}

// NewExportService constructs the roster exporter.
func NewExportService(students repository.StudentRepository, logger zerolog.Logger) ExportService {
	return &exportService{
		students: students,
		logger:   logger.With().Str("component", "export_service").Logger(),
	}
}

func (s *exportService) StudentRoster(ctx context.Context) ([]byte, error) {
	students, err := s.students.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	f.SetSheetName("Sheet1", rosterSheet)

	headers := []string{"ID", "Name", "Email", "Phone", "CF Handle", "Current Rating", "Max Rating", "Last Synced", "Email Opt-Out", "Reminders"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(rosterSheet, cell, header); err != nil {
			return nil, err
		}
	}

	for row, student := range students {
		values := []interface{}{
			student.ID,
			student.Name,
			student.Email,
			student.Phone,
			student.Handle,
			cellRating(student.CurrentRating),
			cellRating(student.MaxRating),
			cellTime(student.LastSyncedAt),
			student.EmailOptOut,
			student.ReminderCount,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(rosterSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write roster workbook: %w", err)
	}

	s.logger.Debug().Int("students", len(students)).Msg("roster exported")

	return buffer.Bytes(), nil
}

func cellRating(rating *int) interface{} {
	if rating == nil {
		return ""
	}
	return *rating
}

func cellTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
