package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/spms-go-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Student{}, &models.ContestRecord{}, &models.ProblemRecord{}))

	return db
}

func seedStudent(t *testing.T, db *gorm.DB, handle string) models.Student {
	t.Helper()

	student := models.Student{
		Name:   "Seed Student",
		Email:  handle + "@example.com",
		Handle: handle,
	}
	require.NoError(t, db.Create(&student).Error)

	return student
}

func TestStudentRepositoryCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := models.Student{Name: "Alice", Email: "alice@example.com", Handle: "alice_cf"}
	require.NoError(t, repo.Create(ctx, &student))
	require.NotZero(t, student.ID)

	byID, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, "alice_cf", byID.Handle)

	byHandle, err := repo.GetByHandle(ctx, "alice_cf")
	require.NoError(t, err)
	require.Equal(t, student.ID, byHandle.ID)

	_, err = repo.GetByHandle(ctx, "nobody")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryUniqueConstraints(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	first := models.Student{Name: "Alice", Email: "alice@example.com", Handle: "alice_cf"}
	require.NoError(t, repo.Create(ctx, &first))

	dupEmail := models.Student{Name: "Bob", Email: "alice@example.com", Handle: "bob_cf"}
	require.ErrorIs(t, repo.Create(ctx, &dupEmail), gorm.ErrDuplicatedKey)

	dupHandle := models.Student{Name: "Bob", Email: "bob@example.com", Handle: "alice_cf"}
	require.ErrorIs(t, repo.Create(ctx, &dupHandle), gorm.ErrDuplicatedKey)
}

func TestStudentRepositoryListPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		student := models.Student{
			Name:   fmt.Sprintf("Student %d", i),
			Email:  fmt.Sprintf("student%d@example.com", i),
			Handle: fmt.Sprintf("handle_%d", i),
		}
		require.NoError(t, repo.Create(ctx, &student))
	}

	page1, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, page1, 2)

	page3, total, err := repo.List(ctx, 3, 2)
	require.NoError(t, err)
	require.Equal(t, int64(5), total)
	require.Len(t, page3, 1)

	// Out-of-range pages come back empty, not as an error.
	page9, _, err := repo.List(ctx, 9, 2)
	require.NoError(t, err)
	require.Empty(t, page9)
}

func TestStudentRepositoryDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "cascade")
	bystander := seedStudent(t, db, "bystander")

	now := time.Now().UTC()
	require.NoError(t, db.Create(&models.ContestRecord{StudentID: student.ID, ContestID: 1, ContestName: "R1", Date: now}).Error)
	require.NoError(t, db.Create(&models.ProblemRecord{StudentID: student.ID, ProblemID: "1-A", ProblemName: "A", DateSolved: now}).Error)
	require.NoError(t, db.Create(&models.ProblemRecord{StudentID: bystander.ID, ProblemID: "1-A", ProblemName: "A", DateSolved: now}).Error)

	require.NoError(t, repo.Delete(ctx, student.ID))

	var contests, problems, bystanderProblems int64
	require.NoError(t, db.Model(&models.ContestRecord{}).Where("student_id = ?", student.ID).Count(&contests).Error)
	require.NoError(t, db.Model(&models.ProblemRecord{}).Where("student_id = ?", student.ID).Count(&problems).Error)
	require.NoError(t, db.Model(&models.ProblemRecord{}).Where("student_id = ?", bystander.ID).Count(&bystanderProblems).Error)
	require.Zero(t, contests)
	require.Zero(t, problems)
	require.Equal(t, int64(1), bystanderProblems)

	_, err := repo.GetByID(ctx, student.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStudentRepositoryIncrementReminderCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "reminded")

	require.NoError(t, repo.IncrementReminderCount(ctx, student.ID))
	require.NoError(t, repo.IncrementReminderCount(ctx, student.ID))

	updated, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 2, updated.ReminderCount)
}

func TestStudentRepositoryRatingUpdateKeepsReminderCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "raced")

	// Snapshot loaded before another sync unit moves the counter.
	loaded, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Zero(t, loaded.ReminderCount)

	require.NoError(t, repo.IncrementReminderCount(ctx, student.ID))

	rating := 1500
	synced := time.Now().UTC()
	loaded.CurrentRating = &rating
	loaded.MaxRating = &rating
	loaded.LastSyncedAt = &synced
	require.NoError(t, repo.UpdateSyncedRating(ctx, &loaded))

	updated, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, 1, updated.ReminderCount, "stale snapshot must not reset the counter")
	require.NotNil(t, updated.CurrentRating)
	require.Equal(t, 1500, *updated.CurrentRating)
	require.NotNil(t, updated.LastSyncedAt)
}

func TestStudentRepositoryUpdateScopedToRosterFields(t *testing.T) {
	db := newTestDB(t)
	repo := NewStudentRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "roster_scoped")

	loaded, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)

	rating := 1300
	synced := time.Now().UTC()
	withRating := loaded
	withRating.CurrentRating = &rating
	withRating.LastSyncedAt = &synced
	require.NoError(t, repo.UpdateSyncedRating(ctx, &withRating))
	require.NoError(t, repo.IncrementReminderCount(ctx, student.ID))

	// A roster edit built from the pre-sync snapshot changes only its own
	// columns.
	loaded.Name = "Renamed"
	loaded.EmailOptOut = true
	require.NoError(t, repo.Update(ctx, &loaded))

	updated, err := repo.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.True(t, updated.EmailOptOut)
	require.Equal(t, 1, updated.ReminderCount)
	require.NotNil(t, updated.CurrentRating)
	require.Equal(t, 1300, *updated.CurrentRating)
	require.NotNil(t, updated.LastSyncedAt)
}

func TestContestRecordReplaceForStudent(t *testing.T) {
	db := newTestDB(t)
	repo := NewContestRecordRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "contests")
	other := seedStudent(t, db, "contests_other")

	now := time.Now().UTC()
	require.NoError(t, repo.ReplaceForStudent(ctx, student.ID, []models.ContestRecord{
		{ContestID: 1, ContestName: "Stale Round", Date: now.Add(-48 * time.Hour)},
	}))
	require.NoError(t, repo.ReplaceForStudent(ctx, other.ID, []models.ContestRecord{
		{ContestID: 9, ContestName: "Other Round", Date: now},
	}))

	require.NoError(t, repo.ReplaceForStudent(ctx, student.ID, []models.ContestRecord{
		{ContestID: 2, ContestName: "Fresh Round", Date: now.Add(-24 * time.Hour)},
		{ContestID: 3, ContestName: "Fresher Round", Date: now},
	}))

	records, err := repo.ListByStudent(ctx, student.ID, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, 3, records[0].ContestID, "expected newest first")
	require.Equal(t, 2, records[1].ContestID)

	// Another student's rows survive the replace.
	otherRecords, err := repo.ListByStudent(ctx, other.ID, nil)
	require.NoError(t, err)
	require.Len(t, otherRecords, 1)
}

func TestContestRecordListSinceFilter(t *testing.T) {
	db := newTestDB(t)
	repo := NewContestRecordRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "contests_since")

	now := time.Now().UTC()
	require.NoError(t, repo.ReplaceForStudent(ctx, student.ID, []models.ContestRecord{
		{ContestID: 1, ContestName: "Ancient", Date: now.Add(-90 * 24 * time.Hour)},
		{ContestID: 2, ContestName: "Recent", Date: now.Add(-2 * 24 * time.Hour)},
	}))

	since := now.Add(-30 * 24 * time.Hour)
	records, err := repo.ListByStudent(ctx, student.ID, &since)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 2, records[0].ContestID)
}

func TestProblemRecordReplaceAndLatest(t *testing.T) {
	db := newTestDB(t)
	repo := NewProblemRecordRepository(db)
	ctx := context.Background()

	student := seedStudent(t, db, "problems")

	_, err := repo.LatestForStudent(ctx, student.ID)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	now := time.Now().UTC()
	require.NoError(t, repo.ReplaceForStudent(ctx, student.ID, []models.ProblemRecord{
		{ProblemID: "1-A", ProblemName: "A", DateSolved: now.Add(-72 * time.Hour)},
		{ProblemID: "1-B", ProblemName: "B", DateSolved: now.Add(-24 * time.Hour)},
	}))

	latest, err := repo.LatestForStudent(ctx, student.ID)
	require.NoError(t, err)
	require.Equal(t, "1-B", latest.ProblemID)

	records, err := repo.ListByStudent(ctx, student.ID, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.Equal(t, "1-A", records[0].ProblemID, "expected oldest solve first")

	// Replacing with an empty set clears the rows; the caller decides
	// whether an empty upstream response should ever reach this point.
	require.NoError(t, repo.ReplaceForStudent(ctx, student.ID, nil))
	records, err = repo.ListByStudent(ctx, student.ID, nil)
	require.NoError(t, err)
	require.Empty(t, records)
}
