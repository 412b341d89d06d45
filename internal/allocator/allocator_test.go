package allocator

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/store/sqlite"
)

func setupAllocator(t *testing.T) (*Allocator, *sqlite.SQLiteStore) {
	s, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	a := New(s, "EAVI", 1000)
	a.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	return a, s
}

func insertNumber(t *testing.T, s *sqlite.SQLiteStore, number string) {
	app := &models.Application{
		FullName:        "Test Applicant",
		Phone:           "254712345678",
		Course:          "Plumbing",
		AdmissionNumber: number,
		Status:          models.StatusPending,
		Source:          models.SourceManual,
	}
	require.NoError(t, s.CreateApplication(app))
}

func TestFormat(t *testing.T) {
	a, _ := setupAllocator(t)

	assert.Equal(t, "EAVI/1000/26", a.Format(1000))
	assert.Equal(t, "EAVI/0007/26", a.Format(7))
}

func TestAllocateStartsAtConfiguredFloor(t *testing.T) {
	a, _ := setupAllocator(t)

	num, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/1000/26", num)

	num, err = a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/1001/26", num)
}

func TestAllocateContinuesPastHighestIssued(t *testing.T) {
	a, s := setupAllocator(t)

	insertNumber(t, s, "EAVI/1000/26")
	insertNumber(t, s, "EAVI/1002/26")

	num, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/1003/26", num, "gaps are not reused")
}

func TestAllocateRespectsStartingSetting(t *testing.T) {
	a, s := setupAllocator(t)

	require.NoError(t, s.UpsertSetting(&models.Setting{
		Key:   models.SettingStartingNumber,
		Value: strconv.Itoa(2500),
	}))

	num, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/2500/26", num)
}

func TestAllocateIgnoresOtherPrefixAndYear(t *testing.T) {
	a, s := setupAllocator(t)

	insertNumber(t, s, "JKU/9000/26")
	insertNumber(t, s, "EAVI/8000/25")

	num, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/1000/26", num)
}

func TestPeekNextDoesNotConsume(t *testing.T) {
	a, _ := setupAllocator(t)

	assert.Equal(t, "EAVI/1000/26", a.PeekNext())
	assert.Equal(t, "EAVI/1000/26", a.PeekNext())

	num, err := a.Allocate()
	require.NoError(t, err)
	assert.Equal(t, "EAVI/1000/26", num)
	assert.Equal(t, "EAVI/1001/26", a.PeekNext())
}

func TestCheckConflicts(t *testing.T) {
	a, s := setupAllocator(t)

	insertNumber(t, s, "EAVI/1000/26")
	insertNumber(t, s, "EAVI/1005/26")

	t.Run("candidate below highest conflicts", func(t *testing.T) {
		report, err := a.CheckConflicts(1002)
		require.NoError(t, err)
		assert.True(t, report.WouldConflict)
		assert.Equal(t, 1005, report.HighestExisting)
		assert.Equal(t, 1006, report.SuggestedStarting)
		assert.Equal(t, []string{"EAVI/1005/26"}, report.ConflictingNumbers)
	})

	t.Run("candidate past highest is clean", func(t *testing.T) {
		report, err := a.CheckConflicts(1006)
		require.NoError(t, err)
		assert.False(t, report.WouldConflict)
		assert.Equal(t, 1006, report.SuggestedStarting)
		assert.Empty(t, report.ConflictingNumbers)
	})
}

func TestResetCounterSafely(t *testing.T) {
	t.Run("clean reset takes effect", func(t *testing.T) {
		a, _ := setupAllocator(t)

		result, err := a.ResetCounterSafely(3000)
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 3000, result.ActualStartingNumber)
		assert.Equal(t, "EAVI/3000/26", result.NextNumber)

		num, err := a.Allocate()
		require.NoError(t, err)
		assert.Equal(t, "EAVI/3000/26", num)
	})

	t.Run("reset below configured floor is raised to it", func(t *testing.T) {
		a, _ := setupAllocator(t)

		result, err := a.ResetCounterSafely(500)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1000, result.ActualStartingNumber)
		assert.Equal(t, "EAVI/1000/26", result.NextNumber)
		assert.Contains(t, result.Message, "below the configured starting number")

		num, err := a.Allocate()
		require.NoError(t, err)
		assert.Equal(t, result.NextNumber, num, "report matches what allocation issues")
	})

	t.Run("floor from the settings table applies too", func(t *testing.T) {
		a, s := setupAllocator(t)
		require.NoError(t, s.UpsertSetting(&models.Setting{
			Key:   models.SettingStartingNumber,
			Value: strconv.Itoa(2000),
		}))

		result, err := a.ResetCounterSafely(1500)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 2000, result.ActualStartingNumber)
		assert.Equal(t, "EAVI/2000/26", result.NextNumber)
	})

	t.Run("colliding reset is raised past issued numbers", func(t *testing.T) {
		a, s := setupAllocator(t)
		insertNumber(t, s, "EAVI/1500/26")

		result, err := a.ResetCounterSafely(1200)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, 1501, result.ActualStartingNumber)
		assert.Contains(t, result.Message, "collides")

		num, err := a.Allocate()
		require.NoError(t, err)
		assert.Equal(t, "EAVI/1501/26", num)
	})
}

func TestFallbackOnStorageFailure(t *testing.T) {
	s, err := sqlite.NewSQLiteStore(":memory:", "../../migrations")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	a := New(s, "EAVI", 1000)
	a.now = func() time.Time {
		return time.Unix(1767225600, 0) // 2026-01-01 00:00:00 UTC
	}

	num, err := a.Allocate()
	require.NoError(t, err, "intake stays available when storage is down")
	assert.Equal(t, a.Format(1767225600%100000), num)
}
