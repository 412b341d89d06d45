package postgres

import (
	"context"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/eavinstitute/admissions/internal/models"
)

// setupTestDB spins up a throwaway Postgres container and applies migrations
func setupTestDB(t *testing.T) (*PostgresStore, func()) {
	ctx := context.Background()

	postgres, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		testcontainers.WithEnv(map[string]string{
			"POSTGRES_DB":       "testdb",
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
		}),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	require.NoError(t, err)

	dsn, err := postgres.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	s, err := NewPostgresStore(dsn, "../../../migrations")
	require.NoError(t, err, "Failed to create store")

	cleanup := func() {
		s.Close()
		postgres.Terminate(ctx)
	}

	return s, cleanup
}

type testData struct {
	store *PostgresStore
	now   time.Time
}

func setupTestData(t *testing.T) (*testData, func()) {
	s, cleanup := setupTestDB(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := s.DB.Exec(`
		INSERT INTO courses (name, fee_balance, fee_per_year) VALUES
		('Plumbing', 1500, 32000),
		('Electrical Installation', 2000, 36000)`)
	require.NoError(t, err, "Failed to insert test data")

	return &testData{
		store: s,
		now:   now,
	}, cleanup
}

func newApplication(number string) *models.Application {
	return &models.Application{
		FullName:        "John Mwangi",
		Email:           "john@example.com",
		Phone:           "254712345678",
		Course:          "Plumbing",
		Location:        "Nakuru",
		PriorGrade:      "C-",
		AdmissionNumber: number,
		Status:          models.StatusPending,
		Source:          models.SourceOnline,
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		log.Println("Skipping Postgres integration tests. Use -short=false to run them.")
		os.Exit(0)
	}
	log.Println("Starting Postgres store tests...")
	code := m.Run()
	log.Println("Finished Postgres store tests")
	os.Exit(code)
}

func TestApplicationLifecycle(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	app := newApplication("EAVI/1001/26")

	t.Run("create application", func(t *testing.T) {
		err := td.store.CreateApplication(app)
		require.NoError(t, err, "Failed to create application")
		assert.NotZero(t, app.ID)
	})

	t.Run("get application", func(t *testing.T) {
		got, err := td.store.GetApplication(app.ID)
		require.NoError(t, err)
		assert.Equal(t, app.AdmissionNumber, got.AdmissionNumber)
		assert.Equal(t, models.StatusPending, got.Status)
	})

	t.Run("status constraint rejects junk", func(t *testing.T) {
		_, err := td.store.DB.Exec(
			`UPDATE applications SET status = 'lost' WHERE id = $1`, app.ID)
		assert.Error(t, err)
	})

	t.Run("transition disarms auto-approval", func(t *testing.T) {
		require.NoError(t, td.store.ArmAutoApproval(app.ID, td.now))
		got, err := td.store.UpdateApplicationStatus(app.ID, models.StatusAccepted)
		require.NoError(t, err)
		assert.Equal(t, models.StatusAccepted, got.Status)
		assert.Nil(t, got.AutoApproveDue)
	})

	t.Run("delete application", func(t *testing.T) {
		require.NoError(t, td.store.DeleteApplication(app.ID))
		_, err := td.store.GetApplication(app.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}

func TestCounterConcurrency(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	// Hammer the counter from several goroutines; the upsert must hand
	// out each value exactly once.
	const workers = 8
	const perWorker = 10

	results := make(chan int, workers*perWorker)
	errs := make(chan error, workers)

	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				n, err := td.store.NextCounterValue("EAVI", 1000)
				if err != nil {
					errs <- err
					return
				}
				results <- n
			}
			errs <- nil
		}()
	}

	for w := 0; w < workers; w++ {
		require.NoError(t, <-errs)
	}
	close(results)

	seen := make(map[int]bool)
	for n := range results {
		assert.False(t, seen[n], "value %d issued twice", n)
		seen[n] = true
	}
	assert.Len(t, seen, workers*perWorker)
}

func TestDueAutoApprovals(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	due := newApplication("EAVI/1001/26")
	future := newApplication("EAVI/1002/26")
	for _, a := range []*models.Application{due, future} {
		require.NoError(t, td.store.CreateApplication(a))
	}
	require.NoError(t, td.store.ArmAutoApproval(due.ID, time.Now().UTC().Add(-time.Minute)))
	require.NoError(t, td.store.ArmAutoApproval(future.ID, time.Now().UTC().Add(time.Hour)))

	got, err := td.store.DueAutoApprovals(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)
}

func TestSettingUpsert(t *testing.T) {
	td, cleanup := setupTestData(t)
	defer cleanup()

	setting := models.Setting{Key: models.SettingApprovalMode, Value: models.ApprovalModeManual}
	require.NoError(t, td.store.UpsertSetting(&setting))

	setting.Value = models.ApprovalModeAutomatic
	require.NoError(t, td.store.UpsertSetting(&setting))

	got, err := td.store.GetSetting(models.SettingApprovalMode)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalModeAutomatic, got.Value)

	settings, err := td.store.ListSettings()
	require.NoError(t, err)
	assert.Len(t, settings, 1)
}
