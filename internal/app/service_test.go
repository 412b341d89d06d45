package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eavinstitute/admissions/internal/models"
)

func setupService(t *testing.T) *Service {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	config := `
[server]
port = ":0"

[database]
dsn = ":memory:"
migrations_dir = "../../migrations"

[institute]
name = "East African Vocational Institute"
address = "P.O. Box 1234, Nakuru"
reporting_date = "2026-05-04"

[admissions]
starting_number = 1000
`
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	svc, err := NewService(configPath)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	return svc
}

func TestCreateApplication(t *testing.T) {
	svc := setupService(t)
	require.NoError(t, svc.Store.CreateCourse(&models.Course{Name: "Plumbing", FeePerYear: 32000}))

	app := &models.Application{
		FullName: "John Mwangi",
		Phone:    "0712345678",
		Course:   "Plumbing",
	}
	require.NoError(t, svc.CreateApplication(app, models.SourceOnline))

	assert.NotZero(t, app.ID)
	assert.Equal(t, "254712345678", app.Phone, "phone stored in international form")
	assert.Equal(t, models.StatusPending, app.Status)
	assert.Equal(t, models.SourceOnline, app.Source)
	assert.Contains(t, app.AdmissionNumber, "EAVI/1000/")
}

func TestCreateApplicationUnknownCourse(t *testing.T) {
	svc := setupService(t)

	app := &models.Application{
		FullName: "Grace Achieng",
		Phone:    "0712345678",
		Course:   "Underwater Basket Weaving",
	}
	err := svc.CreateApplication(app, models.SourceManual)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields["course"], "unknown course")
}

func TestCreateApplicationStorageFailure(t *testing.T) {
	svc := setupService(t)
	require.NoError(t, svc.Store.Close())

	app := &models.Application{
		FullName: "John Mwangi",
		Phone:    "0712345678",
		Course:   "Plumbing",
	}
	err := svc.CreateApplication(app, models.SourceManual)

	require.Error(t, err)
	var vErr *models.ValidationError
	assert.False(t, errors.As(err, &vErr),
		"a storage failure during the course check must not masquerade as bad input")
}
