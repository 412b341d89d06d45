package store

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eavinstitute/admissions/internal/models"
)

type AdmissionStore interface {
	Close() error
	ApplyMigrations(dir string) error

	CreateApplication(app *models.Application) error
	GetApplication(id int64) (*models.Application, error)
	ListApplications(filter models.ApplicationFilter) ([]models.Application, error)
	UpdateApplication(app *models.Application) error
	DeleteApplication(id int64) error
	UpdateApplicationStatus(id int64, status models.Status) (*models.Application, error)
	MarkLetterSent(id int64, at time.Time) error

	ListAdmissionNumbers(prefix, year string) ([]string, error)
	HighestAdmissionSuffix(prefix, year string) (int, error)
	NextCounterValue(prefix string, floor int) (int, error)
	GetCounter(prefix string) (*models.Counter, error)
	SetCounter(prefix string, value int) error

	ArmAutoApproval(id int64, due time.Time) error
	DisarmAutoApproval(id int64) error
	DueAutoApprovals(now time.Time) ([]models.Application, error)

	CreateCourse(course *models.Course) error
	GetCourseByName(name string) (*models.Course, error)
	ListCourses() ([]models.Course, error)
	UpdateCourse(course *models.Course) error
	DeleteCourse(id int64) error

	UpsertSetting(setting *models.Setting) error
	GetSetting(key string) (*models.Setting, error)
	ListSettings() ([]models.Setting, error)

	CreateEmailLog(entry *models.EmailLog) error
	ListEmailLogs(applicationID int64) ([]models.EmailLog, error)
}

// BaseStore provides the shared sqlx implementation; dialect stores embed it
// and supply a placeholder Converter plus the few dialect-specific queries.
type BaseStore struct {
	DB        *sqlx.DB
	Converter func(string) string
}

func (s *BaseStore) Close() error {
	if s.DB != nil {
		return s.DB.Close()
	}
	return nil
}

// ApplyMigrations applies SQL migrations from a directory, translating dialect if needed
func (s *BaseStore) ApplyMigrations(dir string, translateSQL func(string) string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		content, err := os.ReadFile(fmt.Sprintf("%s/%s", dir, file.Name()))
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file.Name(), err)
		}

		sql := string(content)
		if translateSQL != nil {
			sql = translateSQL(sql)
		}

		if _, err := s.DB.Exec(sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.Name(), err)
		}
	}

	return nil
}

func (s *BaseStore) CreateApplication(app *models.Application) error {
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now().UTC()
	}
	query := s.Converter(`
		INSERT INTO applications
			(full_name, email, phone, course, location, prior_grade,
			 admission_number, status, source, applied_at, auto_approve_due_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&app.ID, query,
		app.FullName, app.Email, app.Phone, app.Course, app.Location, app.PriorGrade,
		app.AdmissionNumber, app.Status, app.Source, app.AppliedAt, app.AutoApproveDue,
	)
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	return nil
}

func (s *BaseStore) GetApplication(id int64) (*models.Application, error) {
	var app models.Application
	query := s.Converter(`
		SELECT id, full_name, email, phone, course, location, prior_grade,
		       admission_number, status, source, applied_at, auto_approve_due_at, letter_sent_at
		FROM applications
		WHERE id = ?
	`)
	err := s.DB.Get(&app, query, id)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application %d: %w", id, err)
	}
	return &app, nil
}

func (s *BaseStore) ListApplications(filter models.ApplicationFilter) ([]models.Application, error) {
	query := `
		SELECT id, full_name, email, phone, course, location, prior_grade,
		       admission_number, status, source, applied_at, auto_approve_due_at, letter_sent_at
		FROM applications
		WHERE 1=1
	`
	var args []interface{}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if filter.NameContains != "" {
		query += " AND LOWER(full_name) LIKE ?"
		args = append(args, "%"+strings.ToLower(filter.NameContains)+"%")
	}
	if filter.NumberPrefix != "" {
		query += " AND admission_number LIKE ?"
		args = append(args, filter.NumberPrefix+"%")
	}
	query += " ORDER BY applied_at DESC, id DESC"

	var apps []models.Application
	if err := s.DB.Select(&apps, s.Converter(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, nil
}

func (s *BaseStore) UpdateApplication(app *models.Application) error {
	query := s.Converter(`
		UPDATE applications
		SET full_name = ?, email = ?, phone = ?, course = ?, location = ?, prior_grade = ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query,
		app.FullName, app.Email, app.Phone, app.Course, app.Location, app.PriorGrade, app.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update application %d: %w", app.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *BaseStore) DeleteApplication(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM applications WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete application %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateApplicationStatus persists the new status and disarms any pending
// auto-approval in the same write, then returns the fresh row.
func (s *BaseStore) UpdateApplicationStatus(id int64, status models.Status) (*models.Application, error) {
	query := s.Converter(`
		UPDATE applications
		SET status = ?, auto_approve_due_at = NULL
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query, status, id)
	if err != nil {
		return nil, fmt.Errorf("failed to update status of application %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, models.ErrNotFound
	}
	return s.GetApplication(id)
}

func (s *BaseStore) MarkLetterSent(id int64, at time.Time) error {
	query := s.Converter(`UPDATE applications SET letter_sent_at = ? WHERE id = ?`)
	if _, err := s.DB.Exec(query, at, id); err != nil {
		return fmt.Errorf("failed to mark letter sent for application %d: %w", id, err)
	}
	return nil
}

func (s *BaseStore) ListAdmissionNumbers(prefix, year string) ([]string, error) {
	var numbers []string
	query := s.Converter(`
		SELECT admission_number
		FROM applications
		WHERE admission_number LIKE ?
		ORDER BY admission_number ASC
	`)
	err := s.DB.Select(&numbers, query, prefix+"/%/"+year)
	if err != nil {
		return nil, fmt.Errorf("failed to list admission numbers: %w", err)
	}
	return numbers, nil
}

// HighestAdmissionSuffix parses the numeric component of every issued
// number for prefix+year and returns the highest, or 0 when none exist.
// Parsing happens here rather than in SQL so both dialects share it.
func (s *BaseStore) HighestAdmissionSuffix(prefix, year string) (int, error) {
	numbers, err := s.ListAdmissionNumbers(prefix, year)
	if err != nil {
		return 0, err
	}
	highest := 0
	for _, num := range numbers {
		parts := strings.Split(num, "/")
		if len(parts) != 3 {
			continue
		}
		n, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if n > highest {
			highest = n
		}
	}
	return highest, nil
}

func (s *BaseStore) ArmAutoApproval(id int64, due time.Time) error {
	query := s.Converter(`
		UPDATE applications
		SET auto_approve_due_at = ?
		WHERE id = ? AND status = 'pending'
	`)
	if _, err := s.DB.Exec(query, due, id); err != nil {
		return fmt.Errorf("failed to arm auto-approval for application %d: %w", id, err)
	}
	return nil
}

func (s *BaseStore) DisarmAutoApproval(id int64) error {
	query := s.Converter(`UPDATE applications SET auto_approve_due_at = NULL WHERE id = ?`)
	if _, err := s.DB.Exec(query, id); err != nil {
		return fmt.Errorf("failed to disarm auto-approval for application %d: %w", id, err)
	}
	return nil
}

// DueAutoApprovals returns pending applications whose due-at has elapsed.
// Rows that left pending since arming are excluded, which is what makes the
// sweep check-then-act rather than a blind overwrite.
func (s *BaseStore) DueAutoApprovals(now time.Time) ([]models.Application, error) {
	var apps []models.Application
	query := s.Converter(`
		SELECT id, full_name, email, phone, course, location, prior_grade,
		       admission_number, status, source, applied_at, auto_approve_due_at, letter_sent_at
		FROM applications
		WHERE status = 'pending'
		AND auto_approve_due_at IS NOT NULL
		AND auto_approve_due_at <= ?
		ORDER BY auto_approve_due_at ASC
	`)
	if err := s.DB.Select(&apps, query, now); err != nil {
		return nil, fmt.Errorf("failed to fetch due auto-approvals: %w", err)
	}
	return apps, nil
}

func (s *BaseStore) GetCounter(prefix string) (*models.Counter, error) {
	var counter models.Counter
	query := s.Converter(`
		SELECT prefix, current_number, last_updated
		FROM admission_counters
		WHERE prefix = ?
	`)
	err := s.DB.Get(&counter, query, prefix)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get counter %s: %w", prefix, err)
	}
	return &counter, nil
}

func (s *BaseStore) CreateCourse(course *models.Course) error {
	query := s.Converter(`
		INSERT INTO courses (name, fee_balance, fee_per_year)
		VALUES (?, ?, ?)
		RETURNING id
	`)
	err := s.DB.Get(&course.ID, query, course.Name, course.FeeBalance, course.FeePerYear)
	if err != nil {
		return fmt.Errorf("failed to create course: %w", err)
	}
	return nil
}

func (s *BaseStore) GetCourseByName(name string) (*models.Course, error) {
	var course models.Course
	query := s.Converter(`
		SELECT id, name, fee_balance, fee_per_year
		FROM courses
		WHERE name = ?
	`)
	err := s.DB.Get(&course, query, name)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course %q: %w", name, err)
	}
	return &course, nil
}

func (s *BaseStore) ListCourses() ([]models.Course, error) {
	var courses []models.Course
	err := s.DB.Select(&courses, `
		SELECT id, name, fee_balance, fee_per_year
		FROM courses
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, nil
}

func (s *BaseStore) UpdateCourse(course *models.Course) error {
	query := s.Converter(`
		UPDATE courses
		SET name = ?, fee_balance = ?, fee_per_year = ?
		WHERE id = ?
	`)
	res, err := s.DB.Exec(query, course.Name, course.FeeBalance, course.FeePerYear, course.ID)
	if err != nil {
		return fmt.Errorf("failed to update course %d: %w", course.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *BaseStore) DeleteCourse(id int64) error {
	res, err := s.DB.Exec(s.Converter(`DELETE FROM courses WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete course %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (s *BaseStore) UpsertSetting(setting *models.Setting) error {
	setting.UpdatedAt = time.Now().UTC()
	_, err := s.DB.NamedExec(`
		INSERT INTO settings (key, value, description, updated_at)
		VALUES (:key, :value, :description, :updated_at)
		ON CONFLICT(key) DO UPDATE SET
		value = :value,
		description = :description,
		updated_at = :updated_at
	`, setting)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %s: %w", setting.Key, err)
	}
	return nil
}

func (s *BaseStore) GetSetting(key string) (*models.Setting, error) {
	var setting models.Setting
	query := s.Converter(`
		SELECT key, value, description, updated_at
		FROM settings
		WHERE key = ?
	`)
	err := s.DB.Get(&setting, query, key)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return &setting, nil
}

func (s *BaseStore) ListSettings() ([]models.Setting, error) {
	var settings []models.Setting
	err := s.DB.Select(&settings, `
		SELECT key, value, description, updated_at
		FROM settings
		ORDER BY key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}
	return settings, nil
}

func (s *BaseStore) CreateEmailLog(entry *models.EmailLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.DB.NamedExec(`
		INSERT INTO email_logs (application_id, recipient, subject, status, provider_id, error, created_at)
		VALUES (:application_id, :recipient, :subject, :status, :provider_id, :error, :created_at)
	`, entry)
	if err != nil {
		return fmt.Errorf("failed to create email log: %w", err)
	}
	return nil
}

func (s *BaseStore) ListEmailLogs(applicationID int64) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	query := s.Converter(`
		SELECT id, application_id, recipient, subject, status, provider_id, error, created_at
		FROM email_logs
		WHERE application_id = ?
		ORDER BY created_at DESC, id DESC
	`)
	if err := s.DB.Select(&logs, query, applicationID); err != nil {
		return nil, fmt.Errorf("failed to list email logs: %w", err)
	}
	return logs, nil
}
