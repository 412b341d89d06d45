package allocator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/eavinstitute/admissions/internal/metrics"
	"github.com/eavinstitute/admissions/internal/models"
	"github.com/eavinstitute/admissions/internal/store"
)

// Allocator issues admission numbers in the PREFIX/NNNN/YY format. The
// committed path goes through the store's atomic counter bump; the peek
// path degrades to a timestamp-derived number when the store is down, so
// application intake is never blocked on a read failure.
type Allocator struct {
	store           store.AdmissionStore
	prefix          string
	defaultStarting int
	now             func() time.Time
}

func New(s store.AdmissionStore, prefix string, defaultStarting int) *Allocator {
	return &Allocator{
		store:           s,
		prefix:          prefix,
		defaultStarting: defaultStarting,
		now:             time.Now,
	}
}

type ConflictReport struct {
	WouldConflict      bool     `json:"would_conflict"`
	HighestExisting    int      `json:"highest_existing"`
	SuggestedStarting  int      `json:"suggested_starting"`
	ConflictingNumbers []string `json:"conflicting_numbers"`
}

type ResetResult struct {
	Success              bool   `json:"success"`
	Message              string `json:"message"`
	ActualStartingNumber int    `json:"actual_starting_number"`
	NextNumber           string `json:"next_number"`
}

func (a *Allocator) year() string {
	return a.now().UTC().Format("06")
}

func (a *Allocator) Format(n int) string {
	return fmt.Sprintf("%s/%04d/%s", a.prefix, n, a.year())
}

// configuredStarting reads the admissionStartingNumber setting, falling
// back to the config default. The setting is a reference floor only; it
// does not mutate counter state by itself.
func (a *Allocator) configuredStarting() int {
	setting, err := a.store.GetSetting(models.SettingStartingNumber)
	if err != nil {
		return a.defaultStarting
	}
	n, err := strconv.Atoi(setting.Value)
	if err != nil || n < 1 {
		return a.defaultStarting
	}
	return n
}

// nextCandidate computes the number the next allocation would issue:
// one past the highest issued suffix, raised to the configured starting
// number and past any manually reset counter value.
func (a *Allocator) nextCandidate() (int, error) {
	highest, err := a.store.HighestAdmissionSuffix(a.prefix, a.year())
	if err != nil {
		return 0, err
	}

	next := highest + 1
	if starting := a.configuredStarting(); starting > next {
		next = starting
	}
	if counter, err := a.store.GetCounter(a.prefix); err == nil && counter.CurrentNumber+1 > next {
		next = counter.CurrentNumber + 1
	}
	return next, nil
}

// fallbackNumber derives a number from the clock. Uniqueness is
// best-effort on this path; collisions with properly allocated numbers
// are theoretically possible and accepted for availability.
func (a *Allocator) fallbackNumber() int {
	return int(a.now().Unix() % 100000)
}

// PeekNext returns the candidate next admission number without committing
// it. Storage failures are non-fatal: the fallback keeps intake available.
func (a *Allocator) PeekNext() string {
	next, err := a.nextCandidate()
	if err != nil {
		logger.Error.Printf("allocator: peek failed for prefix %s, using fallback: %v", a.prefix, err)
		metrics.AllocatorFallbacks.Inc()
		return a.Format(a.fallbackNumber())
	}
	return a.Format(next)
}

// Allocate commits the next admission number through the store's atomic
// counter increment, so concurrent creators cannot both observe the same
// value.
func (a *Allocator) Allocate() (string, error) {
	floor, err := a.nextCandidate()
	if err != nil {
		logger.Error.Printf("allocator: allocate failed for prefix %s, using fallback: %v", a.prefix, err)
		metrics.AllocatorFallbacks.Inc()
		return a.Format(a.fallbackNumber()), nil
	}

	issued, err := a.store.NextCounterValue(a.prefix, floor)
	if err != nil {
		logger.Error.Printf("allocator: counter bump failed for prefix %s, using fallback: %v", a.prefix, err)
		metrics.AllocatorFallbacks.Inc()
		return a.Format(a.fallbackNumber()), nil
	}
	return a.Format(issued), nil
}

// CheckConflicts reports whether setting the counter to candidate would
// collide with numbers already issued for this prefix and year.
func (a *Allocator) CheckConflicts(candidate int) (*ConflictReport, error) {
	numbers, err := a.store.ListAdmissionNumbers(a.prefix, a.year())
	if err != nil {
		return nil, fmt.Errorf("conflict check for prefix %s: %w", a.prefix, err)
	}

	report := &ConflictReport{}
	for _, num := range numbers {
		n, ok := parseSuffix(num)
		if !ok {
			continue
		}
		if n > report.HighestExisting {
			report.HighestExisting = n
		}
		if n >= candidate {
			report.ConflictingNumbers = append(report.ConflictingNumbers, num)
		}
	}

	report.WouldConflict = candidate <= report.HighestExisting
	report.SuggestedStarting = candidate
	if report.WouldConflict {
		report.SuggestedStarting = report.HighestExisting + 1
	}
	return report, nil
}

// ResetCounterSafely adjusts the stored counter so the next allocation
// issues startingNumber. A request that would collide with issued numbers
// is raised to highest+1 instead of failing hard: the admin flow proceeds,
// and the report says what actually happened.
func (a *Allocator) ResetCounterSafely(startingNumber int) (*ResetResult, error) {
	report, err := a.CheckConflicts(startingNumber)
	if err != nil {
		return nil, err
	}

	actual := startingNumber
	if report.WouldConflict {
		actual = report.HighestExisting + 1
	}
	// The configured starting number floors every allocation, so a reset
	// below it would promise a number the allocator will never issue.
	if starting := a.configuredStarting(); actual < starting {
		actual = starting
	}

	result := &ResetResult{
		Success:              actual == startingNumber,
		ActualStartingNumber: actual,
	}
	switch {
	case result.Success:
		result.Message = fmt.Sprintf("counter set; next admission number will be %04d", actual)
	case report.WouldConflict:
		result.Message = fmt.Sprintf(
			"starting number %d collides with %d issued number(s), highest %d; counter set to %d instead",
			startingNumber, len(report.ConflictingNumbers), report.HighestExisting, actual,
		)
	default:
		result.Message = fmt.Sprintf(
			"starting number %d is below the configured starting number; counter set to %d instead",
			startingNumber, actual,
		)
	}

	if err := a.store.SetCounter(a.prefix, actual-1); err != nil {
		return nil, fmt.Errorf("counter reset for prefix %s: %w", a.prefix, err)
	}
	result.NextNumber = a.Format(actual)
	return result, nil
}

func parseSuffix(num string) (int, bool) {
	parts := strings.Split(num, "/")
	if len(parts) != 3 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
