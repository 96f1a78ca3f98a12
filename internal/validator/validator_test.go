package validator

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// fakeSource is an in-memory DataSource for orchestration tests.
type fakeSource struct {
	label string

	tables map[string][]models.Column
	views  map[string][]models.Column

	counts    map[string]int64
	countErrs map[string]error

	samples    map[string][]models.Row
	sampleErrs map[string]error
	panicOn    string

	rowCountCalls []string
}

func (f *fakeSource) Label() string      { return f.label }
func (f *fakeSource) SchemaName() string { return "testdb" }

func (f *fakeSource) TableNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeSource) ViewNames(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.views))
	for name := range f.views {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeSource) Columns(ctx context.Context, table string) ([]models.Column, error) {
	if cols, ok := f.tables[table]; ok {
		return cols, nil
	}
	if cols, ok := f.views[table]; ok {
		return cols, nil
	}
	return nil, fmt.Errorf("unknown table %s", table)
}

func (f *fakeSource) RowCount(ctx context.Context, table string) (int64, error) {
	f.rowCountCalls = append(f.rowCountCalls, table)
	if err, ok := f.countErrs[table]; ok {
		return 0, err
	}
	return f.counts[table], nil
}

func (f *fakeSource) Sample(ctx context.Context, table string, keyColumns, castTypes []string, limit int) ([]models.Row, error) {
	if table == f.panicOn {
		panic("driver blew up sampling " + table)
	}
	if err, ok := f.sampleErrs[table]; ok {
		return nil, err
	}
	return f.samples[table], nil
}

func newFakeSource(label string) *fakeSource {
	return &fakeSource{
		label:      label,
		tables:     make(map[string][]models.Column),
		views:      make(map[string][]models.Column),
		counts:     make(map[string]int64),
		countErrs:  make(map[string]error),
		samples:    make(map[string][]models.Row),
		sampleErrs: make(map[string]error),
	}
}

var errSampleBroken = fmt.Errorf("sample query failed")

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Suppress log output during tests
	return logger
}

func testSettings() *config.Settings {
	settings := config.Default()
	settings.Validation.SampleSize = 100
	return settings
}

func newTestValidator(t *testing.T, source, target *fakeSource, settings *config.Settings) *Validator {
	t.Helper()
	v := New(source, target, DefaultTypeCompatibility(), settings, quietLogger())
	if err := v.buildExistenceIndexes(context.Background()); err != nil {
		t.Fatalf("buildExistenceIndexes returned error: %v", err)
	}
	return v
}

func numberRows(values ...float64) []models.Row {
	rows := make([]models.Row, len(values))
	for i, v := range values {
		rows[i] = models.Row{models.NumberValue(v)}
	}
	return rows
}

func TestTruncateError(t *testing.T) {
	if got := truncateError(fmt.Errorf("first line\nsecond line")); got != "first line" {
		t.Errorf("Expected first line only, got %q", got)
	}
	if got := truncateError(""); got != "Unknown error" {
		t.Errorf("Expected fallback message, got %q", got)
	}

	long := make([]byte, 400)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateError(string(long))
	if len(got) != 303 { // 300 plus ellipsis
		t.Errorf("Expected capped message, got length %d", len(got))
	}
}

func TestTaskGroupRunsEverything(t *testing.T) {
	group := newTaskGroup(2)
	results := make([]int, 10)
	for i := 0; i < 10; i++ {
		i := i
		group.Go(func() { results[i] = i + 1 })
	}
	group.Wait()
	for i, v := range results {
		if v != i+1 {
			t.Errorf("Task %d did not run", i)
		}
	}
}
