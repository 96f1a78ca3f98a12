package validator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/internal/config"
	"github.com/ClevelandClinicCVCR/DATABASE-TRANSITION-VALIDATOR/pkg/models"
)

// DataSource is the connector surface the validator consumes. All calls may
// block on I/O and honor the passed context.
type DataSource interface {
	Label() string
	SchemaName() string
	TableNames(ctx context.Context) ([]string, error)
	ViewNames(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]models.Column, error)
	RowCount(ctx context.Context, table string) (int64, error)
	Sample(ctx context.Context, table string, keyColumns, castTypes []string, limit int) ([]models.Row, error)
}

// Object kinds recorded in the existence index.
const (
	objectKindTable = "table"
	objectKindView  = "view"
)

// existenceIndex maps object name to "table" or "view" for one side. It is
// built once before dispatch and read-only afterwards, so concurrent tasks
// never repeat metadata queries.
type existenceIndex map[string]string

func (idx existenceIndex) lookup(name string) (bool, string) {
	kind, ok := idx[name]
	return ok, kind
}

// Validator orchestrates schema and data validation for a set of table
// mappings between one source and one target.
type Validator struct {
	source DataSource
	target DataSource

	typeCompat TypeCompatibility
	settings   *config.Settings
	logger     *logrus.Logger

	sourceIndex existenceIndex
	targetIndex existenceIndex
}

// New creates a validator. The type-compatibility tables are injected so
// engine pairs with different conversion rules can substitute their own.
func New(source, target DataSource, typeCompat TypeCompatibility, settings *config.Settings, logger *logrus.Logger) *Validator {
	return &Validator{
		source:     source,
		target:     target,
		typeCompat: typeCompat,
		settings:   settings,
		logger:     logger,
	}
}

// buildExistenceIndexes loads table and view names for both sides. A
// failure here is a connectivity problem before any task ran and aborts
// the run.
func (v *Validator) buildExistenceIndexes(ctx context.Context) error {
	var err error
	if v.sourceIndex, err = buildExistenceIndex(ctx, v.source); err != nil {
		return fmt.Errorf("inspect source: %w", err)
	}
	if v.targetIndex, err = buildExistenceIndex(ctx, v.target); err != nil {
		return fmt.Errorf("inspect target: %w", err)
	}
	return nil
}

func buildExistenceIndex(ctx context.Context, ds DataSource) (existenceIndex, error) {
	tables, err := ds.TableNames(ctx)
	if err != nil {
		return nil, err
	}
	views, err := ds.ViewNames(ctx)
	if err != nil {
		return nil, err
	}

	idx := make(existenceIndex, len(tables)+len(views))
	for _, name := range tables {
		idx[name] = objectKindTable
	}
	for _, name := range views {
		idx[name] = objectKindView
	}
	return idx, nil
}

// taskGroup is a bounded goroutine group: Go blocks until a worker slot is
// free, Wait blocks until all started tasks returned.
type taskGroup struct {
	wg  sync.WaitGroup
	sem chan struct{}
}

func newTaskGroup(limit int) *taskGroup {
	if limit <= 0 {
		limit = 1
	}
	return &taskGroup{sem: make(chan struct{}, limit)}
}

func (g *taskGroup) Go(fn func()) {
	g.sem <- struct{}{}
	g.wg.Add(1)
	go func() {
		defer func() {
			<-g.sem
			g.wg.Done()
		}()
		fn()
	}()
}

func (g *taskGroup) Wait() {
	g.wg.Wait()
}

// truncateError keeps the first line of an error message, capped so a
// driver stack dump cannot flood the report.
func truncateError(err interface{}) string {
	msg := fmt.Sprintf("%v", err)
	if idx := strings.IndexByte(msg, '\n'); idx >= 0 {
		msg = msg[:idx]
	}
	if msg == "" {
		msg = "Unknown error"
	}
	const maxLen = 300
	if len(msg) > maxLen {
		msg = msg[:maxLen] + "..."
	}
	return msg
}
