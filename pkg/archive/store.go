// Package archive keeps every exported recording in a SQLite database so
// earlier flights survive the next export overwriting the series files.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/open-teleop/dronecontrols/domain/drone"
	customlog "github.com/open-teleop/dronecontrols/pkg/log"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when no recording has the requested id.
var ErrNotFound = errors.New("recording not found")

// sampleBatchSize keeps inserts under SQLite's bound variable limit.
const sampleBatchSize = 500

// Store is the recording archive.
type Store struct {
	db     *gorm.DB
	logger customlog.Logger
}

// Open opens or creates the archive at path.
func Open(path string, logger customlog.Logger) (*Store, error) {
	if logger == nil {
		logger = customlog.NewNopLogger()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open archive '%s': %w", path, err)
	}
	if err := db.AutoMigrate(&Recording{}, &Sample{}, &Section{}); err != nil {
		return nil, fmt.Errorf("failed to migrate archive: %w", err)
	}

	logger.Infof("Recording archive opened at %s", path)
	return &Store{db: db, logger: logger}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Save stores rec with its samples and sections in one transaction.
func (s *Store) Save(ctx context.Context, rec drone.Recording) (*Recording, error) {
	row := fromDrone(rec)
	samples := row.Samples
	row.Samples = nil

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Samples").Create(row).Error; err != nil {
			return err
		}
		if len(samples) == 0 {
			return nil
		}
		for i := range samples {
			samples[i].RecordingID = row.ID
		}
		return tx.CreateInBatches(samples, sampleBatchSize).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save recording %s: %w", rec.ID, err)
	}

	row.Samples = samples
	s.logger.Debugf("Archived recording %s with %d samples", rec.ID, row.SampleCount)
	return row, nil
}

// ListOptions filters List.
type ListOptions struct {
	Reason string
	Limit  int
	Offset int
}

// List returns recordings newest first, without their samples.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]Recording, error) {
	q := s.db.WithContext(ctx).Preload("Sections").Order("id desc")
	if opts.Reason != "" {
		q = q.Where(&Recording{Reason: opts.Reason})
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}

	var recs []Recording
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list recordings: %w", err)
	}
	return recs, nil
}

// Get loads one recording with its samples in order.
func (s *Store) Get(ctx context.Context, id string) (*Recording, error) {
	var rec Recording
	err := s.db.WithContext(ctx).
		Preload("Samples", func(db *gorm.DB) *gorm.DB { return db.Order("seq") }).
		Preload("Sections").
		Where(&Recording{UUID: id}).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recording %s: %w", id, err)
	}
	return &rec, nil
}

// Delete removes a recording and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Recording
		err := tx.Where(&Recording{UUID: id}).First(&rec).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := tx.Where("recording_id = ?", rec.ID).Delete(&Sample{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recording_id = ?", rec.ID).Delete(&Section{}).Error; err != nil {
			return err
		}
		return tx.Delete(&rec).Error
	})
}

// Count returns the number of archived recordings.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Recording{}).Count(&n).Error
	return n, err
}
