package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/config"
	"github.com/PlatypusInAHat/SimpleSmartContractAuditor/internal/model"
)

// Run is one recorded scan.
type Run struct {
	ID        uint      `gorm:"primaryKey"`
	Root      string    `gorm:"size:1024"`
	StartedAt time.Time `gorm:"index"`
	ElapsedMs int64
	Files     int
	Findings  []FindingRecord `gorm:"constraint:OnDelete:CASCADE"`
}

type FindingRecord struct {
	ID          uint   `gorm:"primaryKey"`
	RunID       uint   `gorm:"index"`
	File        string `gorm:"size:1024"`
	Kind        string `gorm:"size:64"`
	RuleID      string `gorm:"size:64;index"`
	Severity    string `gorm:"size:16"`
	Function    int
	Message     string `gorm:"type:text"`
	Fingerprint string `gorm:"size:64;index"`
}

type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
func Open(cfg config.Database) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = filepath.Join("data", "solaudit.db")
		}
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a dsn")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", cfg.Driver, err)
	}
	if err := db.AutoMigrate(&Run{}, &FindingRecord{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveRun records res and all of its findings in one transaction.
func (s *Store) SaveRun(res *model.RunResult, startedAt time.Time) (uint, error) {
	run := Run{
		Root:      res.Root,
		StartedAt: startedAt,
		ElapsedMs: res.Elapsed.Milliseconds(),
		Files:     len(res.Files),
	}
	for _, f := range res.Findings() {
		run.Findings = append(run.Findings, FindingRecord{
			File:        f.File,
			Kind:        string(f.Kind),
			RuleID:      f.RuleID,
			Severity:    string(f.Severity),
			Function:    f.Function,
			Message:     f.Message,
			Fingerprint: f.Fingerprint,
		})
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&run).Error
	})
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	return run.ID, nil
}

// RecentRuns returns up to limit runs, newest first, with their findings.
func (s *Store) RecentRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	var runs []Run
	err := s.db.Preload("Findings").Order("started_at DESC").Order("id DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	return runs, nil
}
