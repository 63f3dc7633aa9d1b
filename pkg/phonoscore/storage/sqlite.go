package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "phonoscore.sqlite3"
const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Run is one invocation of the scorer or the preparation batch.
type Run struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Kind         string `gorm:"index:idx_run_kind" json:"kind"`
	ChildrenType string `gorm:"index:idx_run_group,priority:1" json:"children_type"`
	BandID       string `gorm:"index:idx_run_group,priority:2" json:"band_id"`
	Root         string `json:"root"`
	Clips        int    `json:"clips"`
	Failures     int    `json:"failures"`
	CreatedAt    time.Time
}

// ScoreRow is one scored clip. Sequences are stored as JSON arrays; an
// undefined rate is NULL.
type ScoreRow struct {
	ID           uint   `gorm:"primaryKey;autoIncrement"`
	RunID        string `gorm:"type:varchar(36);index:idx_score_run" json:"run_id"`
	Filename     string `gorm:"index:idx_score_file" json:"filename"`
	Stage        string `gorm:"index:idx_score_stage" json:"stage"`
	Prediction   string `json:"prediction"`
	PredictionCV string `json:"prediction_cv"`
	Label        string `json:"label"`
	LabelCV      string `json:"label_cv"`
	GT           string `json:"gt"`
	GTCV         string `json:"gt_cv"`

	ErrorRateBasic     sql.NullFloat64 `json:"error_rate_basic"`
	ErrorRateCV        sql.NullFloat64 `json:"error_rate_cv"`
	ErrorRateGT        sql.NullFloat64 `json:"error_rate_gt"`
	ErrorRateGTCV      sql.NullFloat64 `json:"error_rate_gt_cv"`
	ErrorRateLabelGT   sql.NullFloat64 `json:"error_rate_label_gt"`
	ErrorRateLabelGTCV sql.NullFloat64 `json:"error_rate_label_gt_cv"`
}

// FailureRow records a document or clip that could not be processed.
type FailureRow struct {
	ID      uint   `gorm:"primaryKey;autoIncrement"`
	RunID   string `gorm:"type:varchar(36);index:idx_failure_run" json:"run_id"`
	Path    string `json:"path"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("PHONOSCORE_DB_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}, &ScoreRow{}, &FailureRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateRun inserts run with a fresh ID and returns it.
func (c *DBClient) CreateRun(run Run) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	run.ID = uuid.NewString()
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

// FinishRun stores the final counts of a run.
func (c *DBClient) FinishRun(runID string, clips, failures int) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Model(&Run{}).Where("id = ?", runID).Updates(map[string]any{"clips": clips, "failures": failures})
	if res.Error != nil {
		return fmt.Errorf("updating run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("run %s: %w", runID, gorm.ErrRecordNotFound)
	}
	return nil
}

func (c *DBClient) StoreScores(runID string, rows []ScoreRow) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].RunID = runID
	}
	if err := c.DB.CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("batch insert scores: %w", err)
	}
	return nil
}

func (c *DBClient) StoreFailures(runID string, rows []FailureRow) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].RunID = runID
	}
	if err := c.DB.CreateInBatches(rows, 500).Error; err != nil {
		return fmt.Errorf("batch insert failures: %w", err)
	}
	return nil
}

func (c *DBClient) GetRun(runID string) (*Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run Run
	if err := c.DB.Where("id = ?", runID).First(&run).Error; err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

func (c *DBClient) ListRuns() ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var runs []Run
	if err := c.DB.Order("created_at").Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// ScoresByRun returns the rows of runID in insertion order.
func (c *DBClient) ScoresByRun(runID string) ([]ScoreRow, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []ScoreRow
	if err := c.DB.Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying scores: %w", err)
	}
	return rows, nil
}

func (c *DBClient) FailuresByRun(runID string) ([]FailureRow, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []FailureRow
	if err := c.DB.Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying failures: %w", err)
	}
	return rows, nil
}

func (c *DBClient) DeleteRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&ScoreRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id = ?", runID).Delete(&FailureRow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", runID).Delete(&Run{}).Error; err != nil {
			return err
		}
		return nil
	})
}
