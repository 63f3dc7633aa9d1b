package phonoscore

import (
	"database/sql"
	"encoding/json"

	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/storage"
	"github.com/himanishpuri/PhonoScore/pkg/scoring"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) CreateRun(info RunInfo) (string, error) {
	return s.db.CreateRun(storage.Run{
		Kind:         info.Kind,
		ChildrenType: info.ChildrenType,
		BandID:       info.BandID,
		Root:         info.Root,
	})
}

func (s *storageAdapter) StoreScores(runID string, records []scoring.ScoreRecord) error {
	rows := make([]storage.ScoreRow, len(records))
	for i, r := range records {
		rows[i] = storage.ScoreRow{
			Filename:           r.Filename,
			Stage:              r.Stage,
			Prediction:         jsonList(r.Prediction),
			PredictionCV:       jsonList(r.PredictionCV),
			Label:              jsonList(r.Label),
			LabelCV:            jsonList(r.LabelCV),
			GT:                 jsonList(r.GT),
			GTCV:               jsonList(r.GTCV),
			ErrorRateBasic:     nullRate(r.Basic),
			ErrorRateCV:        nullRate(r.CV),
			ErrorRateGT:        nullRate(r.GTRate),
			ErrorRateGTCV:      nullRate(r.GTCVRate),
			ErrorRateLabelGT:   nullRate(r.LabelGT),
			ErrorRateLabelGTCV: nullRate(r.LabelGTCV),
		}
	}
	return s.db.StoreScores(runID, rows)
}

func (s *storageAdapter) StoreFailures(runID string, failures []Failure) error {
	rows := make([]storage.FailureRow, len(failures))
	for i, f := range failures {
		msg := ""
		if f.Err != nil {
			msg = f.Err.Error()
		}
		rows[i] = storage.FailureRow{Path: f.Path, Stage: f.Stage, Message: msg}
	}
	return s.db.StoreFailures(runID, rows)
}

func (s *storageAdapter) FinishRun(runID string, clips, failures int) error {
	return s.db.FinishRun(runID, clips, failures)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func jsonList(seq []string) string {
	if seq == nil {
		seq = []string{}
	}
	b, _ := json.Marshal(seq)
	return string(b)
}

func nullRate(r scoring.Rate) sql.NullFloat64 {
	return sql.NullFloat64{Float64: r.Value, Valid: r.Valid}
}
