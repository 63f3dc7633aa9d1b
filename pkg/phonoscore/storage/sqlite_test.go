package storage

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_phonoscore.sqlite3")
	client, err := NewDBClientWithPath(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})
	return client, dbPath
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil || client.db == nil {
		t.Fatal("Expected non-nil database handles")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientFromEnv(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")
	t.Setenv("PHONOSCORE_DB_PATH", customPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("NewDBClient failed: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestRunLifecycle(t *testing.T) {
	client, _ := setupTestDB(t)

	id, err := client.CreateRun(Run{Kind: "score", ChildrenType: "TD", BandID: "Band_3", Root: "/data"})
	if err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}
	if len(id) != 36 {
		t.Errorf("run id %q is not a UUID", id)
	}

	rows := []ScoreRow{
		{Filename: "a.TextGrid", Stage: "stage3", Label: `["p","a"]`, ErrorRateBasic: sql.NullFloat64{Float64: 0.5, Valid: true}},
		{Filename: "b.TextGrid", Stage: "stage4", Label: `[]`},
	}
	if err := client.StoreScores(id, rows); err != nil {
		t.Fatalf("StoreScores failed: %v", err)
	}
	if err := client.StoreFailures(id, []FailureRow{{Path: "c.TextGrid", Stage: "crop", Message: "mismatch"}}); err != nil {
		t.Fatalf("StoreFailures failed: %v", err)
	}
	if err := client.FinishRun(id, 2, 1); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	run, err := client.GetRun(id)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Clips != 2 || run.Failures != 1 || run.BandID != "Band_3" {
		t.Errorf("run = %+v", run)
	}

	got, err := client.ScoresByRun(id)
	if err != nil {
		t.Fatalf("ScoresByRun failed: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "a.TextGrid" {
		t.Fatalf("scores = %+v", got)
	}
	if !got[0].ErrorRateBasic.Valid || got[0].ErrorRateBasic.Float64 != 0.5 {
		t.Errorf("rate = %+v", got[0].ErrorRateBasic)
	}
	if got[1].ErrorRateBasic.Valid {
		t.Errorf("undefined rate should read back as NULL")
	}

	fails, err := client.FailuresByRun(id)
	if err != nil || len(fails) != 1 || fails[0].Message != "mismatch" {
		t.Errorf("failures = %+v, %v", fails, err)
	}

	runs, err := client.ListRuns()
	if err != nil || len(runs) != 1 {
		t.Errorf("ListRuns = %+v, %v", runs, err)
	}

	if err := client.DeleteRun(id); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if got, _ := client.ScoresByRun(id); len(got) != 0 {
		t.Errorf("scores survived DeleteRun: %+v", got)
	}
	if _, err := client.GetRun(id); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	client, _ := setupTestDB(t)
	if err := client.FinishRun("missing", 0, 0); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *DBClient
	if _, err := c.CreateRun(Run{}); err == nil {
		t.Error("expected error from nil client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close on nil client = %v", err)
	}
}
