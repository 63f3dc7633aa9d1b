package main

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/PhonoScore/pkg/phonoscore/storage"
)

// RunsCmd inspects runs recorded in the database
type RunsCmd struct {
	List   RunsListCmd   `cmd:"" help:"List recorded runs"`
	Show   RunsShowCmd   `cmd:"" help:"Show the scores and failures of a run"`
	Delete RunsDeleteCmd `cmd:"" help:"Delete a run and its rows"`
}

// openDB opens --db, or PHONOSCORE_DB_PATH / the default file when unset.
func openDB() (*storage.DBClient, error) {
	if CLI.DB != "" {
		return storage.NewDBClientWithPath(CLI.DB)
	}
	return storage.NewDBClient()
}

type RunsListCmd struct{}

func (c *RunsListCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.ListRuns()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("\n📚 Found %d run(s):\n\n", len(runs))
	for i, r := range runs {
		fmt.Printf("%d. %s %s (%s/%s)\n", i+1, r.Kind, r.ID, r.ChildrenType, r.BandID)
		fmt.Printf("   Root:     %s\n", r.Root)
		fmt.Printf("   Clips:    %s | Failures: %s | %s\n",
			humanize.Comma(int64(r.Clips)), humanize.Comma(int64(r.Failures)), humanize.Time(r.CreatedAt))
	}
	return nil
}

type RunsShowCmd struct {
	ID  string `arg:"" help:"Run ID"`
	Max int    `name:"max" default:"20" help:"Rows to print per table"`
}

func (c *RunsShowCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(c.ID)
	if err != nil {
		return fmt.Errorf("run not found (ID: %s): %w", c.ID, err)
	}
	scores, err := db.ScoresByRun(c.ID)
	if err != nil {
		return err
	}
	failures, err := db.FailuresByRun(c.ID)
	if err != nil {
		return err
	}

	fmt.Printf("\n%s run %s, %s\n", run.Kind, run.ID, humanize.Time(run.CreatedAt))
	fmt.Printf("   Scores:   %s\n", humanize.Comma(int64(len(scores))))
	for i, s := range scores {
		if i == c.Max {
			fmt.Printf("... and %d more scores\n", len(scores)-c.Max)
			break
		}
		fmt.Printf("   %-8s %-40s basic %s  cv %s\n", s.Stage, s.Filename, nullable(s.ErrorRateBasic.Valid, s.ErrorRateBasic.Float64), nullable(s.ErrorRateCV.Valid, s.ErrorRateCV.Float64))
	}
	fmt.Printf("   Failures: %s\n", humanize.Comma(int64(len(failures))))
	for i, f := range failures {
		if i == c.Max {
			fmt.Printf("... and %d more failures\n", len(failures)-c.Max)
			break
		}
		fmt.Printf("   [%s] %s: %s\n", f.Stage, f.Path, f.Message)
	}
	return nil
}

type RunsDeleteCmd struct {
	ID string `arg:"" help:"Run ID"`
}

func (c *RunsDeleteCmd) Run() error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	run, err := db.GetRun(c.ID)
	if err != nil {
		return fmt.Errorf("run not found (ID: %s): %w", c.ID, err)
	}
	if err := db.DeleteRun(c.ID); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}

	fmt.Printf("\n✅ Successfully deleted run:\n")
	fmt.Printf("   ID:    %s\n", run.ID)
	fmt.Printf("   Kind:  %s\n", run.Kind)
	fmt.Printf("   Clips: %d\n", run.Clips)
	return nil
}

func nullable(valid bool, v float64) string {
	if !valid {
		return "undefined"
	}
	return humanize.FtoaWithDigits(v, 4)
}
