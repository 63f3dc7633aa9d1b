package main

import (
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/himanishpuri/PhonoScore/internal/config"
	"github.com/himanishpuri/PhonoScore/pkg/boundary"
	"github.com/himanishpuri/PhonoScore/pkg/logger"
	"github.com/himanishpuri/PhonoScore/pkg/phonoscore"
)

// CLI defines the command-line interface using Kong
var CLI struct {
	Config   string `name:"config" short:"c" help:"YAML config file" type:"path" env:"PHONOSCORE_CONFIG"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" env:"LOG_LEVEL"`
	DB       string `name:"db" help:"SQLite database recording runs (disabled when empty)" type:"path"`
	NoBanner bool   `name:"no-banner" help:"Do not print the banner"`

	Annotate AnnotateCmd `cmd:"" help:"Create a TextGrid from a timestamp spreadsheet"`
	Prepare  PrepareCmd  `cmd:"" help:"Crop one annotated recording into per-word clips"`
	Batch    BatchCmd    `cmd:"" help:"Prepare every recording listed in a manifest"`
	Score    ScoreCmd    `cmd:"" help:"Score predicted transcriptions against labels and references"`
	Runs     RunsCmd     `cmd:"" help:"Inspect runs recorded in the database"`
}

// PipelineFlags override the config file for one invocation.
type PipelineFlags struct {
	ChildrenType string  `name:"children-type" help:"Cohort: TD or SSD"`
	Band         string  `name:"band" help:"Age band: Band_1 .. Band_4"`
	VOT          float64 `name:"vot" default:"-1" help:"Voice onset time padding in seconds (negative keeps the configured value)"`
	OutputRoot   string  `name:"output-root" short:"o" help:"Root of the output tree" type:"path"`
	Workers      int     `name:"workers" short:"j" help:"Recordings processed in parallel (0 keeps the configured value)"`
	Mode         string  `name:"mode" help:"Audio boundary mode: words or syllables"`
}

func (f PipelineFlags) options() []phonoscore.Option {
	var opts []phonoscore.Option
	if f.ChildrenType != "" {
		opts = append(opts, phonoscore.WithChildrenType(f.ChildrenType))
	}
	if f.Band != "" {
		opts = append(opts, phonoscore.WithBandID(f.Band))
	}
	if f.VOT >= 0 {
		opts = append(opts, phonoscore.WithVOT(f.VOT))
	}
	if f.OutputRoot != "" {
		opts = append(opts, phonoscore.WithOutputRoot(f.OutputRoot))
	}
	if f.Workers > 0 {
		opts = append(opts, phonoscore.WithWorkers(f.Workers))
	}
	if f.Mode != "" {
		opts = append(opts, phonoscore.WithBoundaryMode(boundary.Mode(f.Mode)))
	}
	return opts
}

// loadConfig reads the config file named by --config, if any.
func loadConfig() (*config.File, error) {
	return config.Load(CLI.Config)
}

// createPipeline builds a pipeline from the config file, then the flags.
func createPipeline(file *config.File, flags PipelineFlags) (*phonoscore.Pipeline, error) {
	opts := file.Options()
	opts = append(opts, flags.options()...)
	if CLI.DB != "" {
		opts = append(opts, phonoscore.WithDBPath(CLI.DB))
	}
	return phonoscore.New(opts...)
}

func setupLogging() error {
	if CLI.LogLevel == "" {
		return nil
	}
	level, ok := logger.ParseLevel(CLI.LogLevel)
	if !ok {
		return fmt.Errorf("unknown log level %q", CLI.LogLevel)
	}
	logger.SetLevel(level)
	return nil
}

func printBanner() {
	banner := `
 ____  _                       ____
|  _ \| |__   ___  _ __   ___ / ___|  ___ ___  _ __ ___
| |_) | '_ \ / _ \| '_ \ / _ \\___ \ / __/ _ \| '__/ _ \
|  __/| | | | (_) | | | | (_) |___) | (_| (_) | | |  __/
|_|   |_| |_|\___/|_| |_|\___/|____/ \___\___/|_|  \___|

        Child Speech Transcription Scoring Tool
`
	fmt.Println(banner)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("phonoscore"),
		kong.Description("Crop, segment and score phonetic transcriptions of child speech"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := setupLogging(); err != nil {
		ctx.FatalIfErrorf(err)
	}
	if !CLI.NoBanner {
		printBanner()
	}

	log := logger.GetLogger()
	log.Infof("Executing command: %s", ctx.Command())

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
