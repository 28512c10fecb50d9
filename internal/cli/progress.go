package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/codeatlas/codeatlas/internal/indexer"
)

// CLIProgressReporter renders indexing progress with a progress bar.
type CLIProgressReporter struct {
	quiet    bool
	parseBar *progressbar.ProgressBar
}

// NewCLIProgressReporter creates a progress reporter. quiet suppresses
// all non-error output.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func (c *CLIProgressReporter) OnDiscoveryStart() {
	if c.quiet {
		return
	}
	log.Println("Discovering files...")
}

func (c *CLIProgressReporter) OnDiscoveryComplete(totalFiles int) {
	if c.quiet {
		return
	}
	log.Printf("Found %d source files", totalFiles)
}

func (c *CLIProgressReporter) OnParsingStart(totalFiles int) {
	if c.quiet {
		return
	}
	c.parseBar = progressbar.NewOptions(totalFiles,
		progressbar.OptionSetDescription("Parsing files"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnFileParsed(fileName string) {
	if c.quiet || c.parseBar == nil {
		return
	}
	c.parseBar.Add(1)
}

func (c *CLIProgressReporter) OnResolutionComplete(symbolCount, referenceCount int) {
	if c.quiet {
		return
	}
	log.Printf("Resolved %d references across %d symbols", referenceCount, symbolCount)
}

func (c *CLIProgressReporter) OnComplete(stats *indexer.Stats) {
	if c.quiet {
		return
	}
	fmt.Printf("✓ Index complete: %d nodes, %d edges from %d files in %.1fs\n",
		stats.NodeCount, stats.EdgeCount, stats.FilesParsed, stats.Duration.Seconds())
	if stats.ParseFailures > 0 {
		fmt.Printf("  %d file(s) failed to parse\n", stats.ParseFailures)
	}
}
