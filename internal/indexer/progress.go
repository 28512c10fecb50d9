package indexer

import "time"

// ProgressReporter provides callbacks for reporting indexing progress.
// Implementations can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnDiscoveryStart is called when file discovery begins.
	OnDiscoveryStart()

	// OnDiscoveryComplete is called when file discovery finishes.
	OnDiscoveryComplete(totalFiles int)

	// OnParsingStart is called before parsing begins.
	OnParsingStart(totalFiles int)

	// OnFileParsed is called after each file is parsed, successfully or not.
	OnFileParsed(fileName string)

	// OnResolutionComplete is called after reference resolution.
	OnResolutionComplete(symbolCount, referenceCount int)

	// OnComplete is called when indexing completes successfully.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryStart()                                    {}
func (n *NoOpProgressReporter) OnDiscoveryComplete(totalFiles int)                   {}
func (n *NoOpProgressReporter) OnParsingStart(totalFiles int)                        {}
func (n *NoOpProgressReporter) OnFileParsed(fileName string)                         {}
func (n *NoOpProgressReporter) OnResolutionComplete(symbolCount, referenceCount int) {}
func (n *NoOpProgressReporter) OnComplete(stats *Stats)                              {}

// Stats summarizes one indexing pass.
type Stats struct {
	FilesDiscovered int
	FilesParsed     int
	ParseFailures   int
	SymbolCount     int
	NodeCount       int
	EdgeCount       int
	Duration        time.Duration
}
