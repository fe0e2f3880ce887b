package preflight

import (
	"soundunpack/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg. required is the estimated
// number of bytes the run will write; zero skips the free-space check.
func RunAll(cfg *config.Config, required uint64) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Source directory", cfg.Paths.SourceDir, AccessRead),
		CheckWritableLocation("Destination directory", cfg.Paths.DestinationDir),
		CheckWritableLocation("Temporary directory", cfg.Paths.TmpDir),
	}
	if required > 0 {
		results = append(results, CheckFreeSpace("Destination free space", cfg.Paths.DestinationDir, required))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
