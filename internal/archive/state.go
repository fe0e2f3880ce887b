package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// MarkerFile is written inside an extraction directory once extraction succeeded.
const MarkerFile = ".soundunpack-complete"

// State is the on-disk extraction state of one archive.
type State int

const (
	StateAbsent State = iota
	StateIncomplete
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateIncomplete:
		return "incomplete"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Inspect reports the extraction state of dir. Anything other than a
// directory holding the marker file is not trusted.
func Inspect(dir string) (State, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StateAbsent, nil
		}
		return StateAbsent, fmt.Errorf("stat extraction dir: %w", err)
	}
	if !info.IsDir() {
		return StateIncomplete, nil
	}
	marker, err := os.Stat(filepath.Join(dir, MarkerFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StateIncomplete, nil
		}
		return StateAbsent, fmt.Errorf("stat marker: %w", err)
	}
	if !marker.Mode().IsRegular() {
		return StateIncomplete, nil
	}
	return StateComplete, nil
}

func writeMarker(dir string, entries int, finished time.Time) error {
	content := fmt.Sprintf("completed_at=%s\nentries=%d\n", finished.UTC().Format(time.RFC3339), entries)
	path := filepath.Join(dir, MarkerFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit marker: %w", err)
	}
	return nil
}
