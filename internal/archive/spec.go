package archive

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"soundunpack/internal/config"
	"soundunpack/internal/services"
)

// Spec identifies one source archive and the directory inside it that holds
// the audio payload.
type Spec struct {
	Name     string
	BasePath string
}

// Folder is the extraction directory name: the archive name without its extension.
func (s Spec) Folder() string {
	return strings.TrimSuffix(s.Name, filepath.Ext(s.Name))
}

// PayloadDir returns the extracted payload directory under tmpDir.
func (s Spec) PayloadDir(tmpDir string) string {
	return filepath.Join(tmpDir, s.Folder(), filepath.FromSlash(s.BasePath))
}

// Mode is a named, ordered set of archives for one release of the data format.
// Order matters: earlier archives win unsuffixed destination names.
type Mode struct {
	Name        string
	Description string
	Archives    []Spec
	Custom      bool
}

const (
	ModeCurrent = "current"
	ModeLegacy  = "legacy"
)

// BuiltinModes lists the compatibility modes known without configuration.
func BuiltinModes() []Mode {
	return []Mode{
		{
			Name:        ModeCurrent,
			Description: "Split audio archives used by current releases",
			Archives: []Spec{
				{Name: "NMSARC.5B11B94C.pak", BasePath: "AUDIO/WINDOWS"},
				{Name: "NMSARC.FE28D146.pak", BasePath: "AUDIO"},
			},
		},
		{
			Name:        ModeLegacy,
			Description: "Single audio archive used by earlier releases",
			Archives: []Spec{
				{Name: "NMSARC.515F1D3.pak", BasePath: "AUDIO"},
			},
		},
	}
}

// Modes merges the built-in modes with configured ones, sorted by name.
// A configured mode replaces a built-in mode of the same name.
func Modes(custom map[string][]config.ModeArchive) []Mode {
	byName := make(map[string]Mode)
	for _, mode := range BuiltinModes() {
		byName[mode.Name] = mode
	}
	for name, entries := range custom {
		key := strings.ToLower(strings.TrimSpace(name))
		mode := Mode{Name: key, Description: "Configured mode", Custom: true}
		for _, entry := range entries {
			mode.Archives = append(mode.Archives, Spec{Name: entry.Name, BasePath: entry.BasePath})
		}
		byName[key] = mode
	}

	modes := make([]Mode, 0, len(byName))
	for _, mode := range byName {
		modes = append(modes, mode)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Name < modes[j].Name })
	return modes
}

// ResolveMode returns the mode named name.
func ResolveMode(name string, custom map[string][]config.ModeArchive) (Mode, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	names := make([]string, 0)
	for _, mode := range Modes(custom) {
		if mode.Name == key {
			return mode, nil
		}
		names = append(names, mode.Name)
	}
	return Mode{}, services.Wrap(
		services.ErrConfiguration,
		"archive",
		"resolve mode",
		fmt.Sprintf("unknown compatibility mode %q (available: %s)", name, strings.Join(names, ", ")),
		nil,
	)
}
