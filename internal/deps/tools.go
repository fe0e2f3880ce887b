package deps

import (
	"strings"

	"soundunpack/internal/config"
)

// ToolRequirements lists the executables and data files the pipeline needs
// on platform goos. Windows executables on other platforms are checked as
// files and add the compatibility launcher as a requirement.
func ToolRequirements(cfg *config.Config, goos string) []Requirement {
	if cfg == nil {
		return nil
	}
	tools := []Requirement{
		{Name: "psarc", Command: cfg.PsarcBinary(), Description: "Lists and extracts game archives"},
		{Name: "ww2ogg", Command: cfg.Ww2oggBinary(), Description: "Converts WEM audio to Ogg Vorbis"},
		{Name: "revorb", Command: cfg.RevorbBinary(), Description: "Rebuilds Ogg granule positions"},
	}

	needsLauncher := false
	for i := range tools {
		if goos != "windows" && strings.HasSuffix(strings.ToLower(tools[i].Command), ".exe") {
			tools[i].FileOnly = true
			needsLauncher = true
		}
	}

	requirements := append(tools, Requirement{
		Name:        "codebooks",
		Command:     cfg.CodebooksPath(),
		Description: "Packed codebooks used by ww2ogg",
		FileOnly:    true,
	})
	if needsLauncher {
		requirements = append(requirements, Requirement{
			Name:        "launcher",
			Command:     cfg.Tools.Launcher,
			Description: "Runs Windows tools on this platform",
		})
	}
	return requirements
}
