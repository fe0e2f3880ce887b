// Package soundbank decodes the sound bank metadata document shipped inside
// each extracted archive into typed streamed-file records.
package soundbank

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"soundunpack/internal/services"
)

// Record is one streamed file entry.
type Record struct {
	// Language is the localization tag, e.g. "SFX" or "English(US)".
	Language string
	// ID names the payload file (<ID>.WEM) inside the archive.
	ID string
	// Path is the logical output path using backslash separators.
	Path string
}

type document struct {
	XMLName       xml.Name `xml:"SoundBanksInfo"`
	StreamedFiles struct {
		Files []fileElement `xml:"File"`
	} `xml:"StreamedFiles"`
}

type fileElement struct {
	ID       string `xml:"Id,attr"`
	Language string `xml:"Language,attr"`
	Path     string `xml:"Path"`
}

// Decode reads every StreamedFiles/File record from r in document order.
func Decode(r io.Reader) ([]Record, error) {
	var doc document
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charsetReader
	if err := decoder.Decode(&doc); err != nil {
		return nil, services.Wrap(services.ErrValidation, "soundbank", "decode", "Malformed sound bank metadata", err)
	}

	records := make([]Record, 0, len(doc.StreamedFiles.Files))
	for i, file := range doc.StreamedFiles.Files {
		record := Record{
			Language: strings.TrimSpace(file.Language),
			ID:       strings.TrimSpace(file.ID),
			Path:     strings.TrimSpace(file.Path),
		}
		if record.ID == "" || record.Path == "" {
			return nil, services.Wrap(
				services.ErrValidation,
				"soundbank",
				"decode",
				fmt.Sprintf("Streamed file %d is missing Id or Path", i),
				nil,
			)
		}
		records = append(records, record)
	}
	return records, nil
}

// Load opens and decodes the metadata document at path.
func Load(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "soundbank", "open", "Open sound bank metadata", err)
	}
	defer file.Close()

	records, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
