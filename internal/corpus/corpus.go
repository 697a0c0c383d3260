// Package corpus loads Meetup event XML files into raw documents.
package corpus

import (
	"encoding/xml"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/logger"
)

// Document is one parsed event.
type Document struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Group       string `json:"group"`
	Path        string `json:"path,omitempty"`
}

// Text is the indexed content: name, description and group name.
func (d Document) Text() string {
	return strings.TrimSpace(d.Name + " " + d.Description + " " + d.Group)
}

// LoadReport counts what a load saw. Failures never stop a load.
type LoadReport struct {
	Files     int      `json:"files"`
	Loaded    int      `json:"loaded"`
	Failed    int      `json:"failed"`
	FailedAt  []string `json:"failed_at,omitempty"`
	Truncated bool     `json:"truncated"`
}

type event struct {
	XMLName     xml.Name `xml:"event"`
	ID          string   `xml:"id"`
	Name        string   `xml:"name"`
	Description string   `xml:"description"`
	Group       struct {
		Name string `xml:"name"`
	} `xml:"group"`
}

// FileInfo identifies one event file. Path, size and modification time
// together stand in for the file content when deciding whether a cached
// parse is still valid.
type FileInfo struct {
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// ListFiles walks dir for *.xml files in lexical path order and keeps the
// first maxFiles of them; maxFiles <= 0 means all. The bool result reports
// whether the list was cut short.
func ListFiles(dir string, maxFiles int) ([]FileInfo, bool, error) {
	var files []FileInfo
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xml") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, FileInfo{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("walking data directory %s: %w", dir, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	if maxFiles > 0 && len(files) > maxFiles {
		return files[:maxFiles], true, nil
	}
	return files, false, nil
}

// LoadFiles parses files in order. A file that does not parse or has no id
// or text is counted as failed and skipped.
func LoadFiles(files []FileInfo) ([]Document, LoadReport) {
	log := logger.WithComponent("corpus-loader")
	report := LoadReport{Files: len(files)}
	docs := make([]Document, 0, len(files))
	for _, f := range files {
		doc, err := ParseFile(f.Path)
		if err != nil {
			report.Failed++
			report.FailedAt = append(report.FailedAt, f.Path)
			log.Debug("skipping event file", "path", f.Path, "error", err)
			continue
		}
		docs = append(docs, doc)
	}
	report.Loaded = len(docs)
	return docs, report
}

// LoadDir lists and parses the event files under dir.
func LoadDir(dir string, maxFiles int) ([]Document, LoadReport, error) {
	files, truncated, err := ListFiles(dir, maxFiles)
	if err != nil {
		return nil, LoadReport{}, err
	}
	docs, report := LoadFiles(files)
	report.Truncated = truncated
	logger.WithComponent("corpus-loader").Info("corpus loaded",
		"dir", dir,
		"files", report.Files,
		"loaded", report.Loaded,
		"failed", report.Failed,
	)
	return docs, report, nil
}

// ParseFile reads one event file.
func ParseFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	doc.Path = path
	return doc, nil
}

// Parse decodes one <event> element.
func Parse(data []byte) (Document, error) {
	var ev event
	if err := xml.Unmarshal(data, &ev); err != nil {
		return Document{}, err
	}
	doc := Document{
		ID:          strings.TrimSpace(ev.ID),
		Name:        strings.TrimSpace(ev.Name),
		Description: strings.TrimSpace(ev.Description),
		Group:       strings.TrimSpace(ev.Group.Name),
	}
	if doc.ID == "" {
		return Document{}, fmt.Errorf("event has no id")
	}
	if doc.Text() == "" {
		return Document{}, fmt.Errorf("event %s has no text", doc.ID)
	}
	return doc, nil
}
