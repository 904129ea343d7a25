// Package schedule holds the rule engine: document loading, validation,
// per-rule matching, first-match-wins evaluation, and expiration math.
// All evaluation is pure; the only I/O in this package is the document
// loader itself.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"statuscal/internal/model"
)

// Load reads a schedule document from disk. Files ending in .yaml/.yml
// are parsed as YAML; everything else is treated as JSONC (JSON with //
// comments and trailing commas), so hand-authored documents can carry
// annotations. Load does not validate; callers gate on Validate before
// evaluating.
func Load(path string) (*model.ScheduleDocument, error) {
	if path == "" {
		return nil, errors.New("schedule path is empty")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc *model.ScheduleDocument
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = ParseYAML(data)
	default:
		doc, err = Parse(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse unmarshals a JSONC schedule document. Comments and trailing
// commas are stripped before the bytes hit encoding/json.
func Parse(data []byte) (*model.ScheduleDocument, error) {
	stripped := jsonc.ToJSON(data)

	var doc model.ScheduleDocument
	if err := json.Unmarshal(stripped, &doc); err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}
	return &doc, nil
}

// ParseYAML unmarshals a YAML schedule document.
func ParseYAML(data []byte) (*model.ScheduleDocument, error) {
	var doc model.ScheduleDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}
	return &doc, nil
}

// Save writes the document to the given path as indented JSON,
// atomically (temp file + rename) with 0600 permissions. Rule order is
// preserved exactly; first-match-wins makes it part of the document's
// meaning.
func Save(path string, doc *model.ScheduleDocument) error {
	if path == "" {
		return errors.New("schedule path is empty")
	}
	if doc == nil {
		return errors.New("schedule is nil")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".statuscal-schedule-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// EnsureRuleIDs assigns a short generated id to every rule that has
// none, and reports whether anything changed. Editor flows call this
// before saving so later edits and logs can name rules stably; the
// engine itself never requires ids.
func EnsureRuleIDs(doc *model.ScheduleDocument) bool {
	changed := false
	for i := range doc.Rules {
		if doc.Rules[i].ID == "" {
			doc.Rules[i].ID = uuid.New().String()[:8]
			changed = true
		}
	}
	return changed
}
