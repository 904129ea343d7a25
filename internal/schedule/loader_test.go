package schedule

import (
	"os"
	"path/filepath"
	"testing"

	"statuscal/internal/model"
)

const jsoncDocument = `{
  // Core working-hours status.
  "version": 1,
  "timezone": "America/Los_Angeles",
  "options": { "clearWhenNoMatch": true },
  "rules": [
    {
      "id": "weekday-focus",
      "type": "weekly",
      "days": ["mon", "tue", "wed", "thu", "fri"],
      "time": "09:00",
      "status": { "text": "Deep work", "icon": ":brain:", "expireHour": 11 },
    },
  ],
}`

const yamlDocument = `
version: 1
timezone: Asia/Seoul
rules:
  - id: launch-day
    type: dates
    dates: ["2024-06-01"]
    status:
      text: Launch day
      icon: ":rocket:"
`

func TestParseJSONC(t *testing.T) {
	doc, err := Parse([]byte(jsoncDocument))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Version != 1 || doc.Timezone != "America/Los_Angeles" {
		t.Errorf("header fields wrong: %+v", doc)
	}
	if !doc.ClearWhenNoMatch() {
		t.Error("options.clearWhenNoMatch lost in parsing")
	}
	if len(doc.Rules) != 1 || doc.Rules[0].ID != "weekday-focus" {
		t.Fatalf("rules = %+v", doc.Rules)
	}
	if doc.Rules[0].Status.ExpireHour == nil || *doc.Rules[0].Status.ExpireHour != 11 {
		t.Error("expireHour lost in parsing")
	}
	if result := Validate(doc); !result.Valid {
		t.Errorf("parsed document should validate: %v", result.Errors)
	}
}

func TestParseYAML(t *testing.T) {
	doc, err := ParseYAML([]byte(yamlDocument))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	if doc.Timezone != "Asia/Seoul" || len(doc.Rules) != 1 {
		t.Fatalf("doc = %+v", doc)
	}
	if doc.Rules[0].Type != model.RuleDates {
		t.Errorf("type = %q", doc.Rules[0].Type)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("{not json")); err == nil {
		t.Error("expected JSON parse error")
	}
	if _, err := ParseYAML([]byte("version: [unclosed")); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestLoadDispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "schedule.jsonc")
	if err := os.WriteFile(jsonPath, []byte(jsoncDocument), 0o600); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "schedule.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlDocument), 0o600); err != nil {
		t.Fatal(err)
	}

	jdoc, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load jsonc: %v", err)
	}
	if jdoc.Timezone != "America/Los_Angeles" {
		t.Errorf("jsonc timezone = %q", jdoc.Timezone)
	}

	ydoc, err := Load(yamlPath)
	if err != nil {
		t.Fatalf("Load yaml: %v", err)
	}
	if ydoc.Timezone != "Asia/Seoul" {
		t.Errorf("yaml timezone = %q", ydoc.Timezone)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := Load(""); err == nil {
		t.Error("expected error for empty path")
	}
}

// Rule order is part of the document's meaning; a save/load round trip
// must preserve it exactly.
func TestSaveLoadPreservesRuleOrder(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "c", Type: model.RuleWeekly, Days: []string{"wed"}, Status: model.Status{Text: "c", Icon: ":c:"}},
			{ID: "a", Type: model.RuleWeekly, Days: []string{"mon"}, Status: model.Status{Text: "a", Icon: ":a:"}},
			{ID: "b", Type: model.RuleWeekly, Days: []string{"tue"}, Status: model.Status{Text: "b", Icon: ":b:"}},
		},
	}

	path := filepath.Join(t.TempDir(), "schedule.json")
	if err := Save(path, doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i, want := range []string{"c", "a", "b"} {
		if loaded.Rules[i].ID != want {
			t.Fatalf("rule %d id = %q, want %q", i, loaded.Rules[i].ID, want)
		}
	}
}

func TestEnsureRuleIDs(t *testing.T) {
	doc := &model.ScheduleDocument{
		Version:  1,
		Timezone: "America/Los_Angeles",
		Rules: []model.Rule{
			{ID: "keep-me", Type: model.RuleWeekly, Days: []string{"mon"}, Status: model.Status{Text: "a", Icon: ":a:"}},
			{Type: model.RuleWeekly, Days: []string{"tue"}, Status: model.Status{Text: "b", Icon: ":b:"}},
		},
	}

	if !EnsureRuleIDs(doc) {
		t.Fatal("expected a change for the id-less rule")
	}
	if doc.Rules[0].ID != "keep-me" {
		t.Error("existing id must not be overwritten")
	}
	if doc.Rules[1].ID == "" {
		t.Error("missing id must be filled in")
	}
	if EnsureRuleIDs(doc) {
		t.Error("second pass should change nothing")
	}
}
