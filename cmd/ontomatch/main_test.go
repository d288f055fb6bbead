package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	ocli "github.com/hyperjump/ontomatch/internal/cli"
)

const testConfig = `
storage:
  database_path: ./data/targets.db
  index_dir: ./data/indices
mapping:
  max_suggestions: 5
  workers: 2
entities:
  diagnosis:
    rules_index: diagnosis_rules
    ontology_index: ncit
    fields:
      - name: SampleDiagnosis
        weight: 0.5
      - name: OriginTissue
        weight: 0.3
      - name: TumourType
        weight: 0.2
    ontology_templates:
      - "${SampleDiagnosis}"
      - "${OriginTissue} ${SampleDiagnosis}"
`

const testRules = `[
  {"id": "r1", "entity_type": "diagnosis", "target_type": "rule", "label": "Embryonal Rhabdomyosarcoma",
   "url": "http://purl.obolibrary.org/obo/NCIT_C9150",
   "rule": {"fields": {"SampleDiagnosis": "fusion negative rhabdomyosarcoma", "OriginTissue": "orbit", "TumourType": "primary"}}}
]`

const testTerms = `[
  {"id": "NCIT_C4878", "entity_type": "diagnosis", "target_type": "ontology", "label": "Lung Carcinoma",
   "url": "http://purl.obolibrary.org/obo/NCIT_C4878", "ontology": {"synonyms": ["carcinoma of lung"]}}
]`

const testRequest = `[
  {"id": "e1", "type": "diagnosis", "data": {"SampleDiagnosis": "fusion negative rhabdomyosarcoma", "OriginTissue": "orbit", "TumourType": "primary"}},
  {"id": "e2", "type": "diagnosis", "data": {"SampleDiagnosis": "lung carcinoma", "OriginTissue": "lung", "TumourType": "metastatic"}},
  {"id": "e3", "type": "treatment", "data": {"Drug": "vincristine"}}
]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := newApp(&out).Run(append([]string{"ontomatch"}, args...)); err != nil {
		t.Fatalf("ontomatch %s: %v", strings.Join(args, " "), err)
	}
	return out.String()
}

func TestIndexAndMap(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", testConfig)
	rules := writeFile(t, dir, "rules.json", testRules)
	terms := writeFile(t, dir, "terms.json", testTerms)
	request := writeFile(t, dir, "request.json", testRequest)

	if out := run(t, "--config", cfgPath, "index", "--index", "diagnosis_rules", rules); !strings.Contains(out, "Indexed 1 target(s) into diagnosis_rules") {
		t.Errorf("index output = %q", out)
	}
	run(t, "--config", cfgPath, "index", "--index", "ncit", terms)

	if out := run(t, "--config", cfgPath, "stats", "ncit"); !strings.Contains(out, "ncit: 1 target(s)") {
		t.Errorf("stats output = %q", out)
	}

	out := run(t, "--config", cfgPath, "map", "--format", "json", request)
	var resp ocli.MapResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("map output is not JSON: %v\n%s", err, out)
	}
	if len(resp.Results) != 3 || resp.Failed != 1 {
		t.Fatalf("results = %+v", resp)
	}
	if s := resp.Results[0].Suggestions; len(s) != 1 || s[0].UniqueID != "rule|diagnosis|r1" || s[0].Score != 100 {
		t.Errorf("e1 suggestions = %+v", s)
	}
	if s := resp.Results[1].Suggestions; len(s) == 0 || s[0].UniqueID != "ontology|diagnosis|NCIT_C4878" {
		t.Errorf("e2 suggestions = %+v", s)
	}
	if !strings.Contains(resp.Results[2].Error, "missing configuration") {
		t.Errorf("e3 error = %q", resp.Results[2].Error)
	}

	text := run(t, "--config", cfgPath, "map", request)
	if !strings.Contains(text, "Mapped 3 entities") || !strings.Contains(text, "Embryonal Rhabdomyosarcoma") {
		t.Errorf("text output = %s", text)
	}
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", testConfig)
	terms := writeFile(t, dir, "terms.json", testTerms)
	run(t, "--config", cfgPath, "index", "--index", "ncit", terms)

	out := run(t, "--config", cfgPath, "remove", "--index", "ncit", "ontology|diagnosis|NCIT_C4878", "ontology|diagnosis|NCIT_X")
	if !strings.Contains(out, "Removed 1 target(s) from ncit") {
		t.Errorf("remove output = %q", out)
	}
	if out := run(t, "--config", cfgPath, "stats", "ncit"); !strings.Contains(out, "ncit: 0 target(s)") {
		t.Errorf("stats after remove = %q", out)
	}
}

func TestMapFailsOnUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yaml", testConfig)
	request := writeFile(t, dir, "request.json", testRequest)

	var out bytes.Buffer
	err := newApp(&out).Run([]string{"ontomatch", "--config", cfgPath, "map", "--format", "xml", request})
	if err == nil {
		t.Fatal("expected an error for an unknown output format")
	}
}

func TestVersion(t *testing.T) {
	if out := run(t, "version"); !strings.Contains(out, "ontomatch dev") {
		t.Errorf("version output = %q", out)
	}
}

func TestLoadConfigFallback(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", testConfig)
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Mapping.MaxSuggestions != 5 {
		t.Errorf("MaxSuggestions = %d, want 5", cfg.Mapping.MaxSuggestions)
	}
	if !strings.HasPrefix(cfg.Storage.DatabasePath, dir) && !strings.Contains(cfg.Storage.DatabasePath, "data/targets.db") {
		t.Errorf("DatabasePath = %q", cfg.Storage.DatabasePath)
	}
}
