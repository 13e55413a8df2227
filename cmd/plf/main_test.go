package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"pop_organisms.csv": "ID,score\n1,1\n2,5\n3,3\n4,2\n",
		"load.plf":          "F = 'pop_organisms.csv'\nMASTER = collapse greatest 2 by score from F : random 1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadCommandText(t *testing.T) {
	dir := fixtureDir(t)
	out, err := execute(t, "load", "--dir", dir, "--log-level", "error", filepath.Join(dir, "load.plf"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for _, want := range []string{"Loading 1 Random organisms", "Loading 0 Default organisms", "2 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadCommandJSON(t *testing.T) {
	dir := fixtureDir(t)
	out, err := execute(t, "load", "--dir", dir, "--log-level", "error", "-o", "json",
		"MASTER = greatest 1 by score from 'pop_organisms.csv'")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var res struct {
		Organisms []struct {
			Kind string `json:"kind"`
			ID   int64  `json:"id"`
		} `json:"organisms"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(res.Organisms) != 1 || res.Organisms[0].ID != 2 || res.Organisms[0].Kind != "loaded" {
		t.Errorf("unexpected organisms %+v", res.Organisms)
	}
}

func TestLoadCommandYAML(t *testing.T) {
	dir := fixtureDir(t)
	out, err := execute(t, "load", "--dir", dir, "--log-level", "error", "-o", "yaml", "MASTER = default 2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var res struct {
		Summary struct {
			Default int `yaml:"default"`
		} `yaml:"summary"`
	}
	if err := yaml.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid YAML output: %v\n%s", err, out)
	}
	if res.Summary.Default != 2 {
		t.Errorf("default = %d, want 2", res.Summary.Default)
	}
}

func TestLoadCommandQuiet(t *testing.T) {
	out, err := execute(t, "load", "-q", "--log-level", "error", "MASTER = random 2")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out != "" {
		t.Errorf("expected no output, got %q", out)
	}
}

func TestLoadCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"syntax", []string{"load", "MASTER = {{}}"}},
		{"missing script", []string{"load", "missing.plf"}},
		{"bad output", []string{"load", "-o", "xml", "MASTER = random 1"}},
		{"bad log level", []string{"load", "--log-level", "loud", "MASTER = random 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadCommandSeedFromEnv(t *testing.T) {
	dir := fixtureDir(t)
	script := "MASTER = any 3 from 'pop_organisms.csv'"

	t.Setenv("PLF_SEED", "11")
	first, err := execute(t, "load", "--dir", dir, "--log-level", "error", "-o", "json", script)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	second, err := execute(t, "load", "--dir", dir, "--log-level", "error", "-o", "json", script)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if first != second {
		t.Errorf("same seed gave different output:\n%s\n%s", first, second)
	}
}

func TestCheckCommand(t *testing.T) {
	out, err := execute(t, "check", "--log-level", "error", "MASTER = { collapse 'a.csv':'b.csv' }")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := "__tk0 = 'a.csv'\n__tk1 = 'b.csv'\n__tk2 = __tk0 : __tk1\n__tk3 = collapse __tk2\nMASTER = __tk3\n"
	if out != want {
		t.Errorf("got:\n%s\nwant:\n%s", out, want)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "plf version dev") {
		t.Errorf("unexpected version output %q", out)
	}
}
