package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/notifyguard/internal/model"
)

func writeTestFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

const personSource = `using System.ComponentModel;
using System.Runtime.CompilerServices;

public sealed class Person : INotifyPropertyChanged
{
    private string name;

    public event PropertyChangedEventHandler PropertyChanged;

    public string Name
    {
        get => this.name;
        set
        {
            if (value == this.name) return;
            this.name = value;
            this.OnPropertyChanged();
        }
    }

    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}
`

const vmSource = `using System.ComponentModel;
using System.Runtime.CompilerServices;

public sealed class Vm : INotifyPropertyChanged
{
    private string name;

    public event PropertyChangedEventHandler PropertyChanged;

    public string Title { get; set; }

    public string Name
    {
        get => name;
        set
        {
            name = value;
            OnPropertyChanged();
        }
    }

    private void OnPropertyChanged([CallerMemberName] string propertyName = null) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}
`

func createSampleRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTestFile(t, dir, "Models/Person.cs", personSource)
	writeTestFile(t, dir, "ViewModels/Vm.cs", vmSource)
	return dir
}

func TestRunBasic(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if !strings.HasPrefix(out, "repo:") {
		t.Errorf("output should start with repo:, got:\n%s", out)
	}
	if !strings.Contains(out, "files: 2") {
		t.Errorf("expected 2 files, got:\n%s", out)
	}
	if !strings.Contains(out, "findings[2]") {
		t.Errorf("expected 2 findings, got:\n%s", out)
	}
	if !strings.Contains(out, "INPC002,warning,ViewModels/Vm.cs,10,") {
		t.Errorf("missing INPC002 for Title:\n%s", out)
	}
	if !strings.Contains(out, "INPC005") {
		t.Errorf("missing INPC005 for Name:\n%s", out)
	}
	if strings.Contains(out, "Person.cs") {
		t.Errorf("Person is conforming:\n%s", out)
	}
	if !strings.Contains(out, "summary[2]{rule,count}:") {
		t.Errorf("missing summary:\n%s", out)
	}
}

func TestRunYAML(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"-f", "yaml", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	var rp model.Report
	if err := yaml.Unmarshal(stdout.Bytes(), &rp); err != nil {
		t.Fatalf("decoding yaml: %v\n%s", err, stdout.String())
	}
	if rp.Files != 2 || len(rp.Findings) != 2 {
		t.Fatalf("unexpected report: %+v", rp)
	}
	if rp.Findings[0].File != "ViewModels/Vm.cs" {
		t.Errorf("file = %q", rp.Findings[0].File)
	}
}

func TestRunUnknownFormat(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"-f", "json", t.TempDir()}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Fatalf("expected unknown format error, got %v", err)
	}
}

func TestRunMaxFindings(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"-n", "1", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "findings[1]") {
		t.Errorf("expected 1 finding, got:\n%s", out)
	}
	if !strings.Contains(out, "omitted: 1") {
		t.Errorf("expected omitted count, got:\n%s", out)
	}
}

func TestRunMinSeverity(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--min-severity", "error", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "findings[0]") {
		t.Errorf("expected no findings, got:\n%s", stdout.String())
	}

	err := run([]string{"--min-severity", "loud", dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown severity") {
		t.Errorf("expected severity error, got %v", err)
	}
}

func TestRunConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	writeTestFile(t, dir, ".notifyguard.yaml", `disabled: [inpc005]
severity:
  INPC002: error
`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v\nstderr: %s", err, stderr.String())
	}

	out := stdout.String()
	if strings.Contains(out, "INPC005") {
		t.Errorf("INPC005 is disabled:\n%s", out)
	}
	if !strings.Contains(out, "INPC002,error,") {
		t.Errorf("INPC002 severity should be overridden:\n%s", out)
	}
}

func TestRunBadConfig(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cfg := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(cfg, []byte("disabled: [INPC999]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{"-c", cfg, dir}, &stdout, &stderr)
	if err == nil || !strings.Contains(err.Error(), "unknown rule") {
		t.Fatalf("expected unknown rule error, got %v", err)
	}
}

func TestRunExitCode(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--exit-code", dir}, &stdout, &stderr)
	if !errors.Is(err, ErrFindings) {
		t.Fatalf("expected ErrFindings, got %v", err)
	}

	clean := t.TempDir()
	writeTestFile(t, clean, "Person.cs", personSource)
	stdout.Reset()
	if err := run([]string{"--exit-code", clean}, &stdout, &stderr); err != nil {
		t.Fatalf("clean repo: %v", err)
	}
}

func TestRunFix(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Person.cs", personSource)
	writeTestFile(t, dir, "Node.cs", `using System.ComponentModel;

public sealed class Node : INotifyPropertyChanged
{
    private Node parent;

    public event PropertyChangedEventHandler PropertyChanged;

    public Node Parent
    {
        get => this.parent;
        set
        {
            if (value.Equals(this.parent)) return;
            this.parent = value;
            OnPropertyChanged("Parent");
        }
    }

    private void OnPropertyChanged(string propertyName) =>
        PropertyChanged?.Invoke(this, new PropertyChangedEventArgs(propertyName));
}
`)

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--fix", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "Node.cs"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"value == this.parent", "nameof(Parent)"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("fixed source missing %q:\n%s", want, data)
		}
	}
	data, err = os.ReadFile(filepath.Join(dir, "Person.cs"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != personSource {
		t.Error("Person.cs has no findings and must not change")
	}
}

func TestRunGeneratedSkipped(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Vm.g.cs", vmSource)

	var stdout, stderr bytes.Buffer
	if err := run([]string{dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "findings[0]") {
		t.Errorf("generated file should be skipped:\n%s", stdout.String())
	}

	stdout.Reset()
	if err := run([]string{"--include-generated", dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "findings[2]") {
		t.Errorf("expected findings with --include-generated:\n%s", stdout.String())
	}
}

func TestRunVersion(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	err := run([]string{"-V"}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout.String(), "notifyguard") {
		t.Errorf("version output: %q", stdout.String())
	}
}

func TestRunNoFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "readme.txt", "nothing here")

	var stdout, stderr bytes.Buffer
	err := run([]string{dir}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for no C# files")
	}
	if !strings.Contains(err.Error(), "no C# files") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCache(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	cachePath := filepath.Join(t.TempDir(), "test.cache")

	var stdout1, stderr1 bytes.Buffer
	err := run([]string{"--cache", cachePath, dir}, &stdout1, &stderr1)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Cache file should exist
	if _, err := os.Stat(cachePath); err != nil {
		t.Fatalf("cache not created: %v", err)
	}

	var stdout2, stderr2 bytes.Buffer
	err = run([]string{"--cache", cachePath, dir}, &stdout2, &stderr2)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if stdout1.String() != stdout2.String() {
		t.Errorf("cache mismatch:\nfirst:\n%s\nsecond:\n%s", stdout1.String(), stdout2.String())
	}
}

func TestRunNotADirectory(t *testing.T) {
	t.Parallel()
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := run([]string{f}, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for non-directory")
	}
}

func TestRunMaxFileSize(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeTestFile(t, dir, "Small.cs", "class Small { }")
	writeTestFile(t, dir, "Big.cs", vmSource)

	var stdout, stderr bytes.Buffer
	err := run([]string{"--max-file-size", "100", dir}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	out := stdout.String()
	if !strings.Contains(out, "files: 1") {
		t.Errorf("expected only Small.cs:\n%s", out)
	}
	if strings.Contains(out, "Big.cs") {
		t.Error("Big.cs should be filtered out")
	}
	if !strings.Contains(stderr.String(), "skipped file") {
		t.Errorf("expected warning about skipped file, got %q", stderr.String())
	}
}

func TestRunMetricsFile(t *testing.T) {
	t.Parallel()
	dir := createSampleRepo(t)
	metrics := filepath.Join(t.TempDir(), "notifyguard.prom")

	var stdout, stderr bytes.Buffer
	if err := run([]string{"--metrics-file", metrics, dir}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	data, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("metrics not written: %v", err)
	}
	if !strings.Contains(string(data), "notifyguard_findings_total") {
		t.Errorf("missing findings counter:\n%s", data)
	}
}

func TestRunRules(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if err := run([]string{"rules"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	out := stdout.String()
	if !strings.HasPrefix(out, "rules[") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if !strings.Contains(out, "INPC004,info,yes,") {
		t.Errorf("missing INPC004 row:\n%s", out)
	}
	if !strings.Contains(out, "INPC005,warning,no,") {
		t.Errorf("missing INPC005 row:\n%s", out)
	}

	stdout.Reset()
	if err := run([]string{"rules", "-f", "yaml"}, &stdout, &stderr); err != nil {
		t.Fatalf("run: %v", err)
	}
	var listing map[string][]model.RuleInfo
	if err := yaml.Unmarshal(stdout.Bytes(), &listing); err != nil {
		t.Fatalf("decoding yaml: %v", err)
	}
	if len(listing["rules"]) == 0 {
		t.Error("empty rule listing")
	}
}

func TestReorderArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"flags first", []string{"-n", "5", "."}, []string{"-n", "5", "."}},
		{"positional first", []string{".", "-n", "5"}, []string{"-n", "5", "."}},
		{"mixed", []string{"-f", "yaml", ".", "-n", "5"}, []string{"-f", "yaml", "-n", "5", "."}},
		{"config", []string{".", "--config", "ng.yaml"}, []string{"--config", "ng.yaml", "."}},
		{"no flags", []string{"."}, []string{"."}},
		{"no args", nil, nil},
		{"bool flag", []string{"-V"}, []string{"-V"}},
		{"bool then positional", []string{"--fix", "src"}, []string{"--fix", "src"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := reorderArgs(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("len: got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("index %d: got %q, want %q (full: %v)", i, got[i], tt.want[i], got)
					break
				}
			}
		})
	}
}
