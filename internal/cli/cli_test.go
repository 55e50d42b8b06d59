package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
)

const testDoc = `{
  "assets": [
    {"id": "home", "stats": {"size": 30000}},
    {"id": "admin", "stats": {"size": 30000}},
    {"id": "ui", "stats": {"size": 2000}}
  ],
  "dependencies": [
    {"id": "e1", "target": "home", "entry": true},
    {"id": "e2", "target": "admin", "entry": true},
    {"id": "d1", "source": "home", "target": "ui"},
    {"id": "d2", "source": "admin", "target": "ui"}
  ]
}`

// newTestCLI returns a CLI whose config disables caching and whose cache
// directory lives in a temp dir.
func newTestCLI(t *testing.T, dir string) *CLI {
	t.Helper()
	cfgPath := filepath.Join(dir, "domsplit.toml")
	cfg := "[cache]\nbackend = \"file\"\ndir = \"" + filepath.ToSlash(filepath.Join(dir, "cache")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	c := New(&bytes.Buffer{}, LogInfo)
	c.ConfigPath = cfgPath
	return c
}

func run(t *testing.T, c *CLI, args ...string) error {
	t.Helper()
	root := c.RootCommand()
	root.SetArgs(append(args, "--config", c.ConfigPath))
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "assets.json")
	if err := os.WriteFile(input, []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newTestCLI(t, dir)

	if err := run(t, c, "split", input, "-f", "json,dot", "-q", "--no-merge"); err != nil {
		t.Fatalf("split error = %v", err)
	}

	p, err := graph.ReadPlanFile(filepath.Join(dir, "assets.plan.json"))
	if err != nil {
		t.Fatalf("ReadPlanFile() error = %v", err)
	}
	if _, ok := p.Bundle("package:admin,home"); !ok {
		t.Errorf("bundles = %v, want shared package with --no-merge", p.Bundles)
	}
	dot, err := os.ReadFile(filepath.Join(dir, "assets.dot"))
	if err != nil || !strings.HasPrefix(string(dot), "digraph") {
		t.Errorf("assets.dot = %.20q, %v", dot, err)
	}

	// The plan renders back to DOT.
	out := filepath.Join(dir, "again.dot")
	if err := run(t, c, "render", filepath.Join(dir, "assets.plan.json"), "-f", "dot", "-o", out, "--clusters"); err != nil {
		t.Fatalf("render error = %v", err)
	}
	if data, err := os.ReadFile(out); err != nil || !strings.Contains(string(data), "cluster_") {
		t.Errorf("again.dot = %.40q, %v", data, err)
	}
}

func TestSplitCommandThreshold(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "assets.json")
	if err := os.WriteFile(input, []byte(testDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	c := newTestCLI(t, dir)
	out := filepath.Join(dir, "plan.json")

	// ui is 2000 bytes: a 1KiB threshold keeps it shared.
	if err := run(t, c, "split", input, "-q", "--threshold", "1KiB", "-o", out); err != nil {
		t.Fatalf("split error = %v", err)
	}
	p, err := graph.ReadPlanFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.BundlesFor("ui"); len(got) != 1 {
		t.Errorf("BundlesFor(ui) = %v, want one shared bundle", got)
	}
	if p.Threshold != 1024 {
		t.Errorf("Threshold = %d, want 1024", p.Threshold)
	}
}

func TestSplitCommandErrors(t *testing.T) {
	dir := t.TempDir()
	c := newTestCLI(t, dir)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing file", []string{"split", filepath.Join(dir, "none.json")}, errors.ErrCodeFileNotFound},
		{"bad format", []string{"split", filepath.Join(dir, "none.json"), "-f", "png"}, errors.ErrCodeInvalidInput},
		{"bad threshold", []string{"split", filepath.Join(dir, "none.json"), "--threshold", "huge"}, errors.ErrCodeInvalidInput},
		{"render json", []string{"render", filepath.Join(dir, "x.plan.json"), "-f", "json"}, errors.ErrCodeInvalidInput},
		{"plans without mongo", []string{"plans", "list"}, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(t, c, tt.args...); !errors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestCachePathCommand(t *testing.T) {
	dir := t.TempDir()
	c := newTestCLI(t, dir)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"cache", "path", "--config", c.ConfigPath})
	if err := root.Execute(); err != nil {
		t.Fatalf("cache path error = %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != filepath.Join(dir, "cache") {
		t.Errorf("cache path = %q, want %q", got, filepath.Join(dir, "cache"))
	}
}

func TestLoadConfigCached(t *testing.T) {
	c := newTestCLI(t, t.TempDir())
	first, err := c.loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	second, _ := c.loadConfig()
	if first != second {
		t.Error("loadConfig() read the file twice")
	}
}
