package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/pipeline"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "assets.json", "assets"},
		{"", "dir/assets.yaml", "dir/assets"},
		{"", "assets.plan.json", "assets"},
		{"out.svg", "assets.json", "out"},
		{"out", "assets.json", "out"},
		{"", "assets", "assets"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		formats []string
		want    map[string]string
	}{
		{"default plan", "", []string{"json"}, map[string]string{"json": "assets.plan.json"}},
		{"single explicit", "x.json", []string{"json"}, map[string]string{"json": "x.json"}},
		{"stdout", "-", []string{"dot"}, map[string]string{"dot": "-"}},
		{"several", "out/plan", []string{"json", "svg"}, map[string]string{"json": "out/plan.plan.json", "svg": "out/plan.svg"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := outputPaths(tt.output, "assets.json", tt.formats)
			if len(got) != len(tt.want) {
				t.Fatalf("outputPaths() = %v, want %v", got, tt.want)
			}
			for f, p := range tt.want {
				if got[f] != p {
					t.Errorf("outputPaths()[%s] = %q, want %q", f, got[f], p)
				}
			}
		})
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := t.TempDir()
	paths := map[string]string{
		pipeline.FormatDOT: filepath.Join(dir, "a.dot"),
		pipeline.FormatSVG: filepath.Join(dir, "a.svg"),
	}
	// Only dot was rendered; svg is skipped.
	if err := writeArtifacts(map[string][]byte{pipeline.FormatDOT: []byte("digraph {}")}, paths); err != nil {
		t.Fatalf("writeArtifacts() error = %v", err)
	}
	data, err := os.ReadFile(paths[pipeline.FormatDOT])
	if err != nil || string(data) != "digraph {}" {
		t.Errorf("dot file = %q, %v", data, err)
	}
	if _, err := os.Stat(paths[pipeline.FormatSVG]); !os.IsNotExist(err) {
		t.Errorf("svg file exists, want skipped")
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"svg", []string{"svg"}},
		{"json, dot,,svg", []string{"json", "dot", "svg"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"4096", 4096, false},
		{"10KiB", 10240, false},
		{"1 MB", 1000000, false},
		{"lots", 0, true},
	}
	for _, tt := range tests {
		got, err := parseSize(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSize(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestSortedBundles(t *testing.T) {
	p := graph.Plan{Bundles: []graph.Bundle{
		{Key: "b", Size: 10},
		{Key: "a", Size: 10},
		{Key: "c", Size: 99},
	}}
	var keys []string
	for _, b := range sortedBundles(p) {
		keys = append(keys, b.Key)
	}
	if got := strings.Join(keys, ","); got != "c,a,b" {
		t.Errorf("sortedBundles() = %s, want c,a,b", got)
	}
	if p.Bundles[0].Key != "b" {
		t.Error("sortedBundles() modified the plan")
	}
}

func TestBundleTable(t *testing.T) {
	p := graph.Plan{Bundles: []graph.Bundle{{Key: "home", Kind: "asset", Size: 2048, Assets: []string{"home", "ui"}}}}
	out := bundleTable(p)
	for _, want := range []string{"Bundle", "home", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("bundleTable() missing %q:\n%s", want, out)
		}
	}
}
