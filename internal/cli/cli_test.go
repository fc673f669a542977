package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/schemalab/circuitlay/pkg/pipeline"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	os.Unsetenv("XDG_CACHE_HOME")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/custom-cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	expected := filepath.Join("/tmp/custom-cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() with XDG_CACHE_HOME = %q, want %q", dir, expected)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{pipeline.FormatSVG}},
		{"single", "png", []string{"png"}},
		{"multiple", "svg,png,json", []string{"svg", "png", "json"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("parseFormats(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		suffix string
		want   string
	}{
		{"explicit output wins", "custom.json", "blinker.json", ".layout.json", "custom.json"},
		{"derived from input", "", "blinker.json", ".layout.json", "blinker.layout.json"},
		{"nested path", "", "circuits/amp.json", ".graph.svg", "circuits/amp.graph.svg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(tt.output, tt.input, tt.suffix); got != tt.want {
				t.Errorf("outputPath(%q, %q, %q) = %q, want %q", tt.output, tt.input, tt.suffix, got, tt.want)
			}
		})
	}
}

func TestRenderOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		output string
		input  string
		format string
		multi  bool
		want   string
	}{
		{"single format explicit output", "out.svg", "amp.json", "svg", false, "out.svg"},
		{"single format derived", "", "amp.json", "svg", false, "amp.svg"},
		{"multi format uses base", "renders/amp", "amp.json", "png", true, "renders/amp.png"},
		{"json never overwrites input", "", "amp.json", "json", true, "amp.layout.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderOutputPath(tt.output, tt.input, tt.format, tt.multi); got != tt.want {
				t.Errorf("renderOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	want := []string{"parse", "layout", "render", "annotate", "report", "graph", "serve", "dataset", "cache", "completion"}
	for _, name := range want {
		found := false
		for _, cmd := range root.Commands() {
			if cmd.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}
