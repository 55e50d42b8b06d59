// Package pipeline provides the end-to-end splitting pipeline for domsplit.
//
// This package implements the complete load → split → store → render
// pipeline shared by the CLI and the HTTP server, so that both entry points
// apply the same defaults, cache keys and persistence rules.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Decode an asset-graph document from a file or raw bytes
//  2. Split: Run the dominator-based splitter, or reuse a cached plan
//  3. Store: Record the plan in the plan history, when a store is configured
//  4. Render: Produce DOT, SVG or JSON artifacts from the plan
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Input:   "assets.json",
//	    Formats: []string{pipeline.FormatSVG},
//	})
//	svg := result.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/cache"
	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/split"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultThreshold is the merge threshold in bytes.
const DefaultThreshold = split.DefaultMergeThreshold

// Package key strategies.
const (
	// PackageKeyParents names packages by their sorted parent chunks.
	PackageKeyParents = "parents"
	// PackageKeyHash names packages by a short hash of their parent chunks,
	// keeping keys bounded on applications with many entry points.
	PackageKeyHash = "hash"
)

// DefaultPackageKey is the default package key strategy.
const DefaultPackageKey = PackageKeyParents

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatJSON: true,
}

// ValidPackageKeys is the set of supported package key strategies.
var ValidPackageKeys = map[string]bool{
	PackageKeyParents: true,
	PackageKeyHash:    true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options. Exactly one of Input and Document is set.
	Input          string            `json:"input,omitempty"`
	Document       []byte            `json:"-"`
	DocumentFormat assetgraph.Format `json:"document_format,omitempty"`

	// Split options
	Threshold  int64  `json:"threshold,omitempty"`
	NoMerge    bool   `json:"no_merge,omitempty"`
	PackageKey string `json:"package_key,omitempty"`
	Refresh    bool   `json:"refresh,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
	Clusters bool     `json:"clusters,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Plan is the bundle plan. Its ID is set when a store recorded it.
	Plan graph.Plan

	// DocumentHash is the content hash of the input document.
	DocumentHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	AssetCount      int
	DependencyCount int
	LoadTime        time.Duration
	SplitTime       time.Duration
	RenderTime      time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	PlanHit   bool // Whether the plan came from cache
	RenderHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidatePackageKey checks that a package key strategy is valid.
func ValidatePackageKey(key string) error {
	if !ValidPackageKeys[key] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid package_key: %q (must be one of: parents, hash)", key)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForSplit(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input fields.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.Input == "" && len(o.Document) == 0:
		return errors.New(errors.ErrCodeInvalidInput, "input path or document is required")
	case o.Input != "" && len(o.Document) > 0:
		return errors.New(errors.ErrCodeInvalidInput, "input path and document are mutually exclusive")
	case o.Input != "":
		abs, err := filepath.Abs(o.Input)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", o.Input)
		}
		if err := errors.ValidatePath(abs); err != nil {
			return err
		}
	default:
		if o.DocumentFormat == "" {
			o.DocumentFormat = assetgraph.FormatJSON
		}
		if o.DocumentFormat != assetgraph.FormatJSON && o.DocumentFormat != assetgraph.FormatYAML {
			return errors.New(errors.ErrCodeInvalidFormat, "invalid document format: %q", o.DocumentFormat)
		}
	}
	o.setLogger()
	return nil
}

// ValidateForSplit validates and sets defaults for splitting.
func (o *Options) ValidateForSplit() error {
	if o.Threshold < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "threshold must not be negative (use no_merge to disable merging)")
	}
	if o.Threshold == 0 {
		o.Threshold = DefaultThreshold
	}
	if o.PackageKey == "" {
		o.PackageKey = DefaultPackageKey
	}
	o.setLogger()
	return ValidatePackageKey(o.PackageKey)
}

// ValidateForRender validates and sets defaults for rendering. An empty
// format list is valid and renders nothing.
func (o *Options) ValidateForRender() error {
	o.setLogger()
	return ValidateFormats(o.Formats)
}

func (o *Options) setLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// MergeThreshold returns the threshold passed to the splitter: negative when
// merging is disabled.
func (o *Options) MergeThreshold() int64 {
	if o.NoMerge {
		return -1
	}
	return o.Threshold
}

// Keyer returns the package keyer for the configured strategy.
func (o *Options) Keyer() split.PackageKeyer {
	if o.PackageKey == PackageKeyHash {
		return hashKeyer
	}
	return split.DefaultKeyer
}

// PlanKeyOpts returns cache key options for the plan.
func (o *Options) PlanKeyOpts() cache.PlanKeyOpts {
	return cache.PlanKeyOpts{Threshold: o.MergeThreshold(), PackageKey: o.PackageKey}
}

// RenderKeyOpts returns cache key options for one rendered format.
func (o *Options) RenderKeyOpts(format string) cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: format, Detail: o.Detailed, Clusters: o.Clusters}
}

// HasFormat reports whether format was requested.
func (o *Options) HasFormat(format string) bool {
	return slices.Contains(o.Formats, format)
}

// hashKeyer names a package "h<hex>" after the xxhash of its sorted parents.
var hashKeyer = split.PackageKeyFunc(func(parents []string) string {
	key := split.DefaultPackageKey(parents)
	if key == split.RootKey {
		return key
	}
	return "h" + strconv.FormatUint(xxhash.Sum64String(key), 16)
})

// describe summarizes options for log output.
func (o *Options) describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "threshold=%d package_key=%s", o.MergeThreshold(), o.PackageKey)
	if len(o.Formats) > 0 {
		fmt.Fprintf(&b, " formats=%s", strings.Join(o.Formats, ","))
	}
	return b.String()
}
