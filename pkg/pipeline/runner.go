package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/schemalab/circuitlay/pkg/cache"
	"github.com/schemalab/circuitlay/pkg/circuit"
	"github.com/schemalab/circuitlay/pkg/errors"
	"github.com/schemalab/circuitlay/pkg/layout"
	"github.com/schemalab/circuitlay/pkg/observability"
	"github.com/schemalab/circuitlay/pkg/render"
)

// =============================================================================
// Runner - Pipeline Execution Engine
// =============================================================================

// Runner executes pipeline operations with caching support.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a pipeline runner.
// If c is nil, caching is disabled (uses NullCache).
// If keyer is nil, uses the default keyer.
// If logger is nil, uses a silent logger.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// =============================================================================
// Complete Pipeline Execution
// =============================================================================

// Execute runs the complete pipeline: parse → layout → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid pipeline options")
	}
	logger := r.applyLogger(opts.Logger)

	result := &Result{Artifacts: make(map[string][]byte)}

	// Stage 1: Parse
	start := time.Now()
	c, hash, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Circuit = c
	result.CircuitHash = hash
	result.CacheInfo.ParseHit = parseHit
	result.Stats.ParseTime = time.Since(start)
	result.Stats.ComponentCount = len(c.Components)
	result.Stats.NetCount = len(c.Nets)
	logger.Info("parsed netlist",
		"circuit", c.Name,
		"components", len(c.Components),
		"nets", len(c.Nets),
		"cached", parseHit,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	start = time.Now()
	layoutRes, layoutHit, err := r.LayoutWithCacheInfo(ctx, c, hash, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = layoutRes
	result.CacheInfo.LayoutHit = layoutHit
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.Attempts = layoutRes.Attempts
	logger.Info("computed layout",
		"status", layoutRes.Status,
		"attempts", layoutRes.Attempts,
		"unresolved", len(layoutRes.Failed),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)
	if outcomeErr := layoutRes.Err(); outcomeErr != nil {
		logger.Warn("layout did not converge", "error", outcomeErr)
	}
	if connErr := layoutRes.Layout.UnconnectedErr(); connErr != nil {
		logger.Warn("fallback placement used", "error", connErr)
	}

	// Stage 3: Render
	start = time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, c.Name, hash, layoutRes, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.CacheInfo.RenderHit = renderHit
	result.Stats.RenderTime = time.Since(start)
	logger.Info("rendered artifacts",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// =============================================================================
// Stage 1: Parse
// =============================================================================

// ParseWithCacheInfo parses the netlist, returning the circuit, its
// content hash, and whether the parse was served from cache.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*circuit.Circuit, string, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, "", false, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid parse options")
	}

	source := opts.NetlistPath
	if source == "" {
		source = "inline"
	}
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source)
	start := time.Now()

	data := opts.Netlist
	if opts.NetlistPath != "" {
		var err error
		data, err = os.ReadFile(opts.NetlistPath)
		if err != nil {
			if os.IsNotExist(err) {
				err = errors.Wrap(errors.ErrCodeFileNotFound, err, "netlist file not found: %s", opts.NetlistPath)
			} else {
				err = errors.Wrap(errors.ErrCodeInternal, err, "failed to read netlist file")
			}
			hooks.OnParseComplete(ctx, source, 0, time.Since(start), err)
			return nil, "", false, err
		}
	}

	netlistHash := cache.Hash(data)
	key := r.Keyer.CircuitKey(cache.CircuitKeyOpts{NetlistHash: netlistHash})

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var c circuit.Circuit
			if jsonErr := json.Unmarshal(cached, &c); jsonErr == nil {
				observability.Cache().OnCacheHit(ctx, "circuit")
				hooks.OnParseComplete(ctx, source, len(c.Components), time.Since(start), nil)
				return &c, netlistHash, true, nil
			}
			// Corrupt entry; fall through and reparse.
			_ = r.Cache.Delete(ctx, key)
		} else {
			observability.Cache().OnCacheMiss(ctx, "circuit")
		}
	}

	c, err := circuit.ParseNetlist(bytes.NewReader(data))
	if err != nil {
		hooks.OnParseComplete(ctx, source, 0, time.Since(start), err)
		return nil, "", false, err
	}

	if encoded, jsonErr := json.Marshal(c); jsonErr == nil {
		if setErr := r.Cache.Set(ctx, key, encoded, cache.CircuitTTL); setErr == nil {
			observability.Cache().OnCacheSet(ctx, "circuit", len(encoded))
		} else {
			r.Logger.Debug("failed to cache circuit", "error", setErr)
		}
	}

	hooks.OnParseComplete(ctx, source, len(c.Components), time.Since(start), nil)
	return c, netlistHash, false, nil
}

// Parse parses the netlist without cache metadata.
func (r *Runner) Parse(ctx context.Context, opts Options) (*circuit.Circuit, error) {
	c, _, _, err := r.ParseWithCacheInfo(ctx, opts)
	return c, err
}

// =============================================================================
// Stage 2: Layout
// =============================================================================

// LayoutWithCacheInfo places components and converges to a layout,
// returning whether the result was served from cache.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, c *circuit.Circuit, circuitHash string, opts Options) (*layout.Result, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, c.Name, len(c.Components))
	start := time.Now()

	layoutOpts := opts.LayoutOptions()
	if err := layoutOpts.ValidateAndSetDefaults(); err != nil {
		hooks.OnLayoutComplete(ctx, c.Name, 0, time.Since(start), err)
		return nil, false, err
	}

	key := r.Keyer.LayoutKey(circuitHash, cache.LayoutKeyOpts{
		CanvasWidth:     layoutOpts.CanvasWidth,
		CanvasHeight:    layoutOpts.CanvasHeight,
		Clearance:       layoutOpts.Clearance,
		Margin:          layoutOpts.Margin,
		ChipMargin:      layoutOpts.ChipMargin,
		MaxAttempts:     layoutOpts.MaxAttempts,
		SpiralStep:      layoutOpts.SpiralStep,
		SpiralSamples:   layoutOpts.SpiralSamples,
		MaxRadiusFactor: layoutOpts.MaxRadiusFactor,
	})

	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var res layout.Result
			if jsonErr := json.Unmarshal(cached, &res); jsonErr == nil && res.Layout != nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				hooks.OnLayoutComplete(ctx, c.Name, res.Attempts, time.Since(start), nil)
				return &res, true, nil
			}
			_ = r.Cache.Delete(ctx, key)
		} else {
			observability.Cache().OnCacheMiss(ctx, "layout")
		}
	}

	l, err := layout.Place(c, layoutOpts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, c.Name, 0, time.Since(start), err)
		return nil, false, err
	}
	res, err := layout.Converge(l, layoutOpts)
	if err != nil {
		hooks.OnLayoutComplete(ctx, c.Name, 0, time.Since(start), err)
		return nil, false, err
	}

	if encoded, jsonErr := json.Marshal(res); jsonErr == nil {
		if setErr := r.Cache.Set(ctx, key, encoded, cache.LayoutTTL); setErr == nil {
			observability.Cache().OnCacheSet(ctx, "layout", len(encoded))
		} else {
			r.Logger.Debug("failed to cache layout", "error", setErr)
		}
	}

	hooks.OnLayoutComplete(ctx, c.Name, res.Attempts, time.Since(start), nil)
	return res, false, nil
}

// GenerateLayout places and converges without cache metadata.
func (r *Runner) GenerateLayout(ctx context.Context, c *circuit.Circuit, circuitHash string, opts Options) (*layout.Result, error) {
	res, _, err := r.LayoutWithCacheInfo(ctx, c, circuitHash, opts)
	return res, err
}

// =============================================================================
// Stage 3: Render
// =============================================================================

// RenderWithCacheInfo renders the requested formats, returning whether
// every artifact was served from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, circuitName, circuitHash string, res *layout.Result, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid render options")
	}

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()

	// Artifacts are keyed by the layout, so the layout hash covers both
	// the circuit and the layout options that produced it.
	layoutHash := circuitHash
	if encoded, err := json.Marshal(res.Layout); err == nil {
		layoutHash = cache.Hash(encoded)
	}

	renderOpts := opts.RenderOptions()
	artifacts := make(map[string][]byte, len(opts.Formats))
	allCached := true

	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(layoutHash, cache.ArtifactKeyOpts{
			Format: format,
			Scale:  renderOpts.Scale,
			Labels: renderOpts.Labels,
			BBoxes: renderOpts.BBoxes,
		})

		if !opts.Refresh {
			if cached, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				observability.Cache().OnCacheHit(ctx, "artifact")
				artifacts[format] = cached
				continue
			}
			observability.Cache().OnCacheMiss(ctx, "artifact")
		}
		allCached = false

		data, err := r.renderFormat(circuitName, res, format, renderOpts, opts.PNGMaxWidth)
		if err != nil {
			hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
			return nil, false, err
		}
		artifacts[format] = data

		if setErr := r.Cache.Set(ctx, key, data, cache.ArtifactTTL); setErr == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(data))
		} else {
			r.Logger.Debug("failed to cache artifact", "format", format, "error", setErr)
		}
	}

	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), nil)
	return artifacts, allCached && len(opts.Formats) > 0, nil
}

func (r *Runner) renderFormat(circuitName string, res *layout.Result, format string, renderOpts render.Options, pngMaxWidth int) ([]byte, error) {
	switch format {
	case FormatSVG:
		return render.SVG(res.Layout, renderOpts)
	case FormatPNG:
		return render.PNG(res.Layout, renderOpts, pngMaxWidth)
	case FormatJSON:
		return layout.NewDocument(circuitName, res).Marshal()
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

// Render renders the requested formats without cache metadata.
func (r *Runner) Render(ctx context.Context, circuitName, circuitHash string, res *layout.Result, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, circuitName, circuitHash, res, opts)
	return artifacts, err
}

// =============================================================================
// Lifecycle
// =============================================================================

// Close releases runner resources.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger prefers the per-call logger over the runner's.
func (r *Runner) applyLogger(logger *log.Logger) *log.Logger {
	if logger != nil {
		return logger
	}
	return r.Logger
}
