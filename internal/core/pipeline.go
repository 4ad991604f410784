package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/marketshare/internal/logging"
)

// PreviewLimit is the number of long records shown before a full run.
const PreviewLimit = 30

// Options configures a Pipeline.
type Options struct {
	Layout         HeaderLayout
	Replace        bool   // evict history rows of the current period before merging
	Country        string // country column for current rows
	DefaultIsland  string // island for regions without a known island
	IncludeMapping bool   // append Segment and Area to the final table
}

// Pipeline wires parse, enrich, join, merge, compute and projection for one
// snapshot. It holds configuration only and is safe for concurrent use.
type Pipeline struct {
	opts Options
}

// NewPipeline validates opts and returns a Pipeline.
func NewPipeline(opts Options) (*Pipeline, error) {
	if err := opts.Layout.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts}, nil
}

// Options returns the pipeline's configuration.
func (p *Pipeline) Options() Options { return p.opts }

// Input is everything one run needs. Mapping may be nil.
type Input struct {
	Grid    RawGrid
	History Table
	Mapping *Mapping
	Period  Period
}

// Output is the result of a run.
type Output struct {
	RunID   string
	Records []LongRecord // parsed current-period records
	Current Table        // current-period rows after enrichment and mapping
	Merge   MergeResult
	Result  *Result
	Final   FinalTable
	Summary Summary

	// Warning is non-nil when some shares were indeterminate. The final
	// table is still complete; affected cells are NaN.
	Warning error
}

// Preview is the head of the unpivoted record set.
type Preview struct {
	Records []LongRecord `json:"records"`
	Total   int          `json:"total"`
}

// NewPreview keeps the first PreviewLimit records.
func NewPreview(records []LongRecord) Preview {
	head := records
	if len(head) > PreviewLimit {
		head = head[:PreviewLimit]
	}
	return Preview{Records: head, Total: len(records)}
}

// Unpivot parses grid with the pipeline's layout.
func (p *Pipeline) Unpivot(ctx context.Context, grid RawGrid) ([]LongRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records, err := Parse(grid, p.opts.Layout)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Debug("unpivot complete", "records", len(records))
	return records, nil
}

// Run processes one snapshot. It returns an error for invalid input or a
// cancelled context; indeterminate shares are reported in Output.Warning.
func (p *Pipeline) Run(ctx context.Context, in Input) (*Output, error) {
	start := time.Now()

	runID := logging.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = logging.WithRun(ctx, runID)
	}
	logger := logging.FromContext(ctx)
	out := &Output{RunID: runID}

	if err := in.Period.Validate(); err != nil {
		return nil, err
	}

	records, err := p.Unpivot(ctx, in.Grid)
	if err != nil {
		return nil, fmt.Errorf("parse current report: %w", err)
	}
	out.Records = records

	current, err := BuildCurrent(records, in.Period, EnrichOptions{
		Country:       p.opts.Country,
		DefaultIsland: p.opts.DefaultIsland,
	})
	if err != nil {
		return nil, err
	}
	if in.Mapping != nil {
		current = in.Mapping.Apply(current)
	}
	out.Current = current

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Merge = Merge(in.History, current, p.opts.Replace)
	logger.Debug("merge complete",
		"history_rows", len(in.History.Rows),
		"current_rows", len(current.Rows),
		"evicted", out.Merge.Evicted,
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out.Result = Compute(out.Merge.Table.Rows)
	out.Warning = out.Result.Err()
	out.Final = NewFinalTable(out.Result.Rows, p.opts.IncludeMapping)
	out.Summary = Summarize(out.Result)

	logger.Debug("metrics complete",
		"rows", len(out.Final.Rows),
		"indeterminate", len(out.Result.Indeterminate),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
