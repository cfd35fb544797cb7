package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/compositor"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/config"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/database"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/errcodes"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/markups"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/metadata"
	"github.com/leldr/Kobo-Composite-Markup-Generator/pkg/naming"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// State tracks where the driver is in its run.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateDiscovering State = "discovering"
	StateProcessing  State = "processing"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Hooks are the only coupling points to a host front end. All fields are
// optional, fire-and-forget, and invoked at most once per pair (OnProgress,
// OnLog) or per run (OnComplete); no acknowledgment or backpressure is
// expected from the host.
type Hooks struct {
	OnProgress func(completed, total int)
	OnLog      func(line string)
	OnComplete func(summary string)
}

// Summary is the final tally of a run. Completed counts every attempted pair,
// successful or not.
type Summary struct {
	Total     int
	Completed int
	Succeeded int
	Failed    int
}

func (s *Summary) String() string {
	return fmt.Sprintf("processed %d of %d pairs (%d succeeded, %d failed)",
		s.Completed, s.Total, s.Succeeded, s.Failed)
}

// Driver orchestrates a batch: validate inputs, discover pairs, then resolve
// metadata, build the output location, and composite each pair in discovery
// order. One bad pair never aborts the batch; validation failures do, before
// any pair is touched.
type Driver struct {
	cfg   *config.Config
	hooks Hooks
	log   logger.Logger

	state State
}

func New(cfg *config.Config, hooks Hooks) *Driver {
	return &Driver{
		cfg:   cfg,
		hooks: hooks,
		log:   logger.New(),
		state: StateIdle,
	}
}

func (d *Driver) State() State {
	return d.state
}

// Run executes the batch to completion. The context is checked between pairs,
// so cancellation takes effect at the next pair boundary without changing any
// already-written output.
func (d *Driver) Run(ctx context.Context) (*Summary, error) {
	d.state = StateValidating
	if err := d.validate(); err != nil {
		d.state = StateFailed
		return nil, err
	}

	baseDir := filepath.Join(d.cfg.OutputDir, naming.CompositeDirName)
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		d.state = StateFailed
		return nil, errcodes.FileSystemf("cannot create output root %s: %v", baseDir, err)
	}
	d.logf("created/verified base output dir: %s", baseDir)

	db, err := database.Open(d.cfg)
	if err != nil {
		d.state = StateFailed
		return nil, err
	}
	defer db.Close()
	if d.cfg.DatabaseDebug {
		ctx = database.WithLogging(ctx)
	}
	resolver := metadata.NewService(db)
	comp := compositor.New(d.cfg)

	d.state = StateDiscovering
	pairs, err := markups.Discover(d.cfg.InputDir)
	if err != nil {
		d.state = StateFailed
		return nil, err
	}

	summary := &Summary{Total: len(pairs)}
	if len(pairs) == 0 {
		d.logf("no matching .jpg + .svg pairs found")
		d.state = StateDone
		d.complete(summary)
		return summary, nil
	}

	d.log.Info("discovered pairs", logger.Data{"count": len(pairs)})
	d.logf("found %d matching pairs, beginning overlay", len(pairs))

	d.state = StateProcessing
	for _, pair := range pairs {
		if err := ctx.Err(); err != nil {
			d.state = StateFailed
			return summary, errors.WithStack(err)
		}

		if err := d.processPair(ctx, resolver, comp, pair); err != nil {
			summary.Failed++
			d.log.Err(err).Error("pair failed", logger.Data{"id": pair.ID})
			d.logf("could not process %s with %s: %v", pair.VectorPath, pair.RasterPath, err)
		} else {
			summary.Succeeded++
		}
		summary.Completed++

		if d.hooks.OnProgress != nil {
			d.hooks.OnProgress(summary.Completed, summary.Total)
		}
	}

	d.state = StateDone
	d.complete(summary)
	return summary, nil
}

func (d *Driver) processPair(ctx context.Context, resolver *metadata.Service, comp *compositor.Compositor, pair markups.PagePair) error {
	meta, err := resolver.Resolve(ctx, pair.ID)
	if err != nil {
		return err
	}

	loc := naming.BuildLocation(d.cfg.OutputDir, meta, pair.ID, comp.OutputExt())
	if err := loc.EnsureBookDirectory(); err != nil {
		return err
	}

	d.logf("overlaying %s on %s -> %s", pair.VectorPath, pair.RasterPath, loc.Path())
	if err := comp.Composite(pair, loc.Path()); err != nil {
		return err
	}
	d.logf("saved composite image: %s", loc.Path())
	return nil
}

// validate checks all three paths up front. Nothing beyond existence checks
// (and a content sniff of the database file) touches the filesystem here.
func (d *Driver) validate() error {
	if d.cfg.DatabasePath == "" {
		return errcodes.Validation("database path is empty")
	}
	info, err := os.Stat(d.cfg.DatabasePath)
	if err != nil || info.IsDir() {
		return errcodes.Validationf("database file %s does not exist", d.cfg.DatabasePath)
	}
	mtype, err := mimetype.DetectFile(d.cfg.DatabasePath)
	if err != nil {
		return errcodes.Validationf("cannot read database file %s: %v", d.cfg.DatabasePath, err)
	}
	if !mtype.Is("application/vnd.sqlite3") {
		return errcodes.Validationf("database file %s is not a SQLite database (detected %s)", d.cfg.DatabasePath, mtype.String())
	}

	if d.cfg.InputDir == "" {
		return errcodes.Validation("input directory is empty")
	}
	if info, err := os.Stat(d.cfg.InputDir); err != nil || !info.IsDir() {
		return errcodes.Validationf("input directory %s does not exist", d.cfg.InputDir)
	}

	if d.cfg.OutputDir == "" {
		return errcodes.Validation("output directory is empty")
	}
	if info, err := os.Stat(d.cfg.OutputDir); err != nil || !info.IsDir() {
		return errcodes.Validationf("output directory %s does not exist", d.cfg.OutputDir)
	}

	return nil
}

func (d *Driver) complete(summary *Summary) {
	line := summary.String()
	d.log.Info("run complete", logger.Data{
		"total":     summary.Total,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	})
	if d.hooks.OnComplete != nil {
		d.hooks.OnComplete(line)
	}
}

func (d *Driver) logf(format string, args ...interface{}) {
	if d.hooks.OnLog != nil {
		d.hooks.OnLog(fmt.Sprintf(format, args...))
	}
}
