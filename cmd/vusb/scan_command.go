package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/jadnhm/volvo-usb-verifier/internal/drive"
	"github.com/jadnhm/volvo-usb-verifier/internal/logging"
	"github.com/jadnhm/volvo-usb-verifier/internal/report"
	"github.com/jadnhm/volvo-usb-verifier/internal/verify"
)

// errNonCompliant marks a scan that finished but found errors; main maps it
// to exit code 1.
var errNonCompliant = errors.New("drive is not compliant")

func newScanCommand(cmdCtx *commandContext) *cobra.Command {
	var (
		exportPath string
		workers    int
		noExport   bool
		noDrive    bool
	)

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "Verify a music drive and export its defect list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// One scan at a time against the shared state directory.
			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire scan lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another vusb scan is already running (lock %s)", cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			logger, err := logging.New(logging.Options{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				OutputPaths: []string{
					"stderr",
					filepath.Join(cfg.Paths.LogDir, "vusb.log"),
				},
			})
			if err != nil {
				return err
			}

			opts := verify.Options{
				Workers: cfg.Scan.Workers,
				Logger:  logging.NewComponentLogger(logger, "scan"),
			}
			if workers > 0 {
				opts.Workers = workers
			}
			if cfg.Scan.DriveCheck && !noDrive {
				opts.DriveProbe = drive.Probe
			}

			reporter := newProgressReporter(cmd)
			opts.OnProgress = reporter.update
			defer reporter.stop()

			res, err := verify.NewScanner(cfg.RuleSet(), opts).Run(ctx, args[0])
			if err != nil {
				return err
			}
			reporter.stop()

			fmt.Fprintln(cmd.OutOrStdout(), report.Render(res, report.Options{
				MaxPerCategory: cfg.Report.MaxPerCategory,
			}))

			target := exportPath
			if target == "" {
				name := fmt.Sprintf("defects-%s.csv", res.StartedAt.Format("20060102-150405"))
				target = filepath.Join(cfg.Paths.ExportDir, name)
			}
			var exported string
			if !noExport {
				written, err := report.ExportCSV(target, res.Findings)
				if err != nil {
					return err
				}
				if written {
					exported = target
					fmt.Fprintf(cmd.OutOrStdout(), "Defect list written to %s\n", target)
				}
			}

			if cfg.History.Enabled {
				store, err := cmdCtx.openHistory()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.Record(ctx, res, exported); err != nil {
					return err
				}
			}

			if !res.Passed() {
				return errNonCompliant
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&exportPath, "export", "", "Write the defect CSV to this path instead of the export directory")
	cmd.Flags().BoolVar(&noExport, "no-export", false, "Skip writing the defect CSV")
	cmd.Flags().IntVar(&workers, "workers", 0, "Audio audit worker count (overrides config)")
	cmd.Flags().BoolVar(&noDrive, "no-drive-check", false, "Skip the filesystem/partition advisory checks")

	return cmd
}

// progressReporter drives a terminal progress bar from the scan's progress
// callback. Outside a terminal it stays silent.
type progressReporter struct {
	mu      sync.Mutex
	writer  progress.Writer
	tracker *progress.Tracker
	active  bool
}

func newProgressReporter(cmd *cobra.Command) *progressReporter {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		return &progressReporter{}
	}

	pw := progress.NewWriter()
	pw.SetOutputWriter(cmd.ErrOrStderr())
	pw.SetTrackerLength(25)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	return &progressReporter{writer: pw}
}

func (p *progressReporter) update(done, total int) {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.tracker == nil {
		p.tracker = &progress.Tracker{
			Message: "auditing audio files",
			Total:   int64(total),
		}
		p.writer.AppendTracker(p.tracker)
		go p.writer.Render()
		p.active = true
	}
	p.tracker.SetValue(int64(done))
}

func (p *progressReporter) stop() {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.active {
		return
	}
	if p.tracker != nil && !p.tracker.IsDone() {
		p.tracker.MarkAsDone()
	}
	p.writer.Stop()
	p.active = false
}
