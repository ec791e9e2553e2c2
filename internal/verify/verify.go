package verify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jadnhm/volvo-usb-verifier/internal/audit"
	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/logging"
	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
	"github.com/jadnhm/volvo-usb-verifier/internal/structure"
)

// State tracks where a scan invocation is in its lifecycle. Transitions are
// strictly forward; Done is reached whether or not errors were found.
type State int

const (
	StateIdle State = iota
	StateScanningStructure
	StateScanningAudio
	StateReporting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanningStructure:
		return "scanning-structure"
	case StateScanningAudio:
		return "scanning-audio"
	case StateReporting:
		return "reporting"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// Result is one completed scan. Passed is derived, never stored.
type Result struct {
	RunID      string
	Root       string
	StartedAt  time.Time
	FinishedAt time.Time

	TotalAudioFiles  int
	TotalFolders     int
	RootFolders      int
	MaxDepth         int
	MaxFilesInFolder int
	ExtensionCounts  map[string]int

	Findings []finding.Finding
}

// Passed reports whether the scan found no error-severity findings.
func (r *Result) Passed() bool {
	return finding.Passed(r.Findings)
}

// Duration is the wall-clock span of the scan.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// DriveProbe inspects the device the root lives on and reports advisory
// findings. Implementations must not assume the root is a mount point.
type DriveProbe func(root string, set rules.Set) []finding.Finding

// Options configures a Scanner. The zero value is usable.
type Options struct {
	// Workers bounds the audio audit pool. Zero means one worker per
	// available CPU.
	Workers int
	Logger  *slog.Logger
	// DriveProbe runs after the structural walk when non-nil.
	DriveProbe DriveProbe
	// OnProgress is invoked from a single goroutine after each audited file.
	OnProgress func(done, total int)
}

// Scanner runs scans against one rule set. Safe for sequential reuse; a
// Scanner runs one scan at a time.
type Scanner struct {
	set  rules.Set
	opts Options

	mu    sync.Mutex
	state State
}

func NewScanner(set rules.Set, opts Options) *Scanner {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	return &Scanner{set: set, opts: opts}
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scanner) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Run scans root and returns the assembled result. It fails only for
// operational problems (missing root, cancellation); compliance defects are
// findings inside the result. A canceled run returns ctx.Err() and no
// result.
func (s *Scanner) Run(ctx context.Context, root string) (*Result, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", root)
	}

	res := &Result{
		RunID:     uuid.NewString(),
		Root:      root,
		StartedAt: time.Now().UTC(),
	}
	logger := s.opts.Logger.With(logging.String("run_id", res.RunID))

	defer s.setState(StateDone)

	s.setState(StateScanningStructure)
	logger.Info("structural walk started", logging.String("root", root))
	st, err := structure.Scan(root, s.set)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.TotalAudioFiles = st.TotalAudioFiles
	res.TotalFolders = st.TotalFolders
	res.RootFolders = st.RootFolders
	res.MaxDepth = st.MaxDepth
	res.MaxFilesInFolder = st.MaxFilesInFolder
	res.ExtensionCounts = st.ExtensionCounts
	res.Findings = append(res.Findings, st.Findings...)

	if s.opts.DriveProbe != nil {
		res.Findings = append(res.Findings, s.opts.DriveProbe(root, s.set)...)
	}

	s.setState(StateScanningAudio)
	logger.Info("audio audit started",
		logging.Int("files", len(st.AudioFiles)),
		logging.Int("workers", s.opts.Workers))
	perFile, err := s.auditFiles(ctx, st.AudioFiles)
	if err != nil {
		return nil, err
	}

	s.setState(StateReporting)
	for _, findings := range perFile {
		res.Findings = append(res.Findings, findings...)
	}
	res.FinishedAt = time.Now().UTC()

	counts := finding.CountBySeverity(res.Findings)
	logger.Info("scan finished",
		logging.Int("errors", counts[finding.SeverityError]),
		logging.Int("warnings", counts[finding.SeverityWarning]),
		logging.Bool("passed", res.Passed()))
	return res, nil
}

// auditFiles fans files out over the worker pool. Each slot in the returned
// slice matches the file at the same index, so assembly preserves discovery
// order no matter which worker finished first.
func (s *Scanner) auditFiles(ctx context.Context, files []structure.FileEntry) ([][]finding.Finding, error) {
	results := make([][]finding.Finding, len(files))
	if len(files) == 0 {
		return results, ctx.Err()
	}

	jobs := make(chan int)
	completions := make(chan struct{})

	var wg sync.WaitGroup
	workers := s.opts.Workers
	if workers > len(files) {
		workers = len(files)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = audit.File(files[i], s.set)
				select {
				case completions <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := range files {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(completions)
	}()

	done := 0
	for range completions {
		done++
		if s.opts.OnProgress != nil {
			s.opts.OnProgress(done, len(files))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
