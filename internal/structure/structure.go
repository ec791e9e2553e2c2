package structure

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jadnhm/volvo-usb-verifier/internal/finding"
	"github.com/jadnhm/volvo-usb-verifier/internal/rules"
)

// FileEntry describes one file discovered during the walk. Entries are
// created here, read by the audit phase, and never persisted.
type FileEntry struct {
	Path    string // absolute
	RelPath string // relative to the scan root
	Ext     string // lower case, with leading dot
	Size    int64
}

// Result aggregates one structural pass.
type Result struct {
	Root             string
	TotalAudioFiles  int
	TotalFolders     int
	RootFolders      int
	MaxDepth         int
	MaxFilesInFolder int
	// ExtensionCounts tallies supported audio files per extension.
	ExtensionCounts map[string]int
	// AudioFiles holds the supported files in discovery order; the audit
	// phase preserves this order in its output.
	AudioFiles []FileEntry
	Findings   []finding.Finding
}

// Scan walks root and returns structural metrics and findings. It fails only
// when the root itself cannot be read; trouble below the root becomes
// read-error findings.
func Scan(root string, set rules.Set) (*Result, error) {
	res := &Result{
		Root:            root,
		ExtensionCounts: make(map[string]int),
	}

	// Folder order is recorded so overflow findings come out in discovery
	// order.
	var folderOrder []string
	folderFiles := make(map[string]int)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if walkErr != nil {
			if rel == "." {
				return walkErr
			}
			res.Findings = append(res.Findings, finding.Finding{
				Path:     rel,
				Category: finding.CategoryReadError,
				Severity: finding.SeverityError,
				Message:  fmt.Sprintf("cannot read: %v", walkErr),
			})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel == "." {
				folderOrder = append(folderOrder, rel)
				return nil
			}
			depth := strings.Count(rel, string(filepath.Separator)) + 1
			res.TotalFolders++
			if depth > res.MaxDepth {
				res.MaxDepth = depth
			}
			// The head unit's root-folder limit applies to the folders one
			// level below the top-level entries (artist/album layouts).
			if depth == 2 {
				res.RootFolders++
			}
			folderOrder = append(folderOrder, rel)
			return nil
		}

		res.checkEntryName(rel, set)

		ext := strings.ToLower(filepath.Ext(d.Name()))
		switch {
		case set.Unsupported(ext):
			res.Findings = append(res.Findings, finding.Finding{
				Path:     rel,
				Category: finding.CategoryUnsupportedFormat,
				Severity: finding.SeverityError,
				Message:  fmt.Sprintf("unsupported format %s", strings.ToUpper(strings.TrimPrefix(ext, "."))),
			})
		case set.Supported(ext):
			info, infoErr := d.Info()
			var size int64
			if infoErr == nil {
				size = info.Size()
			}
			res.TotalAudioFiles++
			res.ExtensionCounts[ext]++
			dir := filepath.Dir(rel)
			folderFiles[dir]++
			if folderFiles[dir] > res.MaxFilesInFolder {
				res.MaxFilesInFolder = folderFiles[dir]
			}
			res.AudioFiles = append(res.AudioFiles, FileEntry{
				Path:    path,
				RelPath: rel,
				Ext:     ext,
				Size:    size,
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	res.finalize(set, folderOrder, folderFiles)
	return res, nil
}

// checkEntryName applies the path, filename, and character rules shared by
// every file regardless of format.
func (res *Result) checkEntryName(rel string, set rules.Set) {
	if length := utf8.RuneCountInString(rel); length > set.MaxPathLength {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     rel,
			Category: finding.CategoryPathLength,
			Severity: finding.SeverityError,
			Message:  fmt.Sprintf("path is %d characters (limit %d)", length, set.MaxPathLength),
			Measured: int64(length),
			Limit:    int64(set.MaxPathLength),
		})
	}

	name := filepath.Base(rel)
	if length := utf8.RuneCountInString(name); length > set.MaxFilenameLength {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     rel,
			Category: finding.CategoryFilenameLength,
			Severity: finding.SeverityError,
			Message:  fmt.Sprintf("filename is %d characters (limit %d)", length, set.MaxFilenameLength),
			Measured: int64(length),
			Limit:    int64(set.MaxFilenameLength),
		})
	}

	if unsafe := unsafeRunes(rel, set); len(unsafe) > 0 {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     rel,
			Category: finding.CategoryInvalidCharacters,
			Severity: finding.SeverityWarning,
			Message:  describeUnsafe(unsafe),
		})
	}
}

func unsafeRunes(rel string, set rules.Set) []rune {
	var unsafe []rune
	seen := make(map[rune]bool)
	for _, r := range rel {
		if set.UnsafeRune(r) && !seen[r] {
			seen[r] = true
			unsafe = append(unsafe, r)
		}
	}
	return unsafe
}

func (res *Result) finalize(set rules.Set, folderOrder []string, folderFiles map[string]int) {
	res.appendLimitFinding(
		res.TotalAudioFiles, set.MaxTotalFiles,
		fmt.Sprintf("total audio files: %d (max %d)", res.TotalAudioFiles, set.MaxTotalFiles),
		fmt.Sprintf("total audio files: %d exceeds maximum %d", res.TotalAudioFiles, set.MaxTotalFiles),
	)
	res.appendLimitFinding(
		res.RootFolders, set.MaxRootFolders,
		fmt.Sprintf("root folders: %d (max %d)", res.RootFolders, set.MaxRootFolders),
		fmt.Sprintf("root folders: %d exceeds maximum %d", res.RootFolders, set.MaxRootFolders),
	)

	overflowed := false
	for _, dir := range folderOrder {
		count := folderFiles[dir]
		if count <= set.MaxFilesPerFolder {
			continue
		}
		overflowed = true
		res.Findings = append(res.Findings, finding.Finding{
			Path:     dir,
			Category: finding.CategoryStructureCount,
			Severity: finding.SeverityError,
			Message:  fmt.Sprintf("folder holds %d audio files (max %d)", count, set.MaxFilesPerFolder),
			Measured: int64(count),
			Limit:    int64(set.MaxFilesPerFolder),
		})
	}
	if !overflowed {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     ".",
			Category: finding.CategoryStructureCount,
			Severity: finding.SeverityInfo,
			Message:  fmt.Sprintf("files per folder: max %d (limit %d)", res.MaxFilesInFolder, set.MaxFilesPerFolder),
			Measured: int64(res.MaxFilesInFolder),
			Limit:    int64(set.MaxFilesPerFolder),
		})
	}

	res.appendLimitFinding(
		res.MaxDepth, set.MaxNestingDepth,
		fmt.Sprintf("max nesting depth: %d (max %d)", res.MaxDepth, set.MaxNestingDepth),
		fmt.Sprintf("max nesting depth: %d exceeds maximum %d", res.MaxDepth, set.MaxNestingDepth),
	)

	if !res.hasCategory(finding.CategoryPathLength) {
		res.Findings = append(res.Findings, finding.Finding{
			Path:     ".",
			Category: finding.CategoryPathLength,
			Severity: finding.SeverityInfo,
			Message:  fmt.Sprintf("all paths within %d characters", set.MaxPathLength),
			Limit:    int64(set.MaxPathLength),
		})
	}
}

func (res *Result) appendLimitFinding(measured, limit int, passMsg, failMsg string) {
	f := finding.Finding{
		Path:     ".",
		Category: finding.CategoryStructureCount,
		Measured: int64(measured),
		Limit:    int64(limit),
	}
	if measured <= limit {
		f.Severity = finding.SeverityInfo
		f.Message = passMsg
	} else {
		f.Severity = finding.SeverityError
		f.Message = failMsg
	}
	res.Findings = append(res.Findings, f)
}

func (res *Result) hasCategory(cat finding.Category) bool {
	for _, f := range res.Findings {
		if f.Category == cat {
			return true
		}
	}
	return false
}
