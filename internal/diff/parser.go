package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LineKind represents the kind of a line in a diff hunk.
type LineKind int

const (
	// LineContext is an unchanged line (prefix ' ').
	LineContext LineKind = iota
	// LineAdded is an added line (prefix '+').
	LineAdded
	// LineRemoved is a removed line (prefix '-').
	LineRemoved
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "context"
	}
}

// Line is one physical line inside a hunk.
type Line struct {
	Kind LineKind

	// Content is the line text without its prefix character, preserved
	// byte-for-byte including trailing whitespace.
	Content string

	// OldLine is the line number in the old file (nil for added lines).
	OldLine *int

	// NewLine is the line number in the new file (nil for removed lines).
	NewLine *int

	// Position is the zero-based diff position scoped to the file's patch:
	// the offset below the first @@ header, where hunk headers after the
	// first and no-newline markers consume a slot of their own.
	Position int
}

// Hunk is one contiguous @@ block.
type Hunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int

	// Section is the trailing context after the closing @@, if any.
	Section string

	Lines []Line
}

// ChangeKind classifies how a file was changed.
type ChangeKind int

const (
	ChangeModified ChangeKind = iota
	ChangeAdded
	ChangeDeleted
	ChangeRenamed
)

func (c ChangeKind) String() string {
	switch c {
	case ChangeAdded:
		return "added"
	case ChangeDeleted:
		return "deleted"
	case ChangeRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// File is one file touched by the diff. Immutable after Parse returns.
type File struct {
	OldPath string
	NewPath string
	Change  ChangeKind

	// Binary marks binary-file patches; they carry zero hunks.
	Binary bool

	Hunks []Hunk
}

// Path returns the path the file is addressed by: the new path, falling
// back to the old path for pure deletions.
func (f File) Path() string {
	if f.NewPath != "" {
		return f.NewPath
	}
	return f.OldPath
}

// Diagnostic records a recoverable parse problem. One malformed hunk must
// not discard an otherwise valid diff.
type Diagnostic struct {
	Path    string
	Message string
}

func (d Diagnostic) String() string {
	if d.Path == "" {
		return d.Message
	}
	return d.Path + ": " + d.Message
}

// Patch is the parse result for one raw diff.
type Patch struct {
	Files       []File
	Diagnostics []Diagnostic
}

// File returns the parsed file for the given path.
func (p Patch) File(path string) (File, bool) {
	for _, f := range p.Files {
		if f.Path() == path {
			return f, true
		}
	}
	return File{}, false
}

// FileOrder returns file paths in their original diff order.
func (p Patch) FileOrder() []string {
	order := make([]string, 0, len(p.Files))
	for _, f := range p.Files {
		order = append(order, f.Path())
	}
	return order
}

// ParseError reports diff text that yielded nothing usable at all.
// Per-hunk and per-file problems are diagnostics instead.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "parse diff: " + e.Message
}

var hunkHeaderRE = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@(.*)$`)

// Parse parses raw unified-diff text (git diff format, possibly spanning
// many files) into a Patch. Empty input yields an empty Patch. Non-blank
// input that produces no usable file at all is a ParseError.
func Parse(text string) (Patch, error) {
	p := &parser{}
	p.run(text)

	if len(p.files) == 0 && strings.TrimSpace(text) != "" {
		msg := "no file headers found"
		if len(p.diags) > 0 {
			msg = p.diags[0].Message
		}
		return Patch{}, &ParseError{Message: msg}
	}

	return Patch{Files: p.files, Diagnostics: p.diags}, nil
}

type parser struct {
	files []File
	diags []Diagnostic

	cur *File

	// position counter, scoped to the current file's patch
	pos     int
	sawHunk bool

	hunk        *Hunk
	consumedOld int
	consumedNew int
	nextOld     int
	nextNew     int
}

func (p *parser) run(text string) {
	lines := strings.Split(text, "\n")
	// A trailing newline produces one final empty element; drop it so it is
	// not mistaken for an empty context line.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	for _, line := range lines {
		if p.hunk != nil && p.consumeHunkLine(line) {
			continue
		}
		p.consumeHeaderLine(line)
	}

	p.closeHunk()
	p.closeFile()
}

// consumeHunkLine handles one line while inside a hunk. It returns false
// when the line belongs to the surrounding file or diff structure, closing
// the hunk as a side effect.
func (p *parser) consumeHunkLine(line string) bool {
	// The no-newline marker consumes a diff position slot but is not a
	// line record and moves neither file counter.
	if strings.HasPrefix(line, `\`) {
		p.pos++
		return true
	}

	complete := p.consumedOld >= p.hunk.OldCount && p.consumedNew >= p.hunk.NewCount
	if complete {
		p.closeHunk()
		return false
	}

	rec := Line{Position: p.pos}
	switch {
	case strings.HasPrefix(line, "+"):
		rec.Kind = LineAdded
		rec.Content = line[1:]
		rec.NewLine = intPtr(p.nextNew)
		p.nextNew++
		p.consumedNew++
	case strings.HasPrefix(line, "-"):
		rec.Kind = LineRemoved
		rec.Content = line[1:]
		rec.OldLine = intPtr(p.nextOld)
		p.nextOld++
		p.consumedOld++
	case strings.HasPrefix(line, " "), line == "":
		// Some tools emit genuinely empty context lines without the
		// leading space.
		rec.Kind = LineContext
		if line != "" {
			rec.Content = line[1:]
		}
		rec.OldLine = intPtr(p.nextOld)
		rec.NewLine = intPtr(p.nextNew)
		p.nextOld++
		p.nextNew++
		p.consumedOld++
		p.consumedNew++
	default:
		// Structural line before the hunk's declared counts were consumed:
		// the hunk is malformed. Drop it and keep parsing.
		p.dropHunk(fmt.Sprintf("hunk truncated at %q: consumed %d/%d old, %d/%d new lines",
			firstN(line, 40), p.consumedOld, p.hunk.OldCount, p.consumedNew, p.hunk.NewCount))
		return false
	}

	p.pos++
	p.hunk.Lines = append(p.hunk.Lines, rec)
	return true
}

func (p *parser) consumeHeaderLine(line string) {
	switch {
	case strings.HasPrefix(line, "diff --git "):
		p.closeHunk()
		p.closeFile()
		p.startFile(line)

	case strings.HasPrefix(line, "--- "):
		path := parseFileHeaderPath(line[len("--- "):], "a/")
		if p.cur == nil {
			p.startBareFile()
		}
		if path == "" {
			// "--- /dev/null": the file did not exist before.
			p.cur.Change = ChangeAdded
		} else if p.cur.OldPath == "" {
			p.cur.OldPath = path
		}

	case strings.HasPrefix(line, "+++ "):
		if p.cur == nil {
			p.startBareFile()
		}
		path := parseFileHeaderPath(line[len("+++ "):], "b/")
		if path == "" {
			// "+++ /dev/null": the file was deleted.
			p.cur.Change = ChangeDeleted
			p.cur.NewPath = ""
		} else if p.cur.NewPath == "" || p.cur.Change == ChangeRenamed {
			p.cur.NewPath = path
		}

	case strings.HasPrefix(line, "rename from "):
		if p.cur != nil {
			p.cur.Change = ChangeRenamed
			p.cur.OldPath = line[len("rename from "):]
		}

	case strings.HasPrefix(line, "rename to "):
		if p.cur != nil {
			p.cur.Change = ChangeRenamed
			p.cur.NewPath = line[len("rename to "):]
		}

	case strings.HasPrefix(line, "new file mode "):
		if p.cur != nil {
			p.cur.Change = ChangeAdded
		}

	case strings.HasPrefix(line, "deleted file mode "):
		if p.cur != nil {
			p.cur.Change = ChangeDeleted
		}

	case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
		if p.cur != nil {
			p.cur.Binary = true
		}

	case strings.HasPrefix(line, "@@"):
		p.closeHunk()
		p.startHunk(line)

	default:
		// index lines, mode lines, extended headers, blank separators.
	}
}

func (p *parser) startFile(header string) {
	f := File{Change: ChangeModified}
	f.OldPath, f.NewPath = parseGitHeaderPaths(header)
	p.cur = &f
	p.pos = 0
	p.sawHunk = false
}

// startBareFile handles diffs that begin directly with ---/+++ headers
// (patch fragments without a git header line).
func (p *parser) startBareFile() {
	p.closeHunk()
	p.closeFile()
	f := File{Change: ChangeModified}
	p.cur = &f
	p.pos = 0
	p.sawHunk = false
}

func (p *parser) startHunk(line string) {
	if p.cur == nil {
		p.diags = append(p.diags, Diagnostic{Message: "hunk header before any file header: " + firstN(line, 40)})
		return
	}

	m := hunkHeaderRE.FindStringSubmatch(line)
	if m == nil {
		p.diags = append(p.diags, Diagnostic{Path: p.cur.Path(), Message: "malformed hunk header: " + firstN(line, 40)})
		return
	}

	// Hunk headers after the first consume a diff position slot.
	if p.sawHunk {
		p.pos++
	}
	p.sawHunk = true

	h := Hunk{
		OldStart: atoiDefault(m[1], 0),
		OldCount: atoiDefault(m[2], 1),
		NewStart: atoiDefault(m[3], 0),
		NewCount: atoiDefault(m[4], 1),
		Section:  strings.TrimPrefix(m[5], " "),
	}
	p.hunk = &h
	p.consumedOld = 0
	p.consumedNew = 0
	p.nextOld = h.OldStart
	p.nextNew = h.NewStart
}

func (p *parser) closeHunk() {
	if p.hunk == nil {
		return
	}
	h := p.hunk
	p.hunk = nil

	if p.consumedOld != h.OldCount || p.consumedNew != h.NewCount {
		p.diags = append(p.diags, Diagnostic{
			Path: p.cur.Path(),
			Message: fmt.Sprintf("hunk @@ -%d,%d +%d,%d @@ declared counts do not match body (%d old, %d new); hunk skipped",
				h.OldStart, h.OldCount, h.NewStart, h.NewCount, p.consumedOld, p.consumedNew),
		})
		return
	}

	p.cur.Hunks = append(p.cur.Hunks, *h)
}

func (p *parser) closeFile() {
	if p.cur == nil {
		return
	}
	f := *p.cur
	p.cur = nil

	if f.Path() == "" {
		p.diags = append(p.diags, Diagnostic{Message: "file header missing path; file skipped"})
		return
	}

	p.files = append(p.files, f)
}

func (p *parser) dropHunk(reason string) {
	h := p.hunk
	p.hunk = nil
	p.diags = append(p.diags, Diagnostic{
		Path: p.cur.Path(),
		Message: fmt.Sprintf("hunk @@ -%d,%d +%d,%d @@ skipped: %s",
			h.OldStart, h.OldCount, h.NewStart, h.NewCount, reason),
	})
}

// parseGitHeaderPaths extracts old and new paths from a "diff --git" line.
func parseGitHeaderPaths(header string) (oldPath, newPath string) {
	rest := strings.TrimPrefix(header, "diff --git ")

	if strings.HasPrefix(rest, `"`) {
		// Quoted paths (spaces or non-ASCII); split on the quoted boundary.
		if unquoted, err := strconv.Unquote(rest[:strings.Index(rest, `" `)+1]); err == nil {
			oldPath = strings.TrimPrefix(unquoted, "a/")
		}
		if idx := strings.Index(rest, ` "`); idx >= 0 {
			if unquoted, err := strconv.Unquote(rest[idx+1:]); err == nil {
				newPath = strings.TrimPrefix(unquoted, "b/")
			}
		}
		return oldPath, newPath
	}

	if !strings.HasPrefix(rest, "a/") {
		return "", ""
	}
	idx := strings.LastIndex(rest, " b/")
	if idx < 0 {
		return "", ""
	}
	return rest[len("a/"):idx], rest[idx+len(" b/"):]
}

// parseFileHeaderPath extracts the path from a ---/+++ header value,
// returning "" for /dev/null.
func parseFileHeaderPath(value string, prefix string) string {
	// Strip a trailing timestamp if present (tab-separated per POSIX diff).
	if idx := strings.IndexByte(value, '\t'); idx >= 0 {
		value = value[:idx]
	}
	if value == "/dev/null" {
		return ""
	}
	if strings.HasPrefix(value, `"`) {
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
	}
	return strings.TrimPrefix(value, prefix)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func firstN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func intPtr(n int) *int {
	return &n
}
