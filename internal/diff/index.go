package diff

// AnchorPolicy controls which line kinds are legal comment anchors.
type AnchorPolicy struct {
	// AllowContext permits anchoring on unchanged lines inside a hunk, for
	// platforms that accept comments on context lines adjacent to a
	// change. The default is added-only.
	AllowContext bool
}

// Anchor locates one commentable line within a file's patch. It carries
// both the cumulative diff position and the per-hunk offset so the posting
// layer can pick whichever coordinate the target platform needs without
// recomputation.
type Anchor struct {
	// Position is the zero-based cumulative diff position.
	Position int

	// HunkOffset is the zero-based offset of the line within its hunk.
	HunkOffset int

	Kind LineKind
}

// Index answers, for a single file, whether a claimed new-file line number
// may legally carry a comment and which coordinates it resolves to.
// Built once per file; read-only thereafter. A file with no anchorable
// lines still has a valid, empty index.
type Index struct {
	path    string
	anchors map[int]Anchor
	kinds   map[int]LineKind
}

// BuildIndex derives the validity index for one parsed file. Pure
// function, no I/O.
func BuildIndex(f File, policy AnchorPolicy) Index {
	ix := Index{
		path:    f.Path(),
		anchors: make(map[int]Anchor),
		kinds:   make(map[int]LineKind),
	}

	for _, h := range f.Hunks {
		for offset, line := range h.Lines {
			if line.NewLine == nil {
				continue
			}
			n := *line.NewLine
			ix.kinds[n] = line.Kind

			anchorable := line.Kind == LineAdded ||
				(policy.AllowContext && line.Kind == LineContext)
			if anchorable {
				ix.anchors[n] = Anchor{
					Position:   line.Position,
					HunkOffset: offset,
					Kind:       line.Kind,
				}
			}
		}
	}

	return ix
}

// Path returns the file path the index was built for.
func (ix Index) Path() string {
	return ix.path
}

// Len returns the number of anchorable lines.
func (ix Index) Len() int {
	return len(ix.anchors)
}

// Anchor resolves a new-file line number to its anchor coordinates.
func (ix Index) Anchor(newLine int) (Anchor, bool) {
	a, ok := ix.anchors[newLine]
	return a, ok
}

// Contains reports whether the new-file line number appears anywhere in
// the file's hunks, anchorable or not. Distinguishes "line not in diff"
// from "line in diff but not commentable".
func (ix Index) Contains(newLine int) bool {
	_, ok := ix.kinds[newLine]
	return ok
}

// Kind returns the line kind for a new-file line number present in the
// patch.
func (ix Index) Kind(newLine int) (LineKind, bool) {
	k, ok := ix.kinds[newLine]
	return k, ok
}

// RangeAnchors resolves every line of [start, end] to an anchor. It
// reports false when any line is unanchorable or when the anchors are not
// consecutive diff positions: a removed line between two added lines
// consumes a position, so a gap means the range spans a deletion.
func (ix Index) RangeAnchors(start, end int) ([]Anchor, bool) {
	if end < start {
		return nil, false
	}

	anchors := make([]Anchor, 0, end-start+1)
	for n := start; n <= end; n++ {
		a, ok := ix.anchors[n]
		if !ok {
			return nil, false
		}
		if len(anchors) > 0 && a.Position != anchors[len(anchors)-1].Position+1 {
			return nil, false
		}
		anchors = append(anchors, a)
	}
	return anchors, true
}
