// Package normalize turns untrusted model suggestions into anchored
// comments, rejecting anything whose claimed location cannot be verified
// against the parsed diff.
package normalize

import (
	"strings"

	"github.com/mshafer/prreview/internal/diff"
	"github.com/mshafer/prreview/internal/domain"
)

// Normalizer validates suggestions against a parsed patch.
type Normalizer struct {
	policy diff.AnchorPolicy
}

// New creates a normalizer with the given anchor policy.
func New(policy diff.AnchorPolicy) *Normalizer {
	return &Normalizer{policy: policy}
}

// Result separates the suggestions that survived validation from those
// that were rejected, with a reason for every rejection.
type Result struct {
	Comments   []domain.Comment
	Rejections []domain.Rejection
}

// NormalizeAll validates a batch of suggestions against a patch. Indexes
// are built once per file and shared across suggestions. Rejections are
// accumulated, never fatal: one bad suggestion must not sink the rest.
func (n *Normalizer) NormalizeAll(patch diff.Patch, suggestions []domain.Suggestion) Result {
	indexes := make(map[string]diff.Index)
	var res Result

	for _, s := range suggestions {
		ix, ok := indexes[s.File]
		if !ok {
			f, found := patch.File(s.File)
			if !found {
				res.Rejections = append(res.Rejections, domain.Rejection{
					File:    s.File,
					Line:    s.Line,
					EndLine: s.EndLine,
					Reason:  domain.RejectFileNotFound,
					Detail:  "file does not appear in the diff",
				})
				continue
			}
			ix = diff.BuildIndex(f, n.policy)
			indexes[s.File] = ix
		}

		comment, rejection := n.normalize(ix, s)
		if rejection != nil {
			res.Rejections = append(res.Rejections, *rejection)
			continue
		}
		res.Comments = append(res.Comments, comment)
	}

	return res
}

// normalize validates a single suggestion against its file's index.
func (n *Normalizer) normalize(ix diff.Index, s domain.Suggestion) (domain.Comment, *domain.Rejection) {
	reject := func(reason domain.RejectionReason, detail string) (domain.Comment, *domain.Rejection) {
		return domain.Comment{}, &domain.Rejection{
			File:    s.File,
			Line:    s.Line,
			EndLine: s.EndLine,
			Reason:  reason,
			Detail:  detail,
		}
	}

	start, end := s.Line, s.EndLine
	if end == 0 {
		end = start
	}

	if start < 1 {
		return reject(domain.RejectMalformedRange, "line numbers are 1-based")
	}
	if end < start {
		return reject(domain.RejectMalformedRange, "end line precedes start line")
	}

	anchors, ok := ix.RangeAnchors(start, end)
	if !ok {
		return reject(n.classifyFailure(ix, start, end))
	}

	last := anchors[len(anchors)-1]
	body, hasReplacement := buildBody(s, anchors)

	c := domain.Comment{
		Path:           s.File,
		Position:       last.Position,
		Line:           end,
		Side:           domain.SideRight,
		Body:           body,
		HasReplacement: hasReplacement,
		Severity:       s.Severity,
	}
	if end != start {
		c.StartLine = start
	}
	c.Key = domain.NewDedupKey(c.Path, c.Position, c.Body)

	return c, nil
}

// classifyFailure decides which rejection reason describes an unanchorable
// range. A line absent from every hunk is not in the diff; a line present
// but unchanged (or removed-adjacent) is in the diff but not commentable;
// a range that mixes anchorable and unanchorable lines, or spans a
// deletion gap, is malformed.
func (n *Normalizer) classifyFailure(ix diff.Index, start, end int) (domain.RejectionReason, string) {
	known, anchorable := 0, 0
	for line := start; line <= end; line++ {
		if ix.Contains(line) {
			known++
		}
		if _, ok := ix.Anchor(line); ok {
			anchorable++
		}
	}
	total := end - start + 1

	switch {
	case known == 0:
		return domain.RejectLineNotInDiff, "no line of the range appears in the diff"
	case anchorable == 0 && known == total:
		return domain.RejectLineNotAdded, "range contains no added lines"
	case anchorable == total:
		return domain.RejectMalformedRange, "range spans a deletion gap"
	default:
		return domain.RejectMalformedRange, "range mixes commentable and non-commentable lines"
	}
}

// buildBody renders the final Markdown body. A replacement becomes a
// suggestion fence only when every line of the range is an added line;
// a fence anchored on context lines would rewrite code the PR never
// touched, so the fence is dropped and the prose kept.
func buildBody(s domain.Suggestion, anchors []diff.Anchor) (string, bool) {
	body := strings.TrimSpace(s.Body)
	if s.Replacement == "" {
		return body, false
	}

	for _, a := range anchors {
		if a.Kind != diff.LineAdded {
			return body, false
		}
	}

	var sb strings.Builder
	sb.WriteString(body)
	if body != "" {
		sb.WriteString("\n\n")
	}
	sb.WriteString("```suggestion\n")
	sb.WriteString(strings.TrimRight(s.Replacement, "\n"))
	sb.WriteString("\n```")
	return sb.String(), true
}
