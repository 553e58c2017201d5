// Package dedup collapses duplicate review comments and fixes the order
// in which the survivors are posted.
package dedup

import (
	"sort"

	"github.com/mshafer/prreview/internal/domain"
)

// Deduplicate collapses comments that share a deduplication key. The
// first occurrence keeps its slot; when a later duplicate carries a
// suggestion fence and the survivor does not, the duplicate's body wins
// the slot instead. Idempotent: running it twice changes nothing.
func Deduplicate(comments []domain.Comment) []domain.Comment {
	seen := make(map[domain.DedupKey]int, len(comments))
	out := make([]domain.Comment, 0, len(comments))

	for _, c := range comments {
		i, dup := seen[c.Key]
		if !dup {
			seen[c.Key] = len(out)
			out = append(out, c)
			continue
		}
		if c.HasReplacement && !out[i].HasReplacement {
			out[i] = c
		}
	}

	return out
}

// Order sorts comments into posting order: files in the order they appear
// in the diff, then ascending diff position within a file. Files absent
// from the rank map (which cannot happen for normalized comments) sort
// last. The sort is stable so equal keys keep their relative order.
func Order(comments []domain.Comment, fileOrder []string) []domain.Comment {
	rank := make(map[string]int, len(fileOrder))
	for i, path := range fileOrder {
		rank[path] = i
	}

	out := make([]domain.Comment, len(comments))
	copy(out, comments)

	sort.SliceStable(out, func(i, j int) bool {
		ri, iOK := rank[out[i].Path]
		rj, jOK := rank[out[j].Path]
		if !iOK {
			ri = len(fileOrder)
		}
		if !jOK {
			rj = len(fileOrder)
		}
		if ri != rj {
			return ri < rj
		}
		return out[i].Position < out[j].Position
	})

	return out
}
