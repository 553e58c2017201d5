package cli

import (
	"context"
	"fmt"
	"io"

	ghpost "github.com/mshafer/prreview/internal/usecase/github"
)

// StdoutPoster implements the posting port for dry runs: comments are
// rendered to a writer and nothing touches the network.
type StdoutPoster struct {
	out io.Writer
}

// NewStdoutPoster creates a poster that writes to out.
func NewStdoutPoster(out io.Writer) *StdoutPoster {
	return &StdoutPoster{out: out}
}

// Post renders every comment and reports them all as submitted.
func (p *StdoutPoster) Post(ctx context.Context, req ghpost.PostRequest) (ghpost.PostResult, error) {
	if len(req.Comments) == 0 {
		fmt.Fprintln(p.out, "No issues found.")
		return ghpost.PostResult{}, nil
	}

	result := ghpost.PostResult{Attempted: len(req.Comments)}
	for _, c := range req.Comments {
		if c.Multiline() {
			fmt.Fprintf(p.out, "--- %s:%d-%d (position %d)\n", c.Path, c.StartLine, c.Line, c.Position)
		} else {
			fmt.Fprintf(p.out, "--- %s:%d (position %d)\n", c.Path, c.Line, c.Position)
		}
		fmt.Fprintln(p.out, c.Body)
		fmt.Fprintln(p.out)

		result.Submitted++
		result.Results = append(result.Results, ghpost.CommentResult{
			Comment: c,
			State:   ghpost.StateSubmitted,
		})
	}
	return result, nil
}
