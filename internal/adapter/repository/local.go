// Package repository provides a local git diff source for dry runs, so a
// review can be exercised against uncommitted branches without a hosted
// pull request.
package repository

import (
	"context"
	"fmt"

	goGit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// LocalSource produces unified diff text from a local repository.
type LocalSource struct {
	repoDir string
}

// NewLocalSource constructs a diff source for the provided repository
// directory.
func NewLocalSource(repoDir string) *LocalSource {
	return &LocalSource{repoDir: repoDir}
}

// DiffResult carries the raw diff text and the commit it was taken at.
type DiffResult struct {
	DiffText string
	HeadSHA  string
	BaseSHA  string
}

// Diff computes the unified diff between two refs. The returned text uses
// the same format as the hosted diff endpoint, so the parser downstream
// cannot tell the sources apart.
func (s *LocalSource) Diff(ctx context.Context, baseRef, targetRef string) (*DiffResult, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref: %w", err)
	}

	targetCommit, err := resolveCommit(repo, targetRef)
	if err != nil {
		return nil, fmt.Errorf("resolve target ref: %w", err)
	}

	patch, err := baseCommit.PatchContext(ctx, targetCommit)
	if err != nil {
		return nil, fmt.Errorf("compute patch: %w", err)
	}

	return &DiffResult{
		DiffText: patch.String(),
		HeadSHA:  targetCommit.Hash.String(),
		BaseSHA:  baseCommit.Hash.String(),
	}, nil
}

// CurrentBranch returns the name of the checked-out branch.
func (s *LocalSource) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := goGit.PlainOpenWithOptions(s.repoDir, &goGit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("open repo: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolve HEAD: %w", err)
	}
	name := head.Name()
	if name.IsBranch() {
		return name.Short(), nil
	}
	return "", fmt.Errorf("detached HEAD")
}

func resolveCommit(repo *goGit.Repository, ref string) (*object.Commit, error) {
	candidates := []string{
		ref,
		fmt.Sprintf("refs/heads/%s", ref),
		fmt.Sprintf("refs/remotes/origin/%s", ref),
	}

	var lastErr error
	for _, candidate := range candidates {
		hash, err := repo.ResolveRevision(plumbing.Revision(candidate))
		if err != nil {
			lastErr = err
			continue
		}
		return repo.CommitObject(*hash)
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("unable to resolve ref %s", ref)
}
