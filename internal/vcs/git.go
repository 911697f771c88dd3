// Package vcs wraps the git CLI for the checkpoint/handoff commit step
// (§4.C). There is no third-party git library anywhere in the reference
// corpus; every example that touches version control shells out to the
// git binary, so this stays on os/exec rather than inventing a dependency.
package vcs

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/DEVCOACH/internal/domain"
)

// Git runs commands against a single repository checkout.
type Git struct {
	repoPath string
}

// New returns a Git bound to repoPath.
func New(repoPath string) *Git {
	return &Git{repoPath: repoPath}
}

func (g *Git) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = g.repoPath

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", domain.Wrap(domain.ErrExternalTool,
			fmt.Sprintf("git %s failed", strings.Join(args, " ")),
			fmt.Errorf("%w: %s", err, output))
	}
	return strings.TrimSpace(string(output)), nil
}

// CurrentBranch returns the checked-out branch name.
func (g *Git) CurrentBranch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

// HasUncommittedChanges reports whether the working tree is dirty.
func (g *Git) HasUncommittedChanges() (bool, error) {
	output, err := g.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return output != "", nil
}

// UncommittedFileCount returns the number of files with uncommitted
// changes, for the reality checker's state-drift check (§4.E).
func (g *Git) UncommittedFileCount() (int, error) {
	output, err := g.run("status", "--porcelain")
	if err != nil {
		return 0, err
	}
	if output == "" {
		return 0, nil
	}
	return strings.Count(output, "\n") + 1, nil
}

// HeadHash returns the current commit hash.
func (g *Git) HeadHash() (string, error) {
	return g.run("rev-parse", "HEAD")
}

// Commit stages everything in the tree and commits with message, returning
// the resulting commit hash. Used by session checkpoint/handoff when a
// commit_message is supplied (§4.C).
func (g *Git) Commit(message string) (string, error) {
	if _, err := g.run("add", "-A"); err != nil {
		return "", err
	}
	if _, err := g.run("commit", "-m", message); err != nil {
		return "", err
	}
	return g.HeadHash()
}
