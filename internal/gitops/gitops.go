// Package gitops records export output in a git repository.
package gitops

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the paths have no changes.
var ErrNothingToCommit = errors.New("nothing to commit")

// Author identifies who commits.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Init initializes a new git repository at dir.
func Init(dir string) error {
	if out, err := git(dir, "init"); err != nil {
		return fmt.Errorf("git init: %s: %w", out, err)
	}
	return nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	out, err := git(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// Commit stages paths (relative to dir or absolute) and commits them.
// It returns the short hash, or ErrNothingToCommit when the paths are
// unchanged.
func Commit(dir string, paths []string, message string, author Author) (string, error) {
	if len(paths) == 0 {
		return "", ErrNothingToCommit
	}

	add := append([]string{"add", "--"}, paths...)
	if out, err := git(dir, add...); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	diff := append([]string{"diff", "--cached", "--quiet", "--"}, paths...)
	if _, err := git(dir, diff...); err == nil {
		return "", ErrNothingToCommit
	}

	commit := append([]string{
		"-c", "user.name=" + author.Name,
		"-c", "user.email=" + author.Email,
		"commit", "-m", message, "--author", author.String(), "--",
	}, paths...)
	if out, err := git(dir, commit...); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	out, err := git(dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func git(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}
