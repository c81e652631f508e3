// Package testhelpers provides fixtures for tests that need a real git
// repository or a fake pull request host.
package testhelpers

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitRepo is a disposable git repository for tests.
type GitRepo struct {
	Dir string
}

// NewGitRepo initializes a new repository in dir with master as the default
// branch and a committer identity configured.
func NewGitRepo(dir string) (*GitRepo, error) {
	cmd := exec.Command("git", "-c", "core.autocrlf=false", "init", dir, "-b", "master")
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to init repo: %w", err)
	}

	repo := &GitRepo{Dir: dir}
	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// CloneGitRepo clones an existing repository (for example a bare remote)
// into dir, with the source registered as origin.
func CloneGitRepo(dir, source string) (*GitRepo, error) {
	cmd := exec.Command("git", "clone", source, dir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w\n%s", source, err, out)
	}

	repo := &GitRepo{Dir: dir}
	if err := repo.Git("config", "user.name", "Test User"); err != nil {
		return nil, err
	}
	if err := repo.Git("config", "user.email", "test@example.com"); err != nil {
		return nil, err
	}
	return repo, nil
}

// Git runs a git command in the repository.
func (r *GitRepo) Git(args ...string) error {
	_, err := r.GitOutput(args...)
	return err
}

// GitOutput runs a git command and returns its trimmed stdout.
func (r *GitRepo) GitOutput(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w\n%s", strings.Join(args, " "), err, out)
	}
	return strings.TrimSpace(string(out)), nil
}

// Commit writes content to a file and commits it with message.
func (r *GitRepo) Commit(file, content, message string) (string, error) {
	path := filepath.Join(r.Dir, file)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", err
	}
	if err := r.Git("add", file); err != nil {
		return "", err
	}
	if err := r.Git("commit", "-m", message); err != nil {
		return "", err
	}
	return r.Head()
}

// Head returns the current HEAD hash.
func (r *GitRepo) Head() (string, error) {
	return r.GitOutput("rev-parse", "HEAD")
}

// Tip returns the hash a branch points at.
func (r *GitRepo) Tip(branch string) (string, error) {
	return r.GitOutput("rev-parse", "refs/heads/"+branch)
}

// Checkout switches to an existing branch.
func (r *GitRepo) Checkout(branch string) error {
	return r.Git("checkout", branch)
}

// CheckoutNew creates and switches to a new branch.
func (r *GitRepo) CheckoutNew(branch string) error {
	return r.Git("checkout", "-b", branch)
}

// MessageOf returns the full commit message of a revision.
func (r *GitRepo) MessageOf(rev string) (string, error) {
	return r.GitOutput("log", "-1", "--format=%B", rev)
}

// AddBareRemote creates a bare sibling repository and registers it as a
// remote, so pushes in tests have somewhere real to go.
func (r *GitRepo) AddBareRemote(name string) (string, error) {
	bareDir := r.Dir + "-" + name + ".git"
	cmd := exec.Command("git", "init", "--bare", bareDir)
	cmd.Env = append(os.Environ(), "GIT_CONFIG_GLOBAL=/dev/null")
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to init bare remote: %w", err)
	}
	if err := r.Git("remote", "add", name, bareDir); err != nil {
		return "", err
	}
	return bareDir, nil
}
