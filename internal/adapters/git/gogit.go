// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.Repository interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/caravel-ci/gitver/internal/domain"
)

// Logger defines the logging interface for the git adapter.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitRepository implements domain.Repository using go-git/v5.
// It never mutates the repository.
type GoGitRepository struct {
	repo   *gogit.Repository
	path   string
	logger Logger
}

// Open locates and opens the git repository containing path, walking up
// parent directories the way the git CLI does.
// Returns domain.ErrRepositoryNotFound (annotated with the searched path)
// when no repository root can be located.
func Open(path string, log Logger) (*GoGitRepository, error) {
	repo, err := gogit.PlainOpenWithOptions(path, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, domain.WrapRepositoryNotFound(path)
	}

	return &GoGitRepository{
		repo:   repo,
		path:   path,
		logger: log,
	}, nil
}

// NewFromRepository wraps an already-open go-git repository. Used by tests
// that build repositories in memory.
func NewFromRepository(repo *gogit.Repository, log Logger) *GoGitRepository {
	return &GoGitRepository{repo: repo, logger: log}
}

// CurrentBranch returns the checked-out branch name.
// Logs a warning and returns an empty string when HEAD is detached.
func (r *GoGitRepository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return "", fmt.Errorf("failed to get HEAD: %w", domain.ErrNoCommits)
		}
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}

	if !head.Name().IsBranch() {
		r.logger.Warn(context.Background(), "HEAD is detached; branch name will be empty", map[string]interface{}{
			"head_sha": head.Hash().String(),
			"path":     r.path,
		})
		return "", nil
	}

	return head.Name().Short(), nil
}

// Head returns the current commit.
func (r *GoGitRepository) Head() (domain.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return domain.Commit{}, fmt.Errorf("failed to get HEAD: %w", domain.ErrNoCommits)
		}
		return domain.Commit{}, fmt.Errorf("failed to get HEAD: %w", err)
	}

	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return domain.Commit{}, fmt.Errorf("failed to get commit object for HEAD: %w", err)
	}

	return toDomainCommit(commit), nil
}

// IsDirty reports whether the working tree has uncommitted changes.
// Bare repositories are reported clean.
func (r *GoGitRepository) IsDirty() (bool, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		if errors.Is(err, gogit.ErrIsBareRepository) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}

	return !status.IsClean(), nil
}

// Tags lists all tags with their target commits. Annotated tags are peeled
// to the commit they point at; tags targeting non-commit objects are
// skipped with a debug log.
func (r *GoGitRepository) Tags() ([]domain.Tag, error) {
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var tags []domain.Tag
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()
		if tagObj, tagErr := r.repo.TagObject(target); tagErr == nil {
			target = tagObj.Target
		}

		commit, commitErr := r.repo.CommitObject(target)
		if commitErr != nil {
			r.logger.Debug(context.Background(), "skipping tag with non-commit target", map[string]interface{}{
				"tag":    ref.Name().Short(),
				"target": target.String(),
			})
			return nil
		}

		tags = append(tags, domain.Tag{
			Name:   ref.Name().Short(),
			Commit: toDomainCommit(commit),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk tags: %w", err)
	}

	return tags, nil
}

// CommitsBetween returns the commits reachable from 'to' but not from
// 'from', newest first. An empty 'from' walks the full history.
func (r *GoGitRepository) CommitsBetween(ctx context.Context, from, to string) ([]domain.Commit, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get commit object %s: %w", to, err)
	}

	var ignore []plumbing.Hash
	if from != "" {
		ignore = append(ignore, plumbing.NewHash(from))
	}

	var commits []domain.Commit
	iter := object.NewCommitIterCTime(commit, nil, ignore)
	err = iter.ForEach(func(c *object.Commit) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		commits = append(commits, toDomainCommit(c))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}

	return commits, nil
}

// FirstCommit returns the root commit of the current history.
func (r *GoGitRepository) FirstCommit(ctx context.Context) (domain.Commit, error) {
	head, err := r.Head()
	if err != nil {
		return domain.Commit{}, err
	}

	commits, err := r.CommitsBetween(ctx, "", head.SHA)
	if err != nil {
		return domain.Commit{}, err
	}
	if len(commits) == 0 {
		return domain.Commit{}, domain.ErrNoCommits
	}

	return commits[len(commits)-1], nil
}

// RemoteURL returns the first URL of the origin remote, or an empty string
// when no remote is configured.
func (r *GoGitRepository) RemoteURL() (string, error) {
	remote, err := r.repo.Remote("origin")
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get origin remote: %w", err)
	}

	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", nil
	}
	return urls[0], nil
}

// GitDir returns the repository's git directory, used to place the cache
// directory next to the repository metadata. In linked worktrees and
// submodules ".git" is a pointer file instead of a directory; it is
// followed to the real git directory.
func (r *GoGitRepository) GitDir() string {
	dir := r.path
	for dir != "" {
		gitPath := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitPath); err == nil {
			if info.IsDir() {
				return gitPath
			}
			if target, ok := readGitDirPointer(gitPath); ok {
				return target
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return filepath.Join(r.path, ".git")
}

// readGitDirPointer resolves a ".git" pointer file of the form
// "gitdir: <path>". Relative targets are resolved against the file's
// directory.
func readGitDirPointer(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(data)), "gitdir:")
	if !ok {
		return "", false
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return target, true
}

func toDomainCommit(c *object.Commit) domain.Commit {
	return domain.Commit{
		SHA:     c.Hash.String(),
		Message: c.Message,
		Date:    c.Committer.When,
	}
}
