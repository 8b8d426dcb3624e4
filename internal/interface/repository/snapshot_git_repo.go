package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// SnapshotCommitMessage is the message of every snapshot commit
const SnapshotCommitMessage = "Update flight data"

// GitOptions configures how snapshot commits are made and published
type GitOptions struct {
	RepoDir     string
	AuthorName  string
	AuthorEmail string
	Push        bool
	Remote      string
	Token       string
}

// GitSnapshotRepository stores the snapshot file inside a git work tree and commits
// every save that changes it
type GitSnapshotRepository struct {
	file    *FileSnapshotRepository
	options GitOptions
	logger  logger.Logger
}

// NewGitSnapshotRepository creates a git backed snapshot store. The snapshot path is
// resolved against the repository directory when relative.
func NewGitSnapshotRepository(snapshotPath string, options GitOptions, logger logger.Logger) *GitSnapshotRepository {
	if options.RepoDir == "" {
		options.RepoDir = "."
	}
	if options.Remote == "" {
		options.Remote = git.DefaultRemoteName
	}
	if !filepath.IsAbs(snapshotPath) {
		snapshotPath = filepath.Join(options.RepoDir, snapshotPath)
	}

	return &GitSnapshotRepository{
		file:    NewFileSnapshotRepository(snapshotPath),
		options: options,
		logger:  logger,
	}
}

// Load reads the snapshot from the work tree
func (r *GitSnapshotRepository) Load(ctx context.Context) (entity.Snapshot, error) {
	return r.file.Load(ctx)
}

// Save writes the snapshot file, then commits and optionally pushes it.
// A snapshot identical to the committed one produces no commit.
func (r *GitSnapshotRepository) Save(ctx context.Context, snapshot entity.Snapshot) error {
	if err := r.file.Save(ctx, snapshot); err != nil {
		return err
	}

	repo, err := git.PlainOpen(r.options.RepoDir)
	if err != nil {
		return fmt.Errorf("failed to open git repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	rel, err := r.relativePath(worktree.Filesystem.Root())
	if err != nil {
		return err
	}

	if _, err := worktree.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}

	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get worktree status: %w", err)
	}
	fileStatus, changed := status[rel]
	if !changed || fileStatus.Staging == git.Unmodified || fileStatus.Staging == git.Untracked {
		r.logger.Info("Snapshot unchanged, nothing to commit", "path", rel)
		return nil
	}

	signature := &object.Signature{
		Name:  r.options.AuthorName,
		Email: r.options.AuthorEmail,
		When:  time.Now(),
	}
	hash, err := worktree.Commit(SnapshotCommitMessage, &git.CommitOptions{
		Author:    signature,
		Committer: signature,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return nil
		}
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	r.logger.Info("Snapshot committed", "commit", hash.String(), "path", rel)

	if !r.options.Push {
		return nil
	}
	return r.push(ctx, repo)
}

func (r *GitSnapshotRepository) push(ctx context.Context, repo *git.Repository) error {
	pushOpts := &git.PushOptions{RemoteName: r.options.Remote}
	if r.options.Token != "" {
		pushOpts.Auth = &http.BasicAuth{Username: "x-access-token", Password: r.options.Token}
	}

	if err := repo.PushContext(ctx, pushOpts); err != nil {
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			return nil
		}
		return fmt.Errorf("failed to push snapshot to %s: %w", r.options.Remote, err)
	}

	r.logger.Info("Snapshot pushed", "remote", r.options.Remote)
	return nil
}

func (r *GitSnapshotRepository) relativePath(root string) (string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository root: %w", err)
	}
	absFile, err := filepath.Abs(r.file.Path())
	if err != nil {
		return "", fmt.Errorf("failed to resolve snapshot path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, absFile)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("snapshot path %s is outside repository %s", absFile, absRoot)
	}
	return filepath.ToSlash(rel), nil
}
