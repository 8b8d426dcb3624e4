package repository

import (
	"context"
	"path/filepath"
	"testing"

	"flightwatch-service/internal/domain/entity"
	"flightwatch-service/pkg/logger"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitLog(t *testing.T, dir string) []*object.Commit {
	t.Helper()

	repo, err := git.PlainOpen(dir)
	require.NoError(t, err)

	iter, err := repo.Log(&git.LogOptions{})
	require.NoError(t, err)

	var commits []*object.Commit
	require.NoError(t, iter.ForEach(func(c *object.Commit) error {
		commits = append(commits, c)
		return nil
	}))
	return commits
}

func newGitStore(t *testing.T) (*GitSnapshotRepository, string) {
	t.Helper()

	dir := t.TempDir()
	_, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	store := NewGitSnapshotRepository("data/flight_data.json", GitOptions{
		RepoDir:     dir,
		AuthorName:  "GitHub Action",
		AuthorEmail: "action@github.com",
	}, logger.NewNopLogger())
	return store, dir
}

func TestGitSnapshotRepository_CommitsChanges(t *testing.T) {
	store, dir := newGitStore(t)
	ctx := context.Background()

	_, err := store.Load(ctx)
	assert.ErrorIs(t, err, entity.ErrSnapshotNotFound)

	require.NoError(t, store.Save(ctx, sampleSnapshot()))

	commits := commitLog(t, dir)
	require.Len(t, commits, 1)
	assert.Equal(t, SnapshotCommitMessage, commits[0].Message)
	assert.Equal(t, "GitHub Action", commits[0].Author.Name)
	assert.Equal(t, "action@github.com", commits[0].Author.Email)

	file, err := commits[0].File("data/flight_data.json")
	require.NoError(t, err)
	contents, err := file.Contents()
	require.NoError(t, err)
	assert.Contains(t, contents, "TK827-2024-05-01")

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), loaded)
}

func TestGitSnapshotRepository_NothingToCommit(t *testing.T) {
	store, dir := newGitStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	require.NoError(t, store.Save(ctx, sampleSnapshot()))
	assert.Len(t, commitLog(t, dir), 1)

	changed := sampleSnapshot()
	record := changed["TK827-2024-05-01"]
	record.Status = "Departed"
	changed["TK827-2024-05-01"] = record

	require.NoError(t, store.Save(ctx, changed))
	assert.Len(t, commitLog(t, dir), 2)
}

func TestGitSnapshotRepository_NotARepository(t *testing.T) {
	dir := t.TempDir()
	store := NewGitSnapshotRepository(filepath.Join(dir, "flight_data.json"), GitOptions{RepoDir: dir}, logger.NewNopLogger())

	err := store.Save(context.Background(), sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open git repository")
}
