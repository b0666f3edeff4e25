// Package git implements the registry's remote store on go-git: single-file
// reads and directory pulls come from shallow in-memory clones, pushes go
// through a temporary working clone with a single commit.
package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/storage/filesystem"

	"github.com/quantfoundry/mlgit/pkg/registry"
)

const (
	defaultBaseURL    = "https://github.com"
	defaultRawBaseURL = "https://raw.githubusercontent.com"
	defaultBranch     = "main"

	maxCloneFiles     = 10 * 1000
	maxCloneTotalSize = 100 * 1024 * 1024
)

// Store is a go-git backed registry.RemoteStore.
type Store struct {
	baseURL    string
	rawBaseURL string
	branch     string

	// account owns the repositories targeted by push operations; the
	// collaborator contract identifies pushes by token and repo only.
	account string

	author authorInfo
}

type authorInfo struct {
	name  string
	email string
}

// Option configures a Store.
type Option func(*Store)

// WithBaseURL sets the clone/push URL base (or a local directory for
// file-based repositories).
func WithBaseURL(base string) Option {
	return func(s *Store) { s.baseURL = base }
}

// WithRawBaseURL sets the base of web locators returned by FileURL.
func WithRawBaseURL(base string) Option {
	return func(s *Store) { s.rawBaseURL = base }
}

// WithBranch sets the branch read from and pushed to.
func WithBranch(branch string) Option {
	return func(s *Store) { s.branch = branch }
}

// WithAccount sets the hosting account that owns pushed repositories.
func WithAccount(account string) Option {
	return func(s *Store) { s.account = account }
}

// WithAuthor sets the commit author recorded on pushes.
func WithAuthor(name, email string) Option {
	return func(s *Store) { s.author = authorInfo{name: name, email: email} }
}

// NewStore creates a Store targeting github.com unless overridden.
func NewStore(opts ...Option) *Store {
	s := &Store{
		baseURL:    defaultBaseURL,
		rawBaseURL: defaultRawBaseURL,
		branch:     defaultBranch,
		author:     authorInfo{name: "mlgit", email: "mlgit@localhost"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) repoURL(account, repo string) string {
	return fmt.Sprintf("%s/%s/%s.git", s.baseURL, account, repo)
}

func (s *Store) auth(token string) *githttp.BasicAuth {
	if token == "" {
		return nil
	}
	return &githttp.BasicAuth{Username: "x-access-token", Password: token}
}

// FileURL returns the raw-content locator for a remote file.
func (s *Store) FileURL(account, repo, remotePath string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", s.rawBaseURL, account, repo, s.branch, remotePath)
}

// ReadFile returns the content of a single file at the store's branch head.
func (s *Store) ReadFile(ctx context.Context, account, repo, remotePath string) ([]byte, error) {
	commit, cleanup, err := s.cloneForRead(ctx, account, repo)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to get tree: %w", err)
	}
	file, err := tree.File(remotePath)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s: %w", remotePath, registry.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get file %s: %w", remotePath, err)
	}
	content, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	return []byte(content), nil
}

// PullDirectory copies every file under the remote path into localDest,
// preserving the relative layout.
func (s *Store) PullDirectory(ctx context.Context, account, repo, remotePath, localDest string) error {
	commit, cleanup, err := s.cloneForRead(ctx, account, repo)
	if err != nil {
		return err
	}
	defer cleanup()

	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("failed to get tree: %w", err)
	}

	prefix := strings.TrimSuffix(remotePath, "/") + "/"
	pulled := 0
	iter := tree.Files()
	defer iter.Close()
	err = iter.ForEach(func(f *object.File) error {
		if !strings.HasPrefix(f.Name, prefix) {
			return nil
		}
		rel := strings.TrimPrefix(f.Name, prefix)
		dest := filepath.Join(localDest, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
		}
		reader, err := f.Reader()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}
		defer reader.Close()
		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", dest, err)
		}
		if _, err := io.Copy(out, reader); err != nil {
			_ = out.Close()
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to close %s: %w", dest, err)
		}
		pulled++
		return nil
	})
	if err != nil {
		return err
	}
	if pulled == 0 {
		return fmt.Errorf("%s: %w", remotePath, registry.ErrNotFound)
	}
	slog.Debug("Pulled remote directory", "remote", remotePath, "files", pulled)
	return nil
}

// PushDirectory uploads a local directory tree under the remote path,
// bounded by the given timeout.
func (s *Store) PushDirectory(ctx context.Context, token, repo, localSrc, remotePath string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return s.commitAndPush(ctx, token, repo, func(worktreeDir string) ([]string, error) {
		var staged []string
		err := filepath.Walk(localSrc, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(localSrc, p)
			if err != nil {
				return err
			}
			target := path.Join(remotePath, filepath.ToSlash(rel))
			if err := copyIntoWorktree(p, worktreeDir, target); err != nil {
				return err
			}
			staged = append(staged, target)
			return nil
		})
		return staged, err
	})
}

// PushFiles uploads individual local files into the remote directory.
func (s *Store) PushFiles(ctx context.Context, token, repo string, localPaths []string, remoteDir string) error {
	return s.commitAndPush(ctx, token, repo, func(worktreeDir string) ([]string, error) {
		staged := make([]string, 0, len(localPaths))
		for _, local := range localPaths {
			target := path.Join(remoteDir, filepath.Base(local))
			if err := copyIntoWorktree(local, worktreeDir, target); err != nil {
				return nil, err
			}
			staged = append(staged, target)
		}
		return staged, nil
	})
}

// commitAndPush clones the repository into a temporary working directory,
// lets stage place files into it, then commits and pushes them.
func (s *Store) commitAndPush(ctx context.Context, token, repo string, stage func(worktreeDir string) ([]string, error)) error {
	workDir, err := os.MkdirTemp("", "mlgit-push-")
	if err != nil {
		return fmt.Errorf("failed to create working clone directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			slog.Warn("Failed to remove working clone", "dir", workDir, "error", err)
		}
	}()

	auth := s.auth(token)
	gitRepo, err := git.PlainCloneContext(ctx, workDir, false, &git.CloneOptions{
		URL:           s.repoURL(s.account, repo),
		Auth:          auth,
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}
	worktree, err := gitRepo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	staged, err := stage(workDir)
	if err != nil {
		return err
	}
	for _, rel := range staged {
		if _, err := worktree.Add(filepath.FromSlash(rel)); err != nil {
			return fmt.Errorf("failed to add %s: %w", rel, err)
		}
	}

	_, err = worktree.Commit(fmt.Sprintf("Update registry (%d files)", len(staged)), &git.CommitOptions{
		Author: &object.Signature{
			Name:  s.author.name,
			Email: s.author.email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	if err := gitRepo.PushContext(ctx, &git.PushOptions{Auth: auth}); err != nil {
		return fmt.Errorf("failed to push: %w", err)
	}
	slog.Debug("Pushed registry update", "repo", repo, "files", len(staged))
	return nil
}

func copyIntoWorktree(localPath, worktreeDir, target string) error {
	dest := filepath.Join(worktreeDir, filepath.FromSlash(target))
	if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(dest), err)
	}
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", localPath, err)
	}
	defer src.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", localPath, err)
	}
	return out.Close()
}

// cloneForRead shallow-clones the branch head into bounded in-memory
// filesystems and returns the head commit plus a cleanup releasing them.
func (s *Store) cloneForRead(ctx context.Context, account, repo string) (*object.Commit, func(), error) {
	memFS := NewLimitedFs(memfs.New(), maxCloneFiles, maxCloneTotalSize)
	storerFS := NewLimitedFs(memfs.New(), maxCloneFiles, maxCloneTotalSize)
	storerCache := cache.NewObjectLRUDefault()
	storer := filesystem.NewStorage(storerFS, storerCache)

	gitRepo, err := git.CloneContext(ctx, storer, memFS, &git.CloneOptions{
		URL:           s.repoURL(account, repo),
		ReferenceName: plumbing.NewBranchReferenceName(s.branch),
		SingleBranch:  true,
		Depth:         1,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to clone repository: %w", err)
	}

	cleanup := func() {
		storerCache.Clear()
		_ = util.RemoveAll(memFS, "/")
		_ = util.RemoveAll(storerFS, "/")
		runtime.GC()
	}

	ref, err := gitRepo.Head()
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get HEAD reference: %w", err)
	}
	commit, err := gitRepo.CommitObject(ref.Hash())
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to get commit object: %w", err)
	}
	return commit, cleanup, nil
}
