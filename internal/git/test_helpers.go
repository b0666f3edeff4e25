package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CreateTestRepo creates a bare repository at <base>/<account>/<repo>.git
// seeded with the given files on main, matching the layout the Store
// expects under its base URL.
func CreateTestRepo(t *testing.T, base, account, repo string, files map[string]string) string {
	t.Helper()

	barePath := filepath.Join(base, account, repo+".git")
	if err := os.MkdirAll(filepath.Dir(barePath), 0750); err != nil {
		t.Fatalf("Failed to create repo parent dir: %v", err)
	}
	if _, err := git.PlainInitWithOptions(barePath, &git.PlainInitOptions{
		Bare:        true,
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	}); err != nil {
		t.Fatalf("Failed to init bare repository: %v", err)
	}

	workDir := t.TempDir()
	workRepo, err := git.PlainInitWithOptions(workDir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.Main},
	})
	if err != nil {
		t.Fatalf("Failed to init working repository: %v", err)
	}
	if _, err := workRepo.CreateRemote(&config.RemoteConfig{
		Name: "origin",
		URLs: []string{barePath},
	}); err != nil {
		t.Fatalf("Failed to create remote: %v", err)
	}

	workTree, err := workRepo.Worktree()
	if err != nil {
		t.Fatalf("Failed to get worktree: %v", err)
	}
	for filename, content := range files {
		filePath := filepath.Join(workDir, filepath.FromSlash(filename))
		if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
			t.Fatalf("Failed to create directory for %s: %v", filename, err)
		}
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write file %s: %v", filename, err)
		}
		if _, err := workTree.Add(filepath.FromSlash(filename)); err != nil {
			t.Fatalf("Failed to add file %s: %v", filename, err)
		}
	}
	if _, err := workTree.Commit("Initial commit", &git.CommitOptions{
		AllowEmptyCommits: true,
		Author: &object.Signature{
			Name:  "Test Author",
			Email: "test@example.com",
			When:  time.Now(),
		},
	}); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if err := workRepo.Push(&git.PushOptions{RemoteName: "origin"}); err != nil {
		t.Fatalf("Failed to push seed commit: %v", err)
	}

	return barePath
}
