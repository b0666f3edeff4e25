package registry

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by the registry client.
var (
	// ErrNotFound reports that a remote path does not exist: an
	// uninitialized model, an unregistered version, or a never-logged
	// backtest.
	ErrNotFound = errors.New("not found")

	// ErrModelNameRequired reports a call without the mandatory model name.
	ErrModelNameRequired = errors.New("model name is required")
)

// RemoteStore is the version-control transport collaborator. Implementations
// own authentication, retries and timeouts; the client performs none of
// those itself.
type RemoteStore interface {
	// ReadFile returns the content of a single remote file. It wraps
	// ErrNotFound when the path is absent.
	ReadFile(ctx context.Context, account, repo, path string) ([]byte, error)

	// FileURL returns a fetchable locator for a remote file, used for
	// streaming tabular reads.
	FileURL(account, repo, path string) string

	// PullDirectory copies a remote directory tree into localDest. It wraps
	// ErrNotFound when nothing exists under the remote path.
	PullDirectory(ctx context.Context, account, repo, remotePath, localDest string) error

	// PushDirectory uploads a local directory tree to the remote path,
	// bounded by the given timeout.
	PushDirectory(ctx context.Context, token, repo, localSrc, remotePath string, timeout time.Duration) error

	// PushFiles uploads individual local files into the remote directory.
	PushFiles(ctx context.Context, token, repo string, localPaths []string, remoteDir string) error
}

// Fetcher retrieves the content behind a web locator produced by
// RemoteStore.FileURL.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}
