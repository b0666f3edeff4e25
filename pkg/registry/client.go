package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/quantfoundry/mlgit/internal/httpclient"
	"github.com/quantfoundry/mlgit/internal/staging"
	"github.com/quantfoundry/mlgit/pkg/table"
)

const (
	// versionListArtifact is the JSON index of version ids kept per model.
	versionListArtifact = "versions"

	// modelFileName is the serialized model artifact inside a version
	// directory.
	modelFileName = "model"

	// versionPushTimeout bounds the directory push when logging a model
	// version.
	versionPushTimeout = 120 * time.Second
)

// Client reads and writes a model registry hosted on a version-control
// repository. It holds no state between calls beyond its configuration; all
// remote operations go through the RemoteStore collaborator.
type Client struct {
	account  string
	repo     string
	rootPath string

	store      RemoteStore
	serializer Serializer
	fetcher    Fetcher
}

// Option configures a Client.
type Option func(*Client)

// WithRootPath sets the registry root path under which all models live.
func WithRootPath(root string) Option {
	return func(c *Client) { c.rootPath = root }
}

// WithSerializer sets the model serialization collaborator, required by the
// model version operations.
func WithSerializer(s Serializer) Option {
	return func(c *Client) { c.serializer = s }
}

// WithFetcher overrides the HTTP fetcher used for tabular reads.
func WithFetcher(f Fetcher) Option {
	return func(c *Client) { c.fetcher = f }
}

// New creates a registry client for the given hosting account and
// repository, delegating transport to the store.
func New(account, repo string, store RemoteStore, opts ...Option) (*Client, error) {
	if account == "" {
		return nil, fmt.Errorf("account is required")
	}
	if repo == "" {
		return nil, fmt.Errorf("repo is required")
	}
	if store == nil {
		return nil, fmt.Errorf("remote store is required")
	}
	c := &Client{
		account: account,
		repo:    repo,
		store:   store,
		fetcher: httpclient.NewDefaultClient(0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ModelRemotePath joins the non-empty elements of [registry root, model
// name, model version, artifact name] with '/'. The model name is
// mandatory.
func (c *Client) ModelRemotePath(modelName, modelVersion, artifactName string) (string, error) {
	if modelName == "" {
		return "", ErrModelNameRequired
	}
	segments := make([]string, 0, 4)
	for _, segment := range []string{c.rootPath, modelName, modelVersion, artifactName} {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	return strings.Join(segments, "/"), nil
}

// GetVersionList returns the version ids logged for the model, in log
// order. It wraps ErrNotFound when the model was never registered.
func (c *Client) GetVersionList(ctx context.Context, modelName string) ([]string, error) {
	raw, err := c.GetJSONArtifact(ctx, versionListArtifact, modelName, "")
	if err != nil {
		return nil, err
	}
	entries, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("version list for model %q is not a JSON array", modelName)
	}
	versions := make([]string, 0, len(entries))
	for _, entry := range entries {
		id, ok := entry.(string)
		if !ok {
			return nil, fmt.Errorf("version list for model %q contains a non-string entry", modelName)
		}
		versions = append(versions, id)
	}
	return versions, nil
}

// GetJSONArtifact reads <artifactName>.json under the computed path and
// returns it parsed, any shape.
func (c *Client) GetJSONArtifact(ctx context.Context, artifactName, modelName, modelVersion string) (any, error) {
	remotePath, err := c.ModelRemotePath(modelName, modelVersion, artifactName+".json")
	if err != nil {
		return nil, err
	}
	data, err := c.store.ReadFile(ctx, c.account, c.repo, remotePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", remotePath, err)
	}
	var artifact any
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", remotePath, err)
	}
	return artifact, nil
}

// GetTableArtifact reads <artifactName>.csv under the computed path as a
// table, honoring the caller's parse options unchanged.
func (c *Client) GetTableArtifact(ctx context.Context, artifactName, modelName, modelVersion string, opts table.ReadOptions) (*table.Table, error) {
	remotePath, err := c.ModelRemotePath(modelName, modelVersion, artifactName+".csv")
	if err != nil {
		return nil, err
	}
	url := c.store.FileURL(c.account, c.repo, remotePath)
	data, err := c.fetcher.Get(ctx, url)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%s: %w", remotePath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", remotePath, err)
	}
	t, err := table.DecodeBytes(data, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", remotePath, err)
	}
	return t, nil
}

// GetModelVersion pulls the remote version directory into a fresh temp
// directory, restores the model artifact from it, and removes the
// directory whether or not the restore succeeded.
func (c *Client) GetModelVersion(ctx context.Context, modelName, modelVersion string) (Model, error) {
	if c.serializer == nil {
		return nil, fmt.Errorf("no serializer configured")
	}
	remotePath, err := c.ModelRemotePath(modelName, modelVersion, "")
	if err != nil {
		return nil, err
	}

	dir, cleanup, err := staging.TempDir("mlgit-version-")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if err := c.store.PullDirectory(ctx, c.account, c.repo, remotePath, dir); err != nil {
		return nil, fmt.Errorf("failed to pull %s: %w", remotePath, err)
	}
	model, err := c.serializer.Restore(filepath.Join(dir, modelFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to restore model %s/%s: %w", modelName, modelVersion, err)
	}
	return model, nil
}

// RegisterModel initializes the model namespace by writing an empty
// version list.
func (c *Client) RegisterModel(ctx context.Context, token, modelName string) error {
	return c.LogJSONArtifact(ctx, token, []string{}, versionListArtifact, modelName, "")
}

// LogArtifact pushes one local file to the computed remote directory.
func (c *Client) LogArtifact(ctx context.Context, token, localPath, modelName, modelVersion string) error {
	remoteDir, err := c.ModelRemotePath(modelName, modelVersion, "")
	if err != nil {
		return err
	}
	slog.Debug("Pushing artifact", "local", localPath, "remote", remoteDir)
	if err := c.store.PushFiles(ctx, token, c.repo, []string{localPath}, remoteDir); err != nil {
		return fmt.Errorf("failed to push %s to %s: %w", localPath, remoteDir, err)
	}
	return nil
}

// LogJSONArtifact stages the value as <artifactName>.json in the working
// directory, pushes it, and removes the staging file on every path.
func (c *Client) LogJSONArtifact(ctx context.Context, token string, artifact any, artifactName, modelName, modelVersion string) error {
	path, cleanup, err := staging.JSONFile(artifactName, artifact)
	if err != nil {
		return err
	}
	defer cleanup()
	return c.LogArtifact(ctx, token, path, modelName, modelVersion)
}

// LogTableArtifact stages the table as <artifactName>.csv in the working
// directory, pushes it, and removes the staging file on every path.
func (c *Client) LogTableArtifact(ctx context.Context, token string, t *table.Table, artifactName, modelName, modelVersion string, opts table.WriteOptions) error {
	path, cleanup, err := staging.CSVFile(artifactName, t, opts)
	if err != nil {
		return err
	}
	defer cleanup()
	return c.LogArtifact(ctx, token, path, modelName, modelVersion)
}

// LogModelVersion serializes the model into a staging directory named after
// the version, pushes the whole directory, and only then appends the
// version id to the version list. A failure between push and index update
// leaves the version pushed but unlisted, never listed but missing.
func (c *Client) LogModelVersion(ctx context.Context, token string, model Model, modelName, modelVersion string) error {
	if c.serializer == nil {
		return fmt.Errorf("no serializer configured")
	}
	remotePath, err := c.ModelRemotePath(modelName, modelVersion, "")
	if err != nil {
		return err
	}

	dir, modelPath, cleanup, err := staging.VersionDir(modelVersion)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := c.serializer.Save(model, modelPath); err != nil {
		return fmt.Errorf("failed to serialize model %s/%s: %w", modelName, modelVersion, err)
	}
	slog.Debug("Pushing model version", "model", modelName, "version", modelVersion, "remote", remotePath)
	if err := c.store.PushDirectory(ctx, token, c.repo, dir, remotePath, versionPushTimeout); err != nil {
		return fmt.Errorf("failed to push model version %s/%s: %w", modelName, modelVersion, err)
	}

	versions, err := c.GetVersionList(ctx, modelName)
	if err != nil {
		return fmt.Errorf("failed to read version list for %s: %w", modelName, err)
	}
	versions = append(versions, modelVersion)
	return c.LogJSONArtifact(ctx, token, versions, versionListArtifact, modelName, "")
}
