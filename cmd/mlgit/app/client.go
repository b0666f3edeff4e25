package app

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/quantfoundry/mlgit/internal/config"
	"github.com/quantfoundry/mlgit/internal/git"
	"github.com/quantfoundry/mlgit/pkg/registry"
)

// buildClient loads the configuration and wires the registry client to the
// go-git store. The returned token resolves the --token flag first, then
// the configured environment variable.
func buildClient() (*registry.Client, string, error) {
	path := viper.GetString("config")
	if path == "" {
		return nil, "", fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(config.WithConfigPath(path))
	if err != nil {
		return nil, "", err
	}

	storeOpts := []git.Option{
		git.WithAccount(cfg.Account),
		git.WithBranch(cfg.Branch),
	}
	if cfg.BaseURL != "" {
		storeOpts = append(storeOpts, git.WithBaseURL(cfg.BaseURL))
	}
	if cfg.RawBaseURL != "" {
		storeOpts = append(storeOpts, git.WithRawBaseURL(cfg.RawBaseURL))
	}
	store := git.NewStore(storeOpts...)

	client, err := registry.New(cfg.Account, cfg.Repo, store,
		registry.WithRootPath(cfg.RegistryRoot),
		registry.WithSerializer(registry.NewFileSerializer(func() registry.Model {
			return &registry.RawModel{}
		})),
	)
	if err != nil {
		return nil, "", err
	}

	token := viper.GetString("token")
	if token == "" {
		token = cfg.Token()
	}
	return client, token, nil
}
