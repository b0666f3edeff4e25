package app

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/quantfoundry/mlgit/internal/versions"
	"github.com/quantfoundry/mlgit/pkg/registry"
)

var registerCmd = &cobra.Command{
	Use:   "register <model>",
	Short: "Initialize a model namespace with an empty version list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := buildClient()
		if err != nil {
			return err
		}
		return client.RegisterModel(cmd.Context(), token, args[0])
	},
}

var versionsCmd = &cobra.Command{
	Use:   "versions <model>",
	Short: "List the logged versions of a model",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient()
		if err != nil {
			return err
		}
		ids, err := client.GetVersionList(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		latest := versions.Latest(ids)
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("VERSION", "LATEST")
		for _, id := range ids {
			marker := ""
			if id == latest {
				marker = "*"
			}
			if err := table.Append(id, marker); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Log and fetch serialized model versions",
}

var modelLogCmd = &cobra.Command{
	Use:   "log <model> <version> <file>",
	Short: "Push a model file as a new version and append it to the version list",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := buildClient()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[2])
		if err != nil {
			return fmt.Errorf("failed to read model file: %w", err)
		}
		return client.LogModelVersion(cmd.Context(), token, &registry.RawModel{Data: data}, args[0], args[1])
	},
}

var modelGetCmd = &cobra.Command{
	Use:   "get <model> <version> <out-file>",
	Short: "Fetch a model version into a local file",
	Long: `Fetch a model version into a local file.

The version "latest" resolves to the greatest logged version id.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient()
		if err != nil {
			return err
		}

		version := args[1]
		if version == "latest" {
			ids, err := client.GetVersionList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			version = versions.Latest(ids)
			if version == "" {
				return fmt.Errorf("model %q has no logged versions", args[0])
			}
		}

		model, err := client.GetModelVersion(cmd.Context(), args[0], version)
		if err != nil {
			return err
		}
		raw, ok := model.(*registry.RawModel)
		if !ok {
			return fmt.Errorf("unexpected model type %T", model)
		}
		return os.WriteFile(args[2], raw.Data, 0600)
	},
}

func init() {
	modelCmd.AddCommand(modelLogCmd)
	modelCmd.AddCommand(modelGetCmd)
}
