package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Log and fetch JSON and file artifacts",
}

var artifactGetCmd = &cobra.Command{
	Use:   "get <model> <artifact>",
	Short: "Fetch a JSON artifact and print it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := buildClient()
		if err != nil {
			return err
		}
		version, err := cmd.Flags().GetString("model-version")
		if err != nil {
			return err
		}
		artifact, err := client.GetJSONArtifact(cmd.Context(), args[1], args[0], version)
		if err != nil {
			return err
		}

		output, err := json.MarshalIndent(artifact, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format artifact: %w", err)
		}
		path, err := cmd.Flags().GetString("path")
		if err != nil {
			return err
		}
		if path != "" {
			result := gjson.GetBytes(output, path)
			if !result.Exists() {
				return fmt.Errorf("path %q not present in artifact", path)
			}
			fmt.Println(result.String())
			return nil
		}
		fmt.Println(string(output))
		return nil
	},
}

var artifactLogCmd = &cobra.Command{
	Use:   "log <model> <file>",
	Short: "Push a local file as a model artifact",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, token, err := buildClient()
		if err != nil {
			return err
		}
		version, err := cmd.Flags().GetString("model-version")
		if err != nil {
			return err
		}
		return client.LogArtifact(cmd.Context(), token, args[1], args[0], version)
	},
}

func init() {
	artifactGetCmd.Flags().String("model-version", "", "Read the artifact under this model version")
	artifactGetCmd.Flags().String("path", "", "Print only the value at this JSON path")
	artifactLogCmd.Flags().String("model-version", "", "Log the artifact under this model version")

	artifactCmd.AddCommand(artifactGetCmd)
	artifactCmd.AddCommand(artifactLogCmd)
}
