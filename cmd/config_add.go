package cmd

import (
	"fmt"

	"github.com/brogergvhs/reciterd/internal/config"

	"github.com/spf13/cobra"
)

var flagAddFrom string

var configAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a new config with default values, or copied from --from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.CreateConfig(args[0], flagAddFrom)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created new config: %s\n", path)
		return nil
	},
}

func init() {
	configAddCmd.Flags().StringVar(&flagAddFrom, "from", "", "YAML file to copy settings from")
	configCmd.AddCommand(configAddCmd)
}
