package cmd

import (
	"fmt"

	"github.com/brogergvhs/reciterd/internal/config"

	"github.com/spf13/cobra"
)

var forceRemove bool

var configRemoveCmd = &cobra.Command{
	Use:   "remove <label>",
	Short: "Remove a config (<config_label>)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label := args[0]
		out := cmd.OutOrStdout()

		active, _ := config.CurrentLabel()
		if label == active && !forceRemove {
			if !confirm(cmd, fmt.Sprintf("Config %q is currently active. Remove it anyway?", label)) {
				fmt.Fprintln(out, "Aborted.")
				return nil
			}
		}

		switched, err := config.RemoveConfig(label)
		if err != nil {
			return err
		}
		if switched {
			fmt.Fprintln(out, "Fallback switched to: Default")
		}

		fmt.Fprintf(out, "Removed configuration %q\n", label)
		return nil
	},
}

func init() {
	configRemoveCmd.Flags().BoolVarP(&forceRemove, "force", "f", false, "remove the active config without asking")
	configCmd.AddCommand(configRemoveCmd)
}
