package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lodestonemc/lodestone/internal/style"
	"github.com/lodestonemc/lodestone/internal/versions"
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List locally registered versions",
	Long:  `List the version descriptors registered in the data directory.`,
	RunE:  runVersions,
}

func init() {
	rootCmd.AddCommand(versionsCmd)

	versionsCmd.Flags().String("dir", "", "data directory (default is $HOME/.lodestone)")
}

func runVersions(cmd *cobra.Command, args []string) error {
	dirFlag, _ := cmd.Flags().GetString("dir")
	dir, err := dataDir(dirFlag)
	if err != nil {
		return err
	}

	registry, err := versions.NewRegistry(dir)
	if err != nil {
		return err
	}
	ids, err := registry.List()
	if err != nil {
		return err
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), ids)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), ids)
	default:
		if len(ids) == 0 {
			style.Info(cmd.OutOrStdout(), "No versions registered")
			return nil
		}
		rows := make([][]string, 0, len(ids))
		for _, id := range ids {
			rows = append(rows, []string{id})
		}
		printTable(cmd.OutOrStdout(), []string{"VERSION"}, rows)
	}
	return nil
}
