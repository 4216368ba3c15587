package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lodestonemc/lodestone/internal/installer"
	"github.com/lodestonemc/lodestone/internal/style"
	"github.com/lodestonemc/lodestone/internal/versions"
)

var installCmd = &cobra.Command{
	Use:   "install <installer.jar>",
	Short: "Register the version embedded in an installer archive",
	Long: `Process an installer archive (a modded-loader installer jar) and
register the version descriptor it carries.

Both profile layouts are understood: modern installers that point at a
descriptor document elsewhere in the archive, and legacy installers that
embed the descriptor inline. Nothing is registered unless the whole archive
processes cleanly.`,
	Example: `
  lode install forge-installer.jar
  lode install forge-installer.jar --dir ./game`,
	Args: cobra.ExactArgs(1),
	RunE: runInstall,
}

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().String("dir", "", "data directory (default is $HOME/.lodestone)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	archivePath := args[0]
	dirFlag, _ := cmd.Flags().GetString("dir")

	dir, err := dataDir(dirFlag)
	if err != nil {
		return err
	}
	registry, err := versions.NewRegistry(dir)
	if err != nil {
		return err
	}

	id, err := installer.Process(archivePath, registry)
	if err != nil {
		style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Processing %s failed: %s", archivePath, err))
		os.Exit(1)
	}

	style.Success(cmd.OutOrStdout(), fmt.Sprintf("Registered version %s", id))
	return nil
}
