package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lodestonemc/lodestone/internal/fetch"
	"github.com/lodestonemc/lodestone/internal/java"
	"github.com/lodestonemc/lodestone/internal/java/cache"
	"github.com/lodestonemc/lodestone/internal/platform"
	"github.com/lodestonemc/lodestone/internal/provision"
	"github.com/lodestonemc/lodestone/internal/rules"
	"github.com/lodestonemc/lodestone/internal/style"
	"github.com/lodestonemc/lodestone/internal/versions"
)

var provisionCmd = &cobra.Command{
	Use:   "provision <version-id>",
	Short: "Download and verify everything a version needs",
	Long: `Provision a Minecraft version end to end.

The version is looked up in the public version listing, its descriptor is
fetched and registered locally, and every artifact that applies to this
machine (client jar, libraries, natives) is downloaded, digest-checked, and
placed under the data directory. Natives are extracted, and the Java runtime
the version declares is installed if it is not already cached.

Artifacts already on disk with a matching digest are skipped, so re-running
the command only fetches what is missing or damaged.`,
	Example: `
  lode provision 1.21.4                  # Provision into ~/.lodestone
  lode provision 1.21.4 --dir ./game     # Provision into ./game
  lode provision 1.21.4 --workers 8      # More concurrent downloads`,
	Args: cobra.ExactArgs(1),
	RunE: runProvision,
}

func init() {
	rootCmd.AddCommand(provisionCmd)

	provisionCmd.Flags().String("dir", "", "data directory (default is $HOME/.lodestone)")
	provisionCmd.Flags().Int("workers", provision.DefaultWorkers, "concurrent artifact downloads")
	provisionCmd.Flags().Bool("skip-java", false, "don't install the declared Java runtime")
	provisionCmd.Flags().String("manifest-url", "", "override the version listing endpoint")
}

// provisionOutput is the machine-readable summary for --output json/yaml.
type provisionOutput struct {
	Version    string   `json:"version" yaml:"version"`
	Artifacts  int      `json:"artifacts" yaml:"artifacts"`
	Skipped    int      `json:"skipped" yaml:"skipped"`
	Failed     []string `json:"failed,omitempty" yaml:"failed,omitempty"`
	JavaHome   string   `json:"java_home,omitempty" yaml:"java_home,omitempty"`
	JavaSource string   `json:"java_source,omitempty" yaml:"java_source,omitempty"`
}

func runProvision(cmd *cobra.Command, args []string) error {
	versionID := args[0]
	dirFlag, _ := cmd.Flags().GetString("dir")
	workers, _ := cmd.Flags().GetInt("workers")
	skipJava, _ := cmd.Flags().GetBool("skip-java")
	manifestURL, _ := cmd.Flags().GetString("manifest-url")

	dir, err := dataDir(dirFlag)
	if err != nil {
		return err
	}

	svc, err := newProvisionService(dir, workers, skipJava, manifestURL)
	if err != nil {
		return err
	}

	sp := style.NewSpinner(cmd.ErrOrStderr())
	if !viper.GetBool("quiet") {
		sp.SetSuffix(fmt.Sprintf(" Provisioning %s...", versionID))
		sp.Start()
	}
	summary, err := svc.ProvisionVersion(cmd.Context(), versionID)
	sp.Stop()
	if err != nil {
		style.Error(cmd.ErrOrStderr(), fmt.Sprintf("Provisioning %s failed: %s", versionID, err))
		os.Exit(1)
	}

	reportProvision(cmd, summary)
	return nil
}

// newProvisionService wires the provisioning pipeline against dir.
func newProvisionService(dir string, workers int, skipJava bool, manifestURL string) (*provision.Service, error) {
	registry, err := versions.NewRegistry(dir)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher()

	var provisioner *java.Provisioner
	if !skipJava {
		rc, err := cache.New(viper.GetString("runtime-dir"))
		if err != nil {
			return nil, err
		}
		provisioner = java.NewProvisioner(fetcher, rc)
	}

	return &provision.Service{
		Fetcher:     fetcher,
		Registry:    registry,
		Java:        provisioner,
		Host:        rules.Host{Signature: platform.Detect()},
		Workers:     workers,
		ManifestURL: manifestURL,
	}, nil
}

func reportProvision(cmd *cobra.Command, summary *provision.Summary) {
	out := provisionOutput{
		Version:   summary.VersionID,
		Artifacts: len(summary.Report.Results),
	}
	for _, res := range summary.Report.Results {
		if res.Skipped {
			out.Skipped++
		}
	}
	for _, failed := range summary.Report.Failed() {
		out.Failed = append(out.Failed, fmt.Sprintf("%s: %s", failed.Artifact.Name, failed.Err))
	}
	if summary.Runtime != nil {
		out.JavaHome = summary.Runtime.Home
		out.JavaSource = string(summary.Runtime.Source)
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(cmd.OutOrStdout(), out)
	case "yaml":
		style.PrintYAML(cmd.OutOrStdout(), out)
	default:
		style.Success(cmd.OutOrStdout(), fmt.Sprintf("Provisioned %s (%d artifacts, %d already present)",
			out.Version, out.Artifacts, out.Skipped))
		for _, failure := range out.Failed {
			style.Warning(cmd.OutOrStdout(), failure)
		}
		if out.JavaHome != "" {
			style.Info(cmd.OutOrStdout(), fmt.Sprintf("Java runtime ready at %s (%s)", out.JavaHome, out.JavaSource))
		}
	}
}
