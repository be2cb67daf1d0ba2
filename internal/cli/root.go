package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/kubepulse/internal/monitor"
	"github.com/ppiankov/kubepulse/internal/ratelimit"
	"github.com/ppiankov/kubepulse/internal/server"
	"github.com/ppiankov/kubepulse/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// version is set at build time via -ldflags
var version = "0.1.0"

var (
	// Global flags
	cfgFile    string
	kubeconfig string
	verbose    bool
)

// rootCmd runs the sidecar
var rootCmd = &cobra.Command{
	Use:   "kubepulse",
	Short: "Kubernetes health sidecar: control plane reachability, Deployment health, NetworkPolicy isolation",
	Long: `kubepulse runs next to your workloads and answers three questions over HTTP:

  GET  /healthz                 is the sidecar process up
  GET  /version                 which version is the API server running
  GET  /deployments             are all Deployments at their desired replica count
  POST /create-network-policy   isolate a set of pods with a default-deny NetworkPolicy

It also checks the API server version on a fixed interval and logs the result,
so a lost control plane shows up in the sidecar's logs even when nobody calls it.

Credentials come from --kubeconfig when set, otherwise from the in-cluster
service account. Every flag can also be set in $HOME/.kubepulse.yaml or as a
KUBEPULSE_* environment variable (KUBEPULSE_LOG_LEVEL=debug).

Examples:
  # Run in-cluster with defaults
  kubepulse

  # Run locally against a kind cluster, checking every 30 seconds
  kubepulse --kubeconfig ~/.kube/config --interval 30 --log-format console

  # One-shot report
  kubepulse status -o yaml`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Disable default completion command
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	RunE: runServe,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return util.WithExitCode(util.ExitInvalidInput, err)
	})

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kubepulse.yaml)")
	pf.StringVarP(&kubeconfig, keyKubeconfig, "k", "", "path to kubeconfig file (default is in-cluster service account)")
	pf.String(keyLogLevel, "info", "log level (debug|info|warn|error)")
	pf.String(keyLogFormat, "json", "log format (json|console)")
	pf.String(keyLogFile, "", "write logs to a rotated file instead of stderr")
	pf.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Sidecar flags
	f := rootCmd.Flags()
	f.StringP(keyAddress, "a", defaultAddress, "HTTP listen address (host:port)")
	f.IntP(keyInterval, "i", int(monitor.DefaultInterval.Seconds()), "seconds between control plane checks")
	f.String(keyCheckLogLevel, defaultCheckLogLevel, "log level for successful periodic checks")
	f.Duration(keyShutdownTimeout, server.DefaultShutdownTimeout, "how long in-flight requests may drain on shutdown")
	f.Int64(keyMaxBodyBytes, server.DefaultMaxBodyBytes, "maximum POST body size in bytes")
	f.Int(keyPolicyRate, 0, "maximum NetworkPolicy creations per window (0 = unlimited)")
	f.Int(keyPolicyRateNS, 0, "maximum NetworkPolicy creations per namespace per window (0 = unlimited)")
	f.Duration(keyPolicyWindow, ratelimit.DefaultWindow, "window for the NetworkPolicy rate limits")

	// Bind flags to viper
	bindFlags(viper.GetViper(), pf, keyKubeconfig, keyLogLevel, keyLogFormat, keyLogFile, "verbose")
	bindFlags(viper.GetViper(), f, keyAddress, keyInterval, keyCheckLogLevel, keyShutdownTimeout, keyMaxBodyBytes,
		keyPolicyRate, keyPolicyRateNS, keyPolicyWindow)
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys ...string) {
	for _, key := range keys {
		_ = v.BindPFlag(key, fs.Lookup(key))
	}
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	configureViper(viper.GetViper())

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		// Search config in home directory with name ".kubepulse" (without extension)
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".kubepulse")
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && IsVerbose() {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		// An explicit config file that cannot be read is a usage error.
		util.ExitWithError(util.ExitInvalidInput, "Error reading config file %s: %v", cfgFile, err)
	}
}

// configureViper sets up KUBEPULSE_* environment lookup.
func configureViper(v *viper.Viper) {
	v.SetEnvPrefix("KUBEPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
}

// GetKubeconfig returns the kubeconfig path from flags or viper
func GetKubeconfig() string {
	if kubeconfig != "" {
		return kubeconfig
	}
	return viper.GetString(keyKubeconfig)
}

// IsVerbose returns the verbose flag value
func IsVerbose() bool {
	return verbose || viper.GetBool("verbose")
}
