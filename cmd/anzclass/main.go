// Command anzclass is the operator CLI for the classification service.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/anzclass/anzclass/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Build-time variables set via ldflags.
var (
	version   = "0.1.0"
	commit    = ""
	buildDate = ""
)

var (
	apiClient *client.Client
	flagURL   string
	flagFmt   string
)

const defaultServerURL = "http://localhost:8080"

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("anzclass version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("anzclass version %s-dev", version)
}

type configFile struct {
	URL string `yaml:"url"`
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "anzclass",
		Short:   "anzclass CLI — ANZSIC occupation classification",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			apiClient = client.New(flagURL)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultServerURL, "Server URL (env: ANZCLASS_URL)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format: json|table")

	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // skip client setup

	rootCmd.AddCommand(newClassifyCmd())
	rootCmd.AddCommand(doctorCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func resolveConfig() {
	// Flag takes precedence, then env, then config file.
	if flagURL == defaultServerURL {
		if v := os.Getenv("ANZCLASS_URL"); v != "" {
			flagURL = v
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	cfgPath := filepath.Join(home, ".anzclass", "config.yaml")
	data, err := os.ReadFile(cfgPath)
	if err != nil {
		return
	}
	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return
	}
	if flagURL == defaultServerURL && cfg.URL != "" {
		flagURL = cfg.URL
	}
}

func fatal(op string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", op, err)
	os.Exit(1)
}
