package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/clara-assistant/modelpull/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "modelpull",
	Short:   "Acquire GGUF models for local inference",
	Long:    "modelpull searches the model hub, downloads complete dependency sets (shards and projection companions included) and manages the local model directory.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(CreateCommand(NewSearchCommand()))
	rootCmd.AddCommand(CreateCommand(NewPullCommand()))
	rootCmd.AddCommand(CreateCommand(NewListCommand()))
	rootCmd.AddCommand(CreateCommand(NewRemoveCommand()))
}
