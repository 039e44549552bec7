package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/hub"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// PullCommand acquires one model's full dependency set. Per-file progress
// bars are rendered by the acquisition client itself.
type PullCommand struct {
	client *hub.Client
	logger logging.Interface

	repoID    string
	fileName  string
	targetDir string
}

func NewPullCommand() *PullCommand {
	return &PullCommand{}
}

func (p *PullCommand) Name() string { return "pull" }

func (p *PullCommand) ShortDescription() string { return "Download a model and its dependencies" }

func (p *PullCommand) LongDescription() string {
	return "Download one GGUF artifact together with everything it depends on: all shards of a split model, and any projection companion files. Files land in the configured model directory."
}

func (p *PullCommand) ConfigureCommand(cmd *cobra.Command) {
	cmd.Args = cobra.RangeArgs(1, 2)
	cmd.Flags().StringVar(&p.targetDir, "dir", "", "target directory (defaults to the configured model directory)")
	cmd.Run = func(cmd *cobra.Command, args []string) {
		p.repoID = args[0]
		if len(args) > 1 {
			p.fileName = args[1]
		}
		runCommand(cmd, p, p.Start)
	}
}

func (p *PullCommand) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		hub.Module,
		fx.Invoke(func(client *hub.Client, logger logging.Interface) {
			p.client = client
			p.logger = logger
		}),
	}
}

func (p *PullCommand) Start() error {
	ctx := context.Background()

	listing, err := p.client.ListFiles(ctx, p.repoID)
	if err != nil {
		return err
	}

	fileName := p.fileName
	if fileName == "" {
		fileName = firstWeightsFile(listing)
		if fileName == "" {
			return fmt.Errorf("repository %s contains no GGUF file", p.repoID)
		}
	}

	result := p.client.Acquire(ctx, hub.AcquisitionRequest{
		ModelID:     p.repoID,
		PrimaryFile: fileName,
		FileListing: listing,
		TargetDir:   p.targetDir,
	})

	switch result.State {
	case hub.AcquisitionCompleted:
		fmt.Printf("Acquired %s (%d files) -> %s\n", p.repoID, len(result.Files), result.PrimaryPath)
		return nil
	case hub.AcquisitionPartiallyFailed:
		fmt.Printf("Acquired %s with degraded companions -> %s\n", p.repoID, result.PrimaryPath)
		for _, f := range result.Files {
			if f.Err != nil {
				fmt.Printf("  companion %s failed: %v\n", f.FileName, f.Err)
			}
		}
		return nil
	case hub.AcquisitionCancelled:
		return fmt.Errorf("acquisition of %s was cancelled", p.repoID)
	default:
		return fmt.Errorf("acquisition of %s failed: %w", p.repoID, result.Err)
	}
}

func firstWeightsFile(listing []hub.ModelFileDescriptor) string {
	for _, f := range listing {
		if strings.HasSuffix(strings.ToLower(f.Name), hub.WeightsFileSuffix) {
			return f.Name
		}
	}
	return ""
}
