package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/hub"
	"github.com/clara-assistant/modelpull/pkg/logging"
	"github.com/clara-assistant/modelpull/pkg/modelstore"
)

// RemoveCommand deletes a local model file inside the allow-listed
// directories.
type RemoveCommand struct {
	client *hub.Client
	logger logging.Interface

	path string
}

func NewRemoveCommand() *RemoveCommand {
	return &RemoveCommand{}
}

func (r *RemoveCommand) Name() string { return "rm" }

func (r *RemoveCommand) ShortDescription() string { return "Delete a local model file" }

func (r *RemoveCommand) LongDescription() string {
	return "Delete a model file from disk. Only paths inside the configured model directories can be deleted; anything else is rejected."
}

func (r *RemoveCommand) ConfigureCommand(cmd *cobra.Command) {
	cmd.Args = cobra.ExactArgs(1)
	cmd.Run = func(cmd *cobra.Command, args []string) {
		r.path = args[0]
		runCommand(cmd, r, r.Start)
	}
}

func (r *RemoveCommand) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		hub.Module,
		fx.Invoke(func(client *hub.Client, logger logging.Interface) {
			r.client = client
			r.logger = logger
		}),
	}
}

func (r *RemoveCommand) Start() error {
	if err := r.client.DeleteLocalModel(r.path); err != nil {
		if modelstore.IsPathNotAllowed(err) {
			return fmt.Errorf("refusing to delete %s: not inside a model directory", r.path)
		}
		return err
	}

	fmt.Printf("Deleted %s\n", r.path)
	return nil
}
