package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/hub"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// ListCommand prints the model files present in the local directories.
type ListCommand struct {
	client *hub.Client
}

func NewListCommand() *ListCommand {
	return &ListCommand{}
}

func (l *ListCommand) Name() string { return "ls" }

func (l *ListCommand) ShortDescription() string { return "List local model files" }

func (l *ListCommand) LongDescription() string {
	return "List model files present in the configured model directories."
}

func (l *ListCommand) ConfigureCommand(cmd *cobra.Command) {
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, args []string) {
		runCommand(cmd, l, l.Start)
	}
}

func (l *ListCommand) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		hub.Module,
		fx.Invoke(func(client *hub.Client) {
			l.client = client
		}),
	}
}

func (l *ListCommand) Start() error {
	files, err := l.client.ListLocalModels()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("No local models.")
		return nil
	}
	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
