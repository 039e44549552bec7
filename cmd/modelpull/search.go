package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/clara-assistant/modelpull/pkg/afero"
	"github.com/clara-assistant/modelpull/pkg/hub"
	"github.com/clara-assistant/modelpull/pkg/logging"
)

// SearchCommand queries the hub and prints matching models.
type SearchCommand struct {
	client *hub.Client
	logger logging.Interface

	query string
	limit int
	sort  string
}

func NewSearchCommand() *SearchCommand {
	return &SearchCommand{}
}

func (s *SearchCommand) Name() string { return "search" }

func (s *SearchCommand) ShortDescription() string { return "Search the hub for GGUF models" }

func (s *SearchCommand) LongDescription() string {
	return "Search the model hub for repositories carrying GGUF weights. Results include file counts and a vision-capability hint."
}

func (s *SearchCommand) ConfigureCommand(cmd *cobra.Command) {
	cmd.Args = cobra.ExactArgs(1)
	cmd.Flags().IntVar(&s.limit, "limit", hub.DefaultSearchLimit, "maximum number of results")
	cmd.Flags().StringVar(&s.sort, "sort", hub.SortPopularity, "sort key: popularity, recency or likes")
	cmd.Run = func(cmd *cobra.Command, args []string) {
		s.query = args[0]
		runCommand(cmd, s, s.Start)
	}
}

func (s *SearchCommand) FxModules() []fx.Option {
	return []fx.Option{
		afero.Module,
		logging.Module,
		hub.Module,
		fx.Invoke(func(client *hub.Client, logger logging.Interface) {
			s.client = client
			s.logger = logger
		}),
	}
}

func (s *SearchCommand) Start() error {
	results, err := s.client.Search(context.Background(), s.query, s.limit, s.sort)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("No models found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDOWNLOADS\tLIKES\tFILES\tVISION")
	for _, m := range results {
		vision := ""
		if m.IsVisionModel {
			vision = "yes"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", m.ID, m.Downloads, m.Likes, len(m.FileListing), vision)
	}
	return w.Flush()
}
