package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trainingcal/internal/events"
)

func addExport(topLevel *cobra.Command, ro *RootOptions) {
	vo := &ViewOptions{}
	var name string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the events of a view as an iCalendar file to stdout.",
		Example: `
trainingcal export --view month --date 2025-03-01 > march.ics
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := ro.load()
			if err != nil {
				return err
			}
			rng, err := vo.resolve(a.loc, time.Now())
			if err != nil {
				return err
			}

			res := a.source.Fetch(cmd.Context(), rng.Start, rng.End)
			if msg := res.Warning(); msg != "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), warnColor.Sprint(msg))
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), events.ExportICS(name, res.Events, a.loc, time.Now()))
			return err
		},
	}
	addViewArgs(cmd, vo)
	cmd.Flags().StringVar(&name, "name", "Training calendar", "Calendar name in the file.")

	topLevel.AddCommand(cmd)
}
