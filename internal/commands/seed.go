package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trainingcal/internal/model"
	"trainingcal/internal/seed"
)

func addSeed(topLevel *cobra.Command, ro *RootOptions) {
	vo := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Print the sample schedule generated for a view.",
		Example: `
trainingcal seed --date 2025-01-15
trainingcal seed --view month --date 2025-03-01
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			loc, err := vo.location(ro)
			if err != nil {
				return err
			}
			rng, err := vo.resolve(loc, time.Now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			evs := seed.Generate(rng.Start, rng.End)
			_, _ = fmt.Fprintln(out, seedColor.Sprintf("Sample schedule %s .. %s (%d sessions)",
				rng.StartKey(), rng.EndKey(), len(evs)))
			_, err = fmt.Fprintln(out, eventTable(evs))
			return err
		},
	}
	addViewArgs(cmd, vo)
	addTimezoneArg(cmd, vo)

	topLevel.AddCommand(cmd)
}

func eventTable(evs []model.CalendarEvent) fmt.Stringer {
	tbl := newTable("ID", "Date", "Time", "Title", "Status", "Type")
	for _, ev := range evs {
		when := "all day"
		if !ev.IsAllDay {
			when = ev.Start + "-" + ev.End
		}
		tbl.AddRow(ev.ID, ev.Date, when, ev.Title, string(ev.Status), string(ev.Category))
	}
	return tbl
}
