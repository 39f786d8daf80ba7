package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trainingcal/internal/datemath"
	"trainingcal/internal/viewrange"
)

func addRange(topLevel *cobra.Command, ro *RootOptions) {
	vo := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "range",
		Short: "Print the date range a view covers.",
		Example: `
trainingcal range --view week --date 2025-01-15
trainingcal range --view month --date 2024-02-10
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
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rangeTable(rng))
			return err
		},
	}
	addViewArgs(cmd, vo)
	addTimezoneArg(cmd, vo)

	topLevel.AddCommand(cmd)
}

func rangeTable(rng viewrange.Range) fmt.Stringer {
	week := make([]string, 0, len(rng.WeekDates))
	for _, d := range rng.WeekDates {
		week = append(week, datemath.DateKey(d))
	}

	tbl := newTable()
	tbl.AddRow(bold.Sprint("View"), string(rng.View))
	tbl.AddRow(bold.Sprint("Anchor"), datemath.DateKey(rng.Anchor))
	tbl.AddRow(bold.Sprint("Start"), rng.Start.Format(time.RFC3339))
	tbl.AddRow(bold.Sprint("End"), rng.End.Format("2006-01-02T15:04:05.000Z07:00"))
	tbl.AddRow(bold.Sprint("Days"), len(rng.Days()))
	tbl.AddRow(bold.Sprint("Title"), viewrange.Title(rng.View, rng.Anchor))
	if sub := viewrange.Subtitle(rng.View, rng.Anchor); sub != "" {
		tbl.AddRow(bold.Sprint("Subtitle"), sub)
	}
	tbl.AddRow(bold.Sprint("Week"), fmt.Sprintf("%d (%d)", rng.WeekNumber, datemath.WeekYear(rng.Anchor)))
	tbl.AddRow(bold.Sprint("Week dates"), strings.Join(week, " "))
	tbl.RightAlign(0)
	return tbl
}
