package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"trainingcal/internal/layout"
	"trainingcal/internal/model"
)

func addLayout(topLevel *cobra.Command, ro *RootOptions) {
	vo := &ViewOptions{}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the overlap groups and columns of one day.",
		Example: `
trainingcal layout --date 2025-01-16
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			a, err := ro.load()
			if err != nil {
				return err
			}
			vo.View = string(model.ViewDay)
			rng, err := vo.resolve(a.loc, time.Now())
			if err != nil {
				return err
			}

			res := a.source.Fetch(cmd.Context(), rng.Start, rng.End)
			out := cmd.OutOrStdout()
			printWarning(out, res)

			day := layout.LayoutDays([]string{rng.StartKey()}, res.Events)[0]
			_, err = fmt.Fprintln(out, dayTable(day))
			return err
		},
	}
	cmd.Flags().StringVar(&vo.Date, "date", "",
		`Day to lay out, example: --date="2025-01-16". Defaults to today.`)

	topLevel.AddCommand(cmd)
}

func dayTable(day layout.Day) fmt.Stringer {
	tbl := newTable("Group", "Span", "Column", "Time", "Title")
	for _, ev := range day.AllDay {
		tbl.AddRow("-", "all day", "-", "-", ev.Title)
	}
	for i, g := range day.Groups {
		for _, p := range g.Placements {
			tbl.AddRow(
				i+1,
				g.Start+"-"+g.End,
				fmt.Sprintf("%d/%d", p.ColumnIndex+1, p.ColumnCount),
				p.Event.Start+"-"+p.Event.End,
				p.Event.Title,
			)
		}
	}
	return tbl
}
