package cli

import (
	"github.com/spf13/cobra"

	"gmailarchive/internal/app"
	"gmailarchive/internal/interfaces/render"
)

func newHistoryCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show previously classified emails from the local cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			history, closeFn, err := app.OpenHistory(rt.cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer closeFn()

			emails, err := history.Execute(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return render.NewTable(rt.out, rt.logger).RenderHistory(emails)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of classified emails to show")
	return cmd
}
