package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quiz-round/internal/domain"
)

const leaderboardDateLayout = "2006-01-02 15:04"

// NewLeaderboardCmd prints ranked results from the configured store.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the ranked leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			b, err := openBackends(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer b.Close()

			entries, err := b.results.FetchRanked(cmd.Context())
			if err != nil {
				return err
			}
			writeLeaderboard(cmd.OutOrStdout(), entries, limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "rows to show (0 for all)")
	return cmd
}

func writeLeaderboard(w io.Writer, entries []domain.LeaderboardEntry, limit int) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results yet.")
		return
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tUSERNAME\tSCORE\tDATE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, e.Username, e.Score, e.QuizDate.Local().Format(leaderboardDateLayout))
	}
	_ = tw.Flush()
}
