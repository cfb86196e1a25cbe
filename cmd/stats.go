package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/backend"
	"github.com/abhisek/cefrquiz/internal/cefr"
	"github.com/abhisek/cefrquiz/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show a learner's evaluated answers and sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		userID, _ := cmd.Flags().GetString("user")

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		u, err := st.Users().Get(ctx, userID)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no learner with id %s", userID)
		}
		if err != nil {
			return err
		}

		local := backend.NewLocal(st, nil, nil)
		agg, err := local.FetchSummary(ctx, userID)
		if err != nil {
			return err
		}
		rows, err := local.Responses(ctx, userID)
		if err != nil {
			return err
		}
		sessions, err := st.Events().SessionEvents(ctx, userID, store.QueryOpts{})
		if err != nil {
			return fmt.Errorf("query sessions: %w", err)
		}

		fmt.Printf("Learner:   %s (id %s)\n", u.Name, u.ID)
		fmt.Printf("Joined:    %s\n", u.CreatedAt.Local().Format("2006-01-02 15:04"))
		if agg.TotalSubmissions == 0 {
			fmt.Println("No evaluated answers yet.")
		} else {
			level := cefr.LevelForScore(agg.AverageScore)
			fmt.Printf("Answers:   %d evaluated, average %.2f/5\n", agg.TotalSubmissions, agg.AverageScore)
			fmt.Printf("Level:     %s\n", level)
			fmt.Printf("Latest:    %s scored %.0f/5 at %s\n", agg.MostRecentMode, agg.MostRecentScore,
				agg.LastUpdated.Local().Format("2006-01-02 15:04"))
		}

		if len(rows) > 0 {
			fmt.Println()
			fmt.Printf("%-19s  %-8s  %-10s  %-5s  %s\n", "Submitted", "Mode", "Question", "Score", "Answer")
			fmt.Println(strings.Repeat("─", 80))
			for _, r := range rows {
				answer := r.Transcript
				if len(answer) > 30 {
					answer = answer[:27] + "..."
				}
				fmt.Printf("%-19s  %-8s  %-10s  %-5.0f  %s\n",
					r.SubmittedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.QuestionID, r.Score, answer)
			}
		}

		if len(sessions) > 0 {
			fmt.Println()
			fmt.Printf("%-19s  %-8s  %-9s  %s\n", "Time", "Action", "Score", "Duration")
			fmt.Println(strings.Repeat("─", 60))
			for _, s := range sessions {
				fmt.Printf("%-19s  %-8s  %3d/%-5d  %ds\n",
					s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.Action, s.Correct, s.Answered, s.DurationSecs)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().String("user", "", "Learner id (required)")
	_ = statsCmd.MarkFlagRequired("user")
}
