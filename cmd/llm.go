package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/cefrquiz/internal/store"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded grading requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")

		events, err := llmEvents(cmd, store.QueryOpts{Limit: limit})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}

		fmt.Printf("%-5s  %-19s  %-15s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"Seq", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Println(strings.Repeat("─", 100))

		for _, e := range events {
			if purpose != "" && e.Purpose != purpose {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			model := e.Model
			if len(model) > 28 {
				model = model[:28]
			}
			fmt.Printf("%-5d  %-19s  %-15s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.Sequence,
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				e.Purpose,
				model,
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <seq>",
	Short: "Show the full request and response for one LLM request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var seq int64
		if _, err := fmt.Sscanf(args[0], "%d", &seq); err != nil {
			return fmt.Errorf("invalid sequence %q: %w", args[0], err)
		}

		events, err := llmEvents(cmd, store.QueryOpts{After: seq - 1})
		if err != nil {
			return err
		}
		var e *store.LLMRequestEvent
		for i := range events {
			if events[i].Sequence == seq {
				e = &events[i]
				break
			}
		}
		if e == nil {
			return fmt.Errorf("request %d not found", seq)
		}

		sep := strings.Repeat("─", 60)
		fmt.Printf("Seq:       %d\n", e.Sequence)
		fmt.Printf("Time:      %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("Provider:  %s\n", e.Provider)
		fmt.Printf("Model:     %s\n", e.Model)
		fmt.Printf("Purpose:   %s\n", e.Purpose)
		fmt.Printf("Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Printf("Latency:   %dms\n", e.LatencyMs)
		fmt.Printf("Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Printf("Error:     %s\n", e.ErrorMessage)
		}

		for _, part := range []struct{ name, body string }{
			{"REQUEST", e.RequestBody},
			{"RESPONSE", e.ResponseBody},
		} {
			fmt.Println()
			fmt.Println(sep)
			fmt.Println(part.name)
			fmt.Println(sep)
			if part.body == "" {
				fmt.Println("(not captured)")
				continue
			}
			fmt.Println(part.body)
		}
		return nil
	},
}

type purposeUsage struct {
	purpose   string
	calls     int
	failed    int
	in, out   int
	latencyMs int64
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show token usage per grading purpose",
	RunE: func(cmd *cobra.Command, args []string) error {
		events, err := llmEvents(cmd, store.QueryOpts{})
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No LLM usage recorded yet.")
			return nil
		}

		byPurpose := map[string]*purposeUsage{}
		for _, e := range events {
			u := byPurpose[e.Purpose]
			if u == nil {
				u = &purposeUsage{purpose: e.Purpose}
				byPurpose[e.Purpose] = u
			}
			u.calls++
			if !e.Success {
				u.failed++
			}
			u.in += e.InputTokens
			u.out += e.OutputTokens
			u.latencyMs += e.LatencyMs
		}
		usage := make([]*purposeUsage, 0, len(byPurpose))
		for _, u := range byPurpose {
			usage = append(usage, u)
		}
		sort.Slice(usage, func(i, j int) bool { return usage[i].purpose < usage[j].purpose })

		fmt.Println("Usage by Purpose")
		fmt.Println(strings.Repeat("─", 80))
		fmt.Printf("%-16s  %6s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Failed", "Input", "Output", "Total", "Avg Ms")
		fmt.Println(strings.Repeat("─", 80))

		var calls, failed, in, out int
		for _, u := range usage {
			fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %10d  %8d\n",
				u.purpose, u.calls, u.failed, u.in, u.out, u.in+u.out, u.latencyMs/int64(u.calls))
			calls += u.calls
			failed += u.failed
			in += u.in
			out += u.out
		}
		fmt.Println(strings.Repeat("─", 80))
		fmt.Printf("%-16s  %6d  %6d  %10d  %10d  %10d\n", "TOTAL", calls, failed, in, out, in+out)
		return nil
	},
}

func llmEvents(cmd *cobra.Command, opts store.QueryOpts) ([]store.LLMRequestEvent, error) {
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()

	events, err := st.Events().LLMRequests(cmd.Context(), opts)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	return events, nil
}

func init() {
	llmListCmd.Flags().Int("limit", 20, "Maximum number of requests to show")
	llmListCmd.Flags().String("purpose", "", "Only show requests for this purpose (grade-writing, grade-speaking)")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
