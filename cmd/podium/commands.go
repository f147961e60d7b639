package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridrival/podium/internal/domain"
)

func newOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <round-name>",
		Short: "Open a new prediction round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			if err := rt.engine.OpenRound(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Round %q is open for predictions.\n", args[0])
			return nil
		},
	}
}

func newSubmitCmd() *cobra.Command {
	var participantID, displayName string
	cmd := &cobra.Command{
		Use:   "submit <round-name> <id1> <id2> <id3> <id4> <id5>",
		Short: "Submit an ordered top-five prediction",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			sub, err := rt.engine.Submit(cmd.Context(), args[0], participantID, displayName, ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Prediction for %q recorded:\n%s", args[0], formatPicks(sub.Picks))
			return nil
		},
	}
	cmd.Flags().StringVar(&participantID, "as-id", "", "participant identity")
	cmd.Flags().StringVar(&displayName, "as-name", "", "participant display name")
	cmd.MarkFlagRequired("as-id")
	cmd.MarkFlagRequired("as-name")
	return cmd
}

func newCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <round-name> <id1> <id2> <id3> <id4> <id5>",
		Short: "Close the round with the actual top five and score it",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args[1:])
			if err != nil {
				return err
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			results, err := rt.engine.Close(cmd.Context(), args[0], ids)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatResults(results))
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the active round without scoring (destructive)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			name, err := rt.engine.ClearActive(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared active round %q.\n", name)
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the active round and who has submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			status, err := rt.engine.Status(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Active round: %s (opened %s)\n", status.RoundName, status.CreatedAt.Format("2006-01-02 15:04"))
			if len(status.Submitted) == 0 {
				fmt.Fprintln(out, "No submissions yet.")
				return nil
			}
			fmt.Fprintln(out, "Submitted:")
			for _, name := range status.Submitted {
				fmt.Fprintf(out, "  - %s\n", name)
			}
			return nil
		},
	}
}

func newPredictionCmd() *cobra.Command {
	var participantID string
	cmd := &cobra.Command{
		Use:   "prediction <round-name>",
		Short: "Show your accepted prediction for the active round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			sub, err := rt.engine.MyPrediction(cmd.Context(), args[0], participantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Your prediction for %q:\n%s", args[0], formatPicks(sub.Picks))
			return nil
		},
	}
	cmd.Flags().StringVar(&participantID, "as-id", "", "participant identity")
	cmd.MarkFlagRequired("as-id")
	return cmd
}

func newLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show cumulative standings across all closed rounds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			entries := rt.engine.Leaderboard(cmd.Context())
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "The leaderboard is empty.")
				return nil
			}
			for i, e := range entries {
				fmt.Fprintf(out, "%d. %s: %d points (%d rounds)\n",
					i+1, e.DisplayName, e.TotalPoints, e.RoundsScored)
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [round-name]",
		Short: "List closed rounds, or show one round's full breakdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				names := rt.engine.RaceHistory(cmd.Context())
				if len(names) == 0 {
					fmt.Fprintln(out, "No completed rounds.")
					return nil
				}
				for _, name := range names {
					fmt.Fprintf(out, "- %s\n", name)
				}
				return nil
			}

			results, err := rt.engine.RaceHistoryDetails(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(out, formatResults(results))
			return nil
		},
	}
	return cmd
}

func newDriversCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "Manage the entity roster",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all roster entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			entries := rt.roster.All()
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "The roster is empty.")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d: %s\n", e.ID, e.Name)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id> <name>",
		Short: "Add or replace a roster entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid entity id %q", args[0])
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			if err := rt.roster.Add(id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added #%d: %s\n", id, args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a roster entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid entity id %q", args[0])
			}
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			removed, err := rt.roster.Remove(id)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "No entry with id %d.\n", id)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d\n", id)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "find <name>",
		Short: "Resolve a name to an id, with close-match suggestions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.closer()

			if id, ok := rt.roster.ResolveName(args[0]); ok {
				fmt.Fprintf(cmd.OutOrStdout(), "#%d\n", id)
				return nil
			}
			suggestions := rt.roster.SuggestName(args[0], 3)
			if len(suggestions) == 0 {
				return fmt.Errorf("no roster entry matches %q", args[0])
			}
			return fmt.Errorf("no roster entry matches %q; did you mean: %s",
				args[0], strings.Join(suggestions, ", "))
		},
	})

	return cmd
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, len(args))
	for i, arg := range args {
		id, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid entity id %q", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func formatPicks(picks []string) string {
	var b strings.Builder
	for i, pick := range picks {
		fmt.Fprintf(&b, "%d. %s\n", i+1, pick)
	}
	return b.String()
}

func formatResults(r domain.RoundResults) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %s\nActual top five:\n%s", r.RoundName, formatPicks(r.ActualResult))
	if len(r.Scores) == 0 {
		b.WriteString("No submissions were scored.\n")
		return b.String()
	}
	b.WriteString("\nPoints:\n")
	for _, s := range r.Scores {
		fmt.Fprintf(&b, "%s: %d points - predicted %s\n",
			s.DisplayName, s.Points, strings.Join(s.Picks, ", "))
	}
	return b.String()
}
