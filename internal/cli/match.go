package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match history commands",
	}

	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchMineCmd())

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Show a finished match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchRecord

			if err := client.Get("/api/v1/matches/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "List your finished matches, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result MatchList

			if err := client.Get("/api/v1/players/me/matches", &result); err != nil {
				return err
			}

			if len(result.Matches) == 0 && cfg.Output != "json" {
				fmt.Println("No matches yet")
				return nil
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
