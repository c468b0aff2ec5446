package cli

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/snookercounter/internal/api/response"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "match",
		Aliases: []string{"m"},
		Short:   "Match and scoring commands",
		Long: `Match commands take the match id or its four digit number.

Scoring always applies to the player currently at the table.`,
	}

	cmd.AddCommand(newMatchCreateCmd())
	cmd.AddCommand(newMatchListCmd())
	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchDeleteCmd())
	cmd.AddCommand(newMatchPotCmd())
	cmd.AddCommand(newMatchFoulCmd())
	cmd.AddCommand(newMatchActionCmd("end-turn", "End the current player's turn", "end-turn"))
	cmd.AddCommand(newMatchAddPlayerCmd())
	cmd.AddCommand(newMatchRenamePlayerCmd())
	cmd.AddCommand(newMatchRemovePlayerCmd())
	cmd.AddCommand(newMatchActionCmd("reset-frame", "Zero the current frame's scores", "reset-frame"))
	cmd.AddCommand(newMatchActionCmd("next-frame", "Record the frame and start the next one", "next-frame"))
	cmd.AddCommand(newMatchActionCmd("reset", "Start the match again from frame 1", "reset"))
	cmd.AddCommand(newMatchHistoryCmd())

	return cmd
}

// matchPath resolves a match id or number to the match's API path
func matchPath(ctx context.Context, ref string) (string, error) {
	if number, err := strconv.Atoi(ref); err == nil {
		var m response.Match
		if err := client.Get(ctx, fmt.Sprintf("/api/v1/matches/by-number/%d", number), &m); err != nil {
			return "", err
		}
		ref = m.ID
	}
	return "/api/v1/matches/" + url.PathEscape(ref), nil
}

// printMatch runs a request against a match and prints the resulting scoreboard
func printMatch(cmd *cobra.Command, method, ref, suffix string, body any) error {
	path, err := matchPath(cmd.Context(), ref)
	if err != nil {
		return err
	}

	var result response.Match
	if err := client.Do(cmd.Context(), method, path+suffix, body, &result); err != nil {
		return err
	}

	output(cmd).Print(result)
	return nil
}

func newMatchCreateCmd() *cobra.Command {
	var policy string

	cmd := &cobra.Command{
		Use:   "create <player> [player...]",
		Short: "Start a new match",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"players": args}
			if policy != "" {
				req["foul_policy"] = policy
			}

			var result response.Match
			if err := client.Post(cmd.Context(), "/api/v1/matches", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&policy, "fouls", "", "Foul policy: each or split (default: server setting)")

	return cmd
}

func newMatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.MatchList
			if err := client.Get(cmd.Context(), "/api/v1/matches", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match>",
		Short: "Show the scoreboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMatch(cmd, http.MethodGet, args[0], "", nil)
		},
	}
}

func newMatchDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <match>",
		Short: "Delete a match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := matchPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), path, nil); err != nil {
				return err
			}

			output(cmd).PrintMessage("Match deleted")
			return nil
		},
	}
}

func newMatchPotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pot <match> <points|ball>",
		Short: "Credit points to the player at the table",
		Long: `Credit points to the player at the table, either as a number or a ball
name (red, yellow, green, brown, blue, pink, black).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"ball": args[1]}
			if points, err := strconv.Atoi(args[1]); err == nil {
				req = map[string]any{"points": points}
			}
			return printMatch(cmd, http.MethodPost, args[0], "/pot", req)
		},
	}
}

func newMatchFoulCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "foul <match> <penalty|ball>",
		Short: "Record a foul by the player at the table",
		Long: `Record a foul by the player at the table. The penalty is 4 to 7 points
and may be given as a number or as the ball the foul was on.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{"ball": args[1]}
			if penalty, err := strconv.Atoi(args[1]); err == nil {
				req = map[string]any{"penalty": penalty}
			}
			return printMatch(cmd, http.MethodPost, args[0], "/foul", req)
		},
	}
}

// newMatchActionCmd builds a command for a body-less POST on a match
func newMatchActionCmd(use, short, suffix string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <match>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMatch(cmd, http.MethodPost, args[0], "/"+suffix, nil)
		},
	}
}

func newMatchAddPlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-player <match> <name>",
		Short: "Add a player to the end of the rotation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMatch(cmd, http.MethodPost, args[0], "/players", map[string]string{"name": args[1]})
		},
	}
}

func newMatchRenamePlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-player <match> <player-id> <name>",
		Short: "Rename a player",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMatch(cmd, http.MethodPatch, args[0], "/players/"+url.PathEscape(args[1]), map[string]string{"name": args[2]})
		},
	}
}

func newMatchRemovePlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-player <match> <player-id>",
		Short: "Remove a player from the match",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printMatch(cmd, http.MethodDelete, args[0], "/players/"+url.PathEscape(args[1]), nil)
		},
	}
}

func newMatchHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <match>",
		Short: "Show completed frames",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := matchPath(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			var result response.FrameHistory
			if err := client.Get(cmd.Context(), path+"/history", &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
