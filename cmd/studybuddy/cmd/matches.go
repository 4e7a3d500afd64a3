package cmd

import (
	"errors"
	"fmt"

	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/nfrund/studybuddy/internal/matcher"
	"github.com/spf13/cobra"
)

type matchRow struct {
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Shared []string `json:"shared"`
}

var matchesCmd = &cobra.Command{
	Use:   "matches <email>",
	Short: "Show the study buddies of one user",
	Long: `Show every user who shares at least one subject with the given user,
in registration order, with the subjects they have in common.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		email := domain.NormalizeEmail(args[0])
		return withStore(ctx, func(store database.Store) error {
			var matches []matcher.Match
			err := store.Do(ctx, func(gw domain.Gateway) error {
				me, err := gw.GetUserByEmail(ctx, email)
				if err != nil {
					return err
				}
				all, err := gw.GetAllUsers(ctx)
				if err != nil {
					return err
				}
				matches = matcher.Matches(me, all)
				return nil
			})
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}

			out := make([]matchRow, 0, len(matches))
			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				out = append(out, matchRow{Name: m.Name, Email: m.Email, Shared: m.Overlap.Tags()})
				rows = append(rows, []string{m.Name, m.Email, m.OverlapText()})
			}
			return printer(cmd).Print(out, []string{"NAME", "EMAIL", "SHARED"}, rows)
		})
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)
}
