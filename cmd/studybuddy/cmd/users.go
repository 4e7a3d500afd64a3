package cmd

import (
	"strconv"

	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/spf13/cobra"
)

type userRow struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Subjects []string `json:"subjects"`
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withStore(ctx, func(store database.Store) error {
			users, err := database.View(ctx, store, func(gw domain.Gateway) ([]domain.User, error) {
				return gw.GetAllUsers(ctx)
			})
			if err != nil {
				return err
			}

			out := make([]userRow, 0, len(users))
			rows := make([][]string, 0, len(users))
			for _, u := range users {
				out = append(out, userRow{ID: u.ID, Name: u.Name, Email: u.Email, Subjects: u.Subjects.Tags()})
				rows = append(rows, []string{strconv.FormatInt(u.ID, 10), u.Name, u.Email, u.Subjects.Join(", ")})
			}
			return printer(cmd).Print(out, []string{"ID", "NAME", "EMAIL", "SUBJECTS"}, rows)
		})
	},
}

func init() {
	rootCmd.AddCommand(usersCmd)
}
