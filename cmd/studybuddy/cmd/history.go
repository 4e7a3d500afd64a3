package cmd

import (
	"github.com/nfrund/studybuddy/cmd/studybuddy/internal/output"
	"github.com/nfrund/studybuddy/internal/database"
	"github.com/nfrund/studybuddy/internal/domain"
	"github.com/spf13/cobra"
)

var historyWidth int

var historyCmd = &cobra.Command{
	Use:   "history <a> <b>",
	Short: "Print the conversation between two users",
	Long: `Print every message exchanged between two users in either direction,
oldest first.

Examples:
  studybuddy history alice@example.com bob@example.com
  studybuddy history alice@example.com bob@example.com --format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, b := domain.NormalizeEmail(args[0]), domain.NormalizeEmail(args[1])
		return withStore(ctx, func(store database.Store) error {
			msgs, err := database.View(ctx, store, func(gw domain.Gateway) ([]domain.Message, error) {
				return gw.LoadMessagesBetween(ctx, a, b)
			})
			if err != nil {
				return err
			}
			if msgs == nil {
				msgs = []domain.Message{}
			}

			rows := make([][]string, 0, len(msgs))
			for _, m := range msgs {
				rows = append(rows, []string{
					m.Timestamp.Local().Format("2006-01-02 15:04:05"),
					m.Sender,
					output.Truncate(m.Content, historyWidth),
				})
			}
			return printer(cmd).Print(msgs, []string{"TIME", "FROM", "MESSAGE"}, rows)
		})
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyWidth, "width", 80, "Truncate messages to this many characters in table output")
	rootCmd.AddCommand(historyCmd)
}
