package cmd

import (
	"strings"

	"github.com/nfrund/studybuddy/cmd/studybuddy/internal/output"
	"github.com/nfrund/studybuddy/internal/pubsub"
	"github.com/spf13/cobra"

	// Imported for the events its packages declare.
	_ "github.com/nfrund/studybuddy/internal/app"
)

var topicsModule string

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List the events carried on the message bus",
	Long: `List every event registered on the message bus with its payload type
and fields.

Examples:
  studybuddy topics
  studybuddy topics --module ws
  studybuddy topics --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var events []pubsub.EventInfo
		for _, e := range pubsub.Events() {
			if topicsModule == "" || e.Module == topicsModule {
				events = append(events, e)
			}
		}

		rows := make([][]string, 0, len(events))
		for _, e := range events {
			rows = append(rows, []string{
				e.Name,
				e.Module,
				e.TypeName,
				strings.Join(e.Fields, ","),
				output.Truncate(e.Description, 60),
			})
		}
		return printer(cmd).Print(events, []string{"NAME", "MODULE", "TYPE", "FIELDS", "DESCRIPTION"}, rows)
	},
}

func init() {
	topicsCmd.Flags().StringVar(&topicsModule, "module", "", "Only show events of this module")
	rootCmd.AddCommand(topicsCmd)
}
