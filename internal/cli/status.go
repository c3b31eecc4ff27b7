package cli

import (
	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт команду "status": печатает текущее state activity.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "status <activity-id>",
		Short: "Look up the current state of a submitted activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := clientFn().Status(args[0])
			if err != nil {
				outputFn().Error(err.Error())
				return err
			}

			outputFn().KV([][2]string{
				{"id", result.ID},
				{"state", result.State},
			}, result)
			return nil
		},
	}
}
