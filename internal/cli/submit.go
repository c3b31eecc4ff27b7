package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"
)

// NewSubmitCmd создаёт команду "submit": отправляет тело запроса (из файла
// или stdin) через прокси на target URL и печатает присвоенный id.
func NewSubmitCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var replyURL, replyMethod, method, file string

	cmd := &cobra.Command{
		Use:   "submit <target-url>",
		Short: "Submit a request for resilient forwarding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			targetURL := args[0]

			var body []byte
			var err error
			if file != "" {
				body, err = os.ReadFile(file)
			} else {
				body, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return err
			}

			id, err := clientFn().Submit(targetURL, replyURL, replyMethod, method, body)
			if err != nil {
				outputFn().Error(err.Error())
				return err
			}

			outputFn().KV([][2]string{{"id", id}}, map[string]string{"id": id})
			return nil
		},
	}

	cmd.Flags().StringVar(&replyURL, "reply", "", "URL to deliver the target's response to (required)")
	cmd.Flags().StringVar(&replyMethod, "reply-method", "POST", "HTTP method used to deliver the reply")
	cmd.Flags().StringVar(&method, "method", "POST", "HTTP method used for the target request")
	cmd.Flags().StringVar(&file, "file", "", "read request body from this file instead of stdin")
	cmd.MarkFlagRequired("reply")

	return cmd
}
