package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var askOutput outputFlags

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question and print the answer",
	Long: `Ask a single question and print the rendered answer.

Without --session a new session is created; its ID is printed to stderr so
the conversation can be continued. With no arguments the question is read
from stdin.`,
	Example: `  mockchat ask "Compare Go and Rust in a table"
  mockchat ask --session 1a2b3c4d "And Zig?"
  echo "hello" | mockchat ask`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringP("session", "s", "", "session ID to continue")
	askOutput.register(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")
	if len(args) == 0 {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read question: %w", err)
		}
		question = string(data)
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question is required")
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sessionID, _ := cmd.Flags().GetString("session")
	if sessionID == "" {
		sess, err := a.svc.Start(ctx)
		if err != nil {
			return err
		}
		sessionID = sess.ID
		fmt.Fprintf(cmd.ErrOrStderr(), "session: %s\n", sessionID)
	}

	entry, err := a.svc.Ask(ctx, sessionID, question)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if body := renderEntry(entry, askOutput.termOptions(out, a.cfg.UI.Theme)); body != "" {
		fmt.Fprintln(out, body)
	}
	return nil
}
