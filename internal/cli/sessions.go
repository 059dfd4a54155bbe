package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/yolodolo42/mockchat/internal/chat"
)

var sessionsShowOutput outputFlags

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"session"},
	Short:   "List and manage chat sessions",
	Args:    cobra.NoArgs,
	RunE:    runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session's questions and rendered answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsShow,
}

var sessionsNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create an empty session and print its ID",
	Args:  cobra.NoArgs,
	RunE:  runSessionsNew,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session",
	Args:    cobra.ExactArgs(1),
	RunE:    runSessionsDelete,
}

var sessionsFeedbackCmd = &cobra.Command{
	Use:   "feedback <session-id> <answer-id> <like|dislike>",
	Short: "Toggle like or dislike on an answer",
	Args:  cobra.ExactArgs(3),
	RunE:  runSessionsFeedback,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsNewCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsFeedbackCmd)

	sessionsCmd.Flags().StringP("format", "f", "table", "output format: table, plain or json")
	sessionsShowOutput.register(sessionsShowCmd)
}

type sessionRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Messages int    `json:"messages"`
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	all, err := a.store.All(cmd.Context())
	if err != nil {
		return err
	}
	rows := make([]sessionRow, len(all))
	for i, sess := range all {
		rows[i] = sessionRow{ID: sess.ID, Title: chat.DisplayTitle(sess), Messages: len(sess.History)}
	}
	return writeSessions(cmd.OutOrStdout(), rows, format)
}

func writeSessions(w io.Writer, rows []sessionRow, format string) error {
	switch strings.ToLower(format) {
	case "", "table":
		writeSessionsTable(w, rows)
		return nil
	case "plain":
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", r.ID, r.Messages, r.Title); err != nil {
				return err
			}
		}
		return nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeSessionsTable(w io.Writer, rows []sessionRow) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignCenter, WidthMax: 60},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})
	tw.AppendHeader(table.Row{"ID", "Title", "Messages"})

	for _, r := range rows {
		tw.AppendRow(table.Row{r.ID, r.Title, r.Messages})
	}
	if len(rows) == 0 {
		tw.AppendRow(table.Row{"-", "(no sessions)", 0})
	}

	_ = tw.Render()
}

func runSessionsShow(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.Session(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# %s (%s)\n\n", chat.DisplayTitle(sess), sess.ID)
	if len(sess.History) == 0 {
		fmt.Fprintln(out, "No messages yet.")
		return nil
	}
	printHistory(out, sess, sessionsShowOutput.termOptions(out, a.cfg.UI.Theme))
	return nil
}

func runSessionsNew(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.svc.Start(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), sess.ID)
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.svc.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
	return nil
}

func runSessionsFeedback(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	fb, err := a.svc.Feedback(cmd.Context(), args[0], args[1], strings.ToLower(args[2]))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "likes: %d, dislikes: %d%s\n", fb.Likes, fb.Dislikes, feedbackMarks(&fb))
	return nil
}
