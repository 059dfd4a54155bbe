package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web chat and JSON API",
	Long: `Serve the chat over HTTP.

Pages:
  /                    session list and new chat
  /chat/<id>           a conversation with its rendered answers

API:
  POST /api/start      create a session
  POST /api/ask        ask a question in a session
  GET  /api/sessions   list sessions
  GET  /api/session/<id>
  POST /api/feedback   toggle like or dislike on an answer
  POST /api/render     render a stored answer as HTML
  GET  /ws             websocket feed of session changes

The PORT environment variable overrides the listen port.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("addr", "", "listen address (default :4000)")
	flags.String("static-dir", "", "serve a built single-page app from this directory under /app/")
	flags.String("cors-origin", "", "allowed cross-origin caller (default *)")

	bindFlag(config.KeyServerAddr, flags.Lookup("addr"))
	bindFlag(config.KeyStaticDir, flags.Lookup("static-dir"))
	bindFlag(config.KeyCORSOrigin, flags.Lookup("cors-origin"))
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.provider == nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: no provider connected, answers will report the error. Run 'mockchat auth connect'.\n")
	}

	srv := server.New(a.svc,
		server.WithLogger(a.logger),
		server.WithTheme(a.cfg.UI.Theme),
		server.WithCORSOrigin(a.cfg.Server.CORSOrigin),
		server.WithStaticDir(a.cfg.Server.StaticDir),
	)

	fmt.Fprintf(cmd.OutOrStdout(), "mockchat listening on %s (store: %s)\n", a.cfg.Server.Addr, a.cfg.Store.Path)
	return srv.Run(ctx, a.cfg.Server.Addr)
}
