package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/mockchat/internal/answer"
	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/render"
)

var renderOutput outputFlags

var renderCmd = &cobra.Command{
	Use:   "render [file]",
	Short: "Render an answer as terminal text or HTML",
	Long: `Render an answer read from a file, or stdin when no file is given.

Input that is valid JSON is treated as a stored answer: a string, a
{"text": ...} object or a table with columns and rows. Anything else is
rendered as markdown text.`,
	Example: `  echo '# Title' | mockchat render
  mockchat render --html answer.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().Bool("html", false, "write an HTML fragment instead of terminal text")
	renderCmd.Flags().Bool("text", false, "treat the input as markdown even if it is valid JSON")
	renderOutput.register(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 && args[0] != "-" {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	asText, _ := cmd.Flags().GetBool("text")
	asHTML, _ := cmd.Flags().GetBool("html")
	theme := render.ParseTheme(viper.GetString(config.KeyTheme))

	doc := parseRenderInput(data, asText)
	out := cmd.OutOrStdout()
	if asHTML {
		_, err := fmt.Fprintln(out, string(render.HTML(doc, theme)))
		return err
	}

	if s := render.Terminal(doc, renderOutput.termOptions(out, theme)); s != "" {
		_, err := fmt.Fprintln(out, s)
		return err
	}
	return nil
}

func parseRenderInput(data []byte, asText bool) *render.Node {
	trimmed := bytes.TrimSpace(data)
	if !asText && json.Valid(trimmed) {
		return render.Answer(answer.Decode(trimmed))
	}
	return render.Text(string(data))
}
