// Package setup runs the first-start wizard that connects an LLM provider.
package setup

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/yolodolo42/mockchat/internal/auth"
	"github.com/yolodolo42/mockchat/internal/llm"
)

// Status is what the wizard found already configured
type Status struct {
	HasProvider bool
	ProviderID  llm.ProviderID
	Source      string // "env", "config" or "auth.json"
}

// DetectStatus reports whether any provider key is available, preferring
// the stored default provider.
func DetectStatus(dataDir string) (*Status, error) {
	status := &Status{}

	manager, err := auth.NewManager(dataDir)
	if err != nil {
		return status, err
	}

	connected := manager.ListConnected()
	if len(connected) == 0 {
		return status, nil
	}

	status.HasProvider = true
	status.ProviderID = connected[0]
	if def := manager.GetDefaultProvider(); manager.HasCredential(def) {
		status.ProviderID = def
	}
	status.Source = manager.Source(status.ProviderID)
	return status, nil
}

// NeedsSetup returns true if no provider key can be found
func NeedsSetup(dataDir string) bool {
	status, err := DetectStatus(dataDir)
	return err != nil || !status.HasProvider
}

// IsInteractive returns true if stdin and stdout are terminals
func IsInteractive() bool {
	return isTerminal(os.Stdin) && isTerminal(os.Stdout)
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// PrintEnvInstructions explains how to configure a provider without the
// wizard.
func PrintEnvInstructions(w io.Writer) {
	fmt.Fprintln(w, "mockchat needs an LLM provider key to answer questions.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Set one of these environment variables (a .env file works too):")
	for _, id := range llm.AllProviderIDs() {
		fmt.Fprintf(w, "  %s=...\n", llm.EnvVarForProvider(id))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Or run 'mockchat auth connect' in a terminal.")
}
