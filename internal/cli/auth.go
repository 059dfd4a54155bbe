package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/yolodolo42/mockchat/internal/auth"
	"github.com/yolodolo42/mockchat/internal/config"
	"github.com/yolodolo42/mockchat/internal/llm"
	"github.com/yolodolo42/mockchat/internal/setup"
	"github.com/yolodolo42/mockchat/internal/ui"
)

const keyTestTimeout = 30 * time.Second

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage LLM provider authentication",
	Long:  `Connect, disconnect, and manage API keys for LLM providers.`,
}

var authConnectCmd = &cobra.Command{
	Use:   "connect [provider]",
	Short: "Connect to an LLM provider",
	Long: `Connect to an LLM provider by providing an API key.

Supported providers:
  gemini      - Google Gemini (default)
  openai      - OpenAI GPT
  anthropic   - Anthropic Claude
  openrouter  - OpenRouter`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthConnect,
}

var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected providers",
	RunE:  runAuthList,
}

var authDisconnectCmd = &cobra.Command{
	Use:   "disconnect <provider>",
	Short: "Disconnect from a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthDisconnect,
}

var authDefaultCmd = &cobra.Command{
	Use:   "default [provider]",
	Short: "Get or set the default provider",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthDefault,
}

var authTestCmd = &cobra.Command{
	Use:   "test <provider>",
	Short: "Test connection to a provider",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthTest,
}

// keyValidator checks a key against the provider. Tests replace it.
var keyValidator setup.KeyValidator = setup.ValidateKey

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authConnectCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authDisconnectCmd)
	authCmd.AddCommand(authDefaultCmd)
	authCmd.AddCommand(authTestCmd)

	authConnectCmd.Flags().String("key", "", "API key (will prompt if not provided)")
	authConnectCmd.Flags().Bool("skip-test", false, "save the key without a test request")
}

func getAuthManager() (*auth.Manager, error) {
	return auth.NewManager(viper.GetString(config.KeyDataDir))
}

func parseProviderArg(arg string) (llm.ProviderID, error) {
	return llm.ParseProviderID(strings.ToLower(strings.TrimSpace(arg)))
}

func runAuthConnect(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var providerID llm.ProviderID
	if len(args) == 0 {
		// Interactive provider selection
		fmt.Fprintln(out, "Select a provider to connect:")
		providers := llm.AllProviderIDs()
		for i, p := range providers {
			fmt.Fprintf(out, "  %d. %s\n", i+1, auth.GetProviderInfo(p).Label)
		}
		fmt.Fprint(out, "\nEnter number: ")

		line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 1 || choice > len(providers) {
			return fmt.Errorf("invalid selection")
		}
		providerID = providers[choice-1]
	} else {
		id, err := parseProviderArg(args[0])
		if err != nil {
			return err
		}
		providerID = id
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	apiKey, _ := cmd.Flags().GetString("key")
	if apiKey == "" {
		// Show hint about env var
		if envVar := auth.GetEnvVarHint(providerID); envVar != "" {
			fmt.Fprintf(out, "Tip: You can also set %s environment variable\n", envVar)
		}
		if url := auth.GetProviderInfo(providerID).KeyURL; url != "" {
			fmt.Fprintf(out, "Get a key at %s\n", url)
		}
		fmt.Fprintln(out)

		fmt.Fprintf(out, "Enter API key for %s: ", providerID)
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		apiKey = string(keyBytes)
	}

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	if skip, _ := cmd.Flags().GetBool("skip-test"); !skip {
		ctx, cancel := context.WithTimeout(cmd.Context(), keyTestTimeout)
		defer cancel()
		if err := keyValidator(ctx, providerID, apiKey); err != nil {
			return fmt.Errorf("key test failed: %w", err)
		}
	}

	if err := manager.SetAPIKey(providerID, apiKey); err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	if len(manager.ListConnected()) == 1 {
		_ = manager.SetDefaultProvider(providerID)
	}

	fmt.Fprintf(out, "%s Successfully connected to %s\n", ui.SymbolCheck, providerID)
	return nil
}

func runAuthList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	connected := manager.ListConnected()
	defaultProvider := manager.GetDefaultProvider()

	if len(connected) == 0 {
		fmt.Fprintln(out, "No providers connected.")
		fmt.Fprintln(out, "\nUse 'mockchat auth connect <provider>' to connect a provider.")
		fmt.Fprintln(out, "Or set environment variables:")
		for _, id := range llm.AllProviderIDs() {
			fmt.Fprintf(out, "  %s=...\n", llm.EnvVarForProvider(id))
		}
		return nil
	}

	fmt.Fprintln(out, "Connected providers:")
	for _, id := range connected {
		marker := "  "
		if id == defaultProvider {
			marker = "* "
		}
		fmt.Fprintf(out, "%s%-12s (%s)\n", marker, id, manager.Source(id))
	}

	fmt.Fprintf(out, "\n* = default provider\n")
	return nil
}

func runAuthDisconnect(cmd *cobra.Command, args []string) error {
	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if err := manager.RemoveCredential(providerID); err != nil {
		return fmt.Errorf("failed to disconnect: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Disconnected from %s\n", providerID)
	if src := manager.Source(providerID); src == "env" || src == "config" {
		fmt.Fprintf(cmd.OutOrStdout(), "Note: a key is still provided by %s\n", src)
	}
	return nil
}

func runAuthDefault(cmd *cobra.Command, args []string) error {
	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Default provider: %s\n", manager.GetDefaultProvider())
		return nil
	}

	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	if !manager.HasCredential(providerID) {
		return fmt.Errorf("provider %s is not connected. Connect it first with 'mockchat auth connect %s'", providerID, providerID)
	}

	if err := manager.SetDefaultProvider(providerID); err != nil {
		return fmt.Errorf("failed to set default provider: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Default provider set to: %s\n", providerID)
	return nil
}

func runAuthTest(cmd *cobra.Command, args []string) error {
	providerID, err := parseProviderArg(args[0])
	if err != nil {
		return err
	}

	manager, err := getAuthManager()
	if err != nil {
		return err
	}

	apiKey, err := manager.GetAPIKey(providerID)
	if err != nil {
		return fmt.Errorf("no credentials found for %s", providerID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Testing connection to %s (key %s)...\n", providerID, maskKey(apiKey))

	ctx, cancel := context.WithTimeout(cmd.Context(), keyTestTimeout)
	defer cancel()
	if err := keyValidator(ctx, providerID, apiKey); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s %s is working\n", ui.SymbolCheck, providerID)
	return nil
}

// maskKey shows only the ends of a key.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + "..." + key[len(key)-4:]
}
