// Package main provides the PawCheck CLI application entry point.
// PawCheck is a terminal client for the pet-health assistant: general pet care
// chat and guided symptom checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pawcheck/internal/backend"
	"pawcheck/internal/config"
	"pawcheck/internal/controller"
	"pawcheck/internal/hydration"
	"pawcheck/internal/logger"
	"pawcheck/internal/render"
	"pawcheck/internal/shell"
	"pawcheck/internal/testutils"
	"pawcheck/internal/version"
)

var (
	logLevel   string
	logFile    string
	configFile string
	baseURL    string
	testMode   bool
	cfg        *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pawcheck",
	Short: "PawCheck - pet health assistant",
	Long: `PawCheck is a terminal client for the PawCheck pet health assistant.
Chat about pet care or run a guided symptom check for one of your pets.`,
	PersistentPreRunE: initConfig,
	Run:               runChat,
}

// chatCmd is the explicit version of the default behavior
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat",
	Run:   runChat,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List previous conversations",
	RunE:  runHistory,
}

var showCmd = &cobra.Command{
	Use:   "show <conversation-id>",
	Short: "Print a previous conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.GetDetailedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/pawcheck/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "PawCheck API base URL")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Run in deterministic test mode")

	bindings := map[string]string{
		config.KeyLogLevel: "log-level",
		config.KeyLogFile:  "log-file",
		config.KeyBaseURL:  "base-url",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", flag, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig(cmd *cobra.Command, _ []string) error {
	if cmd == versionCmd {
		return nil
	}
	loaded, err := config.Load(viper.GetViper(), config.LoadOptions{ConfigFile: configFile})
	if err != nil {
		return err
	}
	if err := logger.Configure(loaded.LogLevel, loaded.LogFile); err != nil {
		return fmt.Errorf("error configuring logger: %w", err)
	}
	cfg = loaded
	return nil
}

func newClient() *backend.Client {
	token := backend.NewStaticToken(cfg.Token)
	logger.Debug("Using credentials", "base_url", cfg.BaseURL, "subject", token.Subject())
	return backend.NewClient(cfg.BaseURL, token, backend.WithTimeout(cfg.Timeout))
}

func newPrinter() *render.Printer {
	opts := []render.Option{
		render.WithStyles(render.NewThemeStyleProvider(cfg.Render.Style)),
		render.WithWidth(cfg.Render.Width),
	}
	if testMode {
		opts = append(opts, render.TestMode())
	}
	return render.NewPrinter(opts...)
}

func newController(client *backend.Client, auth controller.AuthEscalator) *controller.Controller {
	return controller.New(client,
		controller.WithAuthEscalator(auth),
		controller.WithIDGenerator(testutils.IDGenerator(testMode)),
		controller.WithClock(testutils.Clock(testMode)),
	)
}

func runChat(_ *cobra.Command, _ []string) {
	logger.Info("Starting PawCheck", "version", version.GetVersion())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := newClient()
	printer := newPrinter()

	var sh *shell.Shell
	ctrl := newController(client, controller.AuthEscalatorFunc(func(reason error) {
		sh.Logout(reason)
	}))
	sh = shell.New(ctrl, client, printer)

	if err := sh.Preload(ctx); err != nil {
		if backend.IsUnauthorized(err) {
			printer.Error("Your session has expired. Please log in again.")
			return
		}
		logger.Warn("Could not preload pets and conversations", "error", err)
	}
	sh.CheckCompatibility(client.MinClientVersion())

	sh.Run(ctx,
		version.GetFormattedVersion()+" - pet health assistant",
		"Type '\\mode general' or '\\mode symptom' to begin, '\\help' for commands or '\\exit' to quit.",
	)
}

func runHistory(_ *cobra.Command, _ []string) error {
	client := newClient()
	records, err := client.ListConversations(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list conversations: %w", err)
	}
	newPrinter().Summaries(hydration.Summaries(records))
	return nil
}

func runShow(_ *cobra.Command, args []string) error {
	client := newClient()
	history, err := client.GetConversation(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("failed to load conversation %s: %w", args[0], err)
	}
	newPrinter().Transcript(hydration.SessionFromHistory(args[0], history))
	return nil
}
