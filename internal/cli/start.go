package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cennznet/cennzx-go/internal/server"
)

var (
	// Start flags
	listenAddr  string
	genesisFile string
)

// startCmd represents the start command (default action)
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the exchange daemon",
	Long: `Start cennzxd, which provides:
- HTTP JSON-RPC API for pricing, trading and liquidity management
- WebSocket feed of settled trades and liquidity changes
- Health check endpoint

This is the default command when no subcommand is specified.`,
	RunE: runStart,
}

func init() {
	rootCmd.AddCommand(startCmd)

	// Running the bare binary starts the daemon.
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runStart(cmd, args)
	}

	startCmd.Flags().StringVar(&listenAddr, "listen", "", "override configured listen address")
	startCmd.Flags().StringVar(&genesisFile, "genesis", "", "path to genesis JSON file")
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}
	if genesisFile != "" {
		cfg.GenesisFile = genesisFile
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting cennzxd",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("storage_backend", cfg.Storage.Backend),
		zap.Uint32("core_asset", cfg.Exchange.CoreAssetID))
	return srv.Run(ctx)
}
