package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Bessima/orderflow/internal/config"
	"github.com/Bessima/orderflow/internal/middlewares/logger"
	"github.com/spf13/cobra"
)

var (
	userID   int
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "ordersctl",
	Short: "Operator tools for the orderflow service",
	Long: `ordersctl applies database migrations, imports order spreadsheets,
issues API tokens and follows the order change feed.

Connection settings are read from the environment (DATABASE_URI, REDIS_ADDR,
KAFKA_BROKERS, JWT_SECRET), a .env file is loaded when present.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logger.Initialize(logLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	return config.FromEnv()
}

func requireUser(cmd *cobra.Command) {
	cmd.Flags().IntVar(&userID, "user", 0, "owner user id")
	_ = cmd.MarkFlagRequired("user")
}
