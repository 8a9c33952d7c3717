package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/biokb/biokb-obo/internal/config"
	"github.com/biokb/biokb-obo/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const serviceName = "biokb-obo"

// app 命令共享的配置和日志
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Import OBO Foundry ontologies into a relational database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.NewLogger(cfg.Log, serviceName)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.cfg = cfg
			a.logger = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				a.logger.Sync()
			}
		},
	}
	root.AddCommand(newImportCmd(a), newStatusCmd(a))
	return root
}

func main() {
	a := &app{}
	root := newRootCmd(a)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 收到中断信号时取消正在进行的导入，当前事务回滚
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		if a.logger != nil {
			a.logger.Info("Received signal, cancelling", zap.String("signal", sig.String()))
		}
		cancel()
	}()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
