package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/application"
	"github.com/relaydesk/relaybot/internal/infrastructure/config"
	"github.com/relaydesk/relaybot/internal/infrastructure/logger"
)

const (
	cliVersion = "0.3.0"
	cliName    = "relaybot"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          cliName,
		Short:        "Telegram relay bot with a staff group and a stats dashboard",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "配置文件路径 (默认搜索 ./config 和当前目录)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "启动机器人和统计面板",
		Long:  "启动 Telegram 长轮询与 HTTP 统计面板, 收到 SIGINT/SIGTERM 后优雅退出",
		RunE:  runServe,
	})

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "在终端打印统计信息",
		RunE:  runStats,
	}
	statsCmd.Flags().Bool("users", false, "同时列出用户")
	statsCmd.Flags().Bool("activity", false, "同时列出最近活动")
	rootCmd.AddCommand(statsCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "生成默认配置文件和数据目录",
		RunE:  runInit,
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "显示版本",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s v%s\n", cliName, cliVersion)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ─── serve ───

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, level, err := logger.NewLeveledLogger(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		OutputPath: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	log.Info("Starting relay bot",
		zap.String("name", cliName),
		zap.String("version", cliVersion),
		zap.String("config", cfg.ConfigFileUsed()),
		zap.String("storage", cfg.Storage.Type),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := application.NewApp(cfg, log, level)
	if err != nil {
		log.Error("Failed to initialize application", zap.Error(err))
		return err
	}

	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = app.Stop(shutdownCtx)
		return err
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Received shutdown signal", zap.String("signal", sig.String()))
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
		return err
	}
	return nil
}

// ─── stats ───

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// Quiet logger for CLI
	log, err := logger.NewLogger(logger.Config{
		Level:      "error",
		Format:     "console",
		OutputPath: "stderr",
	})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	app, err := application.NewReadOnlyApp(cfg, log)
	if err != nil {
		return err
	}
	defer app.Stop(context.Background())

	ctx := cmd.Context()
	summary, err := app.Stats().Summary(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	fmt.Println(renderSummary(summary))

	if show, _ := cmd.Flags().GetBool("users"); show {
		users, err := app.Stats().Users(ctx)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		fmt.Println(renderUsers(users))
	}

	if show, _ := cmd.Flags().GetBool("activity"); show {
		activity, err := app.Stats().RecentActivity(ctx)
		if err != nil {
			return fmt.Errorf("recent activity: %w", err)
		}
		fmt.Println(renderActivity(activity))
	}
	return nil
}

// ─── init ───

func runInit(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultConfigPath
	}

	log, err := logger.NewLogger(logger.Config{Level: "info", Format: "console", OutputPath: "stderr"})
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer log.Sync()

	created, err := config.Bootstrap(path, log)
	if err != nil {
		return err
	}
	if created {
		fmt.Println(okStyle.Render("✓") + " wrote " + path)
	} else {
		fmt.Println(dimStyle.Render(path + " already exists, left untouched"))
	}
	return nil
}
