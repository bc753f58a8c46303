package application

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/relaydesk/relaybot/internal/application/usecase"
	"github.com/relaydesk/relaybot/internal/domain/service"
	"github.com/relaydesk/relaybot/internal/infrastructure/config"
	"github.com/relaydesk/relaybot/internal/infrastructure/eventbus"
	applog "github.com/relaydesk/relaybot/internal/infrastructure/logger"
	"github.com/relaydesk/relaybot/internal/infrastructure/monitoring"
	"github.com/relaydesk/relaybot/internal/infrastructure/persistence"
	httpServer "github.com/relaydesk/relaybot/internal/interfaces/http"
	"github.com/relaydesk/relaybot/internal/interfaces/telegram"
)

const eventBufferSize = 256

// App 应用程序
type App struct {
	// 配置
	config *config.Config
	logger *zap.Logger
	level  zap.AtomicLevel

	// 仓储层
	repos *persistence.Repositories

	// 基础设施
	bus         *eventbus.InMemoryBus
	registry    *prometheus.Registry
	httpMetrics *monitoring.HTTPMetrics
	bot         *tgbotapi.BotAPI
	messenger   service.Messenger

	// 领域服务
	texts  *service.TextCatalog
	engine *service.RelayEngine

	// 应用服务
	staffCommands *usecase.StaffCommandUseCase
	stats         *usecase.StatsQuery

	// 接口层
	telegramAdapter *telegram.Adapter
	httpServer      *httpServer.Server
}

// NewApp 创建应用程序（依赖注入容器）
//
// level is the logger's atomic level; it follows log.level on config reload.
func NewApp(cfg *config.Config, logger *zap.Logger, level zap.AtomicLevel) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
		level:  level,
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := app.initInfrastructure(); err != nil {
		app.Stop(context.Background())
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}

	app.initDomainServices()
	app.initApplicationServices()

	if err := app.initInterfaces(); err != nil {
		app.Stop(context.Background())
		return nil, fmt.Errorf("failed to init interfaces: %w", err)
	}

	return app, nil
}

// NewReadOnlyApp builds only the store and the stats query, for CLI
// inspection. Nothing talks to Telegram.
func NewReadOnlyApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
	}
	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	app.initApplicationServices()
	return app, nil
}

// initRepositories 初始化仓储层
func (app *App) initRepositories() error {
	repos, err := persistence.NewRepositories(app.config.Storage, app.logger)
	if err != nil {
		return err
	}
	app.repos = repos

	app.logger.Info("Repositories initialized",
		zap.String("type", app.config.Storage.Type),
		zap.String("dir", app.config.Storage.Dir),
	)
	return nil
}

// initInfrastructure 初始化事件总线、指标和 Bot 客户端
func (app *App) initInfrastructure() error {
	app.bus = eventbus.NewInMemoryBus(app.logger, eventBufferSize)

	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	relayMetrics, err := monitoring.NewRelayMetrics(app.registry, app.logger)
	if err != nil {
		return err
	}
	relayMetrics.Subscribe(app.bus)
	if err := relayMetrics.WatchQueue(app.bus); err != nil {
		return err
	}

	app.httpMetrics, err = monitoring.NewHTTPMetrics(app.registry)
	if err != nil {
		return err
	}

	app.bus.Subscribe(eventbus.Wildcard, func(_ context.Context, event eventbus.Event) {
		app.logger.Debug("Domain event", zap.String("type", event.Type), zap.Any("payload", event.Payload))
	})

	bot, err := telegram.NewBot(app.config.Telegram, app.logger)
	if err != nil {
		return err
	}
	app.bot = bot
	app.messenger = telegram.NewBotMessenger(bot)
	return nil
}

// initDomainServices 初始化领域服务
func (app *App) initDomainServices() {
	app.texts = service.NewTextCatalog(textsFromConfig(app.config.Texts))

	app.engine = service.NewRelayEngine(
		service.RelayStores{
			Users:    app.repos.Users,
			History:  app.repos.History,
			Bans:     app.repos.Bans,
			Mappings: app.repos.Mappings,
		},
		app.messenger,
		app.texts,
		app.bus,
		app.config.Telegram.StaffChatID,
		app.logger,
	)
}

// initApplicationServices 初始化应用服务
func (app *App) initApplicationServices() {
	app.stats = usecase.NewStatsQuery(usecase.StatsStores{
		Users:    app.repos.Users,
		History:  app.repos.History,
		Bans:     app.repos.Bans,
		Mappings: app.repos.Mappings,
	})

	if app.engine == nil {
		return
	}

	app.staffCommands = usecase.NewStaffCommandUseCase(
		usecase.Stores{
			Users:      app.repos.Users,
			History:    app.repos.History,
			Bans:       app.repos.Bans,
			Broadcasts: app.repos.Broadcasts,
			Mappings:   app.repos.Mappings,
		},
		app.messenger,
		app.texts,
		app.bus,
		app.config.Telegram.StaffChatID,
		app.config.Broadcast.RatePerSecond,
		app.logger,
	)
}

// initInterfaces 初始化接口层
func (app *App) initInterfaces() error {
	registry := telegram.NewCommandRegistry()
	telegram.RegisterStaffCommands(registry, app.staffCommands)

	app.telegramAdapter = telegram.NewAdapter(
		app.bot,
		app.engine,
		registry,
		app.messenger,
		app.config.Telegram.StaffChatID,
		app.logger,
	)

	app.httpServer = httpServer.NewServer(
		httpServer.Config{
			Host: app.config.HTTP.Host,
			Port: app.config.HTTP.Port,
			Mode: app.config.HTTP.Mode,
		},
		app.stats,
		app.httpMetrics,
		app.registry,
		app.logger,
	)
	return nil
}

// Start 启动应用程序
func (app *App) Start(ctx context.Context) error {
	app.logger.Info("Starting application",
		zap.Int64("staff_chat_id", app.config.Telegram.StaffChatID),
		zap.String("http", app.config.HTTP.Addr()),
	)

	if err := app.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	if err := app.telegramAdapter.Start(ctx); err != nil {
		return fmt.Errorf("failed to start telegram adapter: %w", err)
	}

	app.config.Watch(app.logger, app.reload)

	app.logger.Info("Application started successfully")
	return nil
}

// reload applies hot-reloadable settings.
func (app *App) reload(texts config.TextsConfig, logLevel string) {
	app.texts.Replace(textsFromConfig(texts))
	if logLevel != "" {
		app.level.SetLevel(applog.ParseLevel(logLevel))
	}
	app.logger.Info("Configuration reloaded", zap.String("log_level", logLevel))
}

// Stop 停止应用程序
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("Stopping application")

	if app.telegramAdapter != nil {
		app.telegramAdapter.Stop()
	}

	if app.httpServer != nil {
		if err := app.httpServer.Stop(ctx); err != nil {
			app.logger.Error("Failed to stop HTTP server", zap.Error(err))
		}
	}

	if app.bus != nil {
		app.bus.Close()
	}

	if app.repos != nil {
		if err := app.repos.Close(); err != nil {
			app.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	app.logger.Info("Application stopped successfully")
	return nil
}

// Stats returns the dashboard query (used by the stats CLI command).
func (app *App) Stats() *usecase.StatsQuery {
	return app.stats
}

// Logger returns the application logger
func (app *App) Logger() *zap.Logger {
	return app.logger
}

func textsFromConfig(t config.TextsConfig) service.Texts {
	return service.Texts{
		Welcome:         t.Welcome,
		Confirmation:    t.Confirmation,
		Banned:          t.Banned,
		Unbanned:        t.Unbanned,
		StartButton:     t.StartButton,
		ReplyHeader:     t.ReplyHeader,
		BroadcastHeader: t.BroadcastHeader,
	}.WithDefaults()
}
