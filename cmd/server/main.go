package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/wfunc/noodle-rush/internal/api"
	"github.com/wfunc/noodle-rush/internal/config"
	"github.com/wfunc/noodle-rush/internal/database"
	"github.com/wfunc/noodle-rush/internal/errors"
	"github.com/wfunc/noodle-rush/internal/game"
	"github.com/wfunc/noodle-rush/internal/game/rng"
	"github.com/wfunc/noodle-rush/internal/game/state"
	"github.com/wfunc/noodle-rush/internal/logger"
	"github.com/wfunc/noodle-rush/internal/repository"
	"github.com/wfunc/noodle-rush/internal/websocket"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	db      *gorm.DB
	hub     *websocket.Hub
	service *game.GameService
	http    *http.Server

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	printStartInfo(cfg)

	server := NewServer(cfg)

	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	return &Server{
		cfg:        cfg,
		logger:     logger.GetLogger(),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动面馆经营服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	if err := s.initComponents(); err != nil {
		return errors.Wrap(err, errors.ErrUnknown, "初始化组件失败")
	}

	s.startServices()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.reloadConfig(newCfg)
	})

	s.logger.Info("服务器启动成功",
		zap.String("http", s.http.Addr),
		zap.String("websocket", s.cfg.WebSocket.Path),
	)
	return nil
}

// initComponents 初始化组件
func (s *Server) initComponents() error {
	s.logger.Info("初始化组件...")

	if err := s.initDatabase(); err != nil {
		return err
	}

	s.initGame()
	s.initHTTPServer()

	s.logger.Info("所有组件初始化完成")
	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.db = database.GetDB()
	s.logger.Info("数据库初始化完成")
	return nil
}

// initGame 组装状态存储、存档、展示层与游戏服务，并恢复存档
func (s *Server) initGame() {
	repos := repository.NewManager(s.db)
	persistence := game.NewBlobPersistence(repos.SaveSlot(), settingsDefaults(s.cfg.Settings),
		logger.GetModuleLogger("persistence"))

	s.hub = websocket.NewHub(logger.GetModuleLogger("websocket"),
		websocket.WithPingInterval(s.cfg.WebSocket.PingInterval))

	gameCfg := s.cfg.Game
	store := state.NewStore(
		state.WithPersistence(persistence),
		state.WithNewGame(func() *state.Document {
			return state.NewDocument(state.NewGameOptions{
				StartingFunds:         gameCfg.StartingFunds,
				InvestorClashInterval: gameCfg.InvestorClashInterval,
			})
		}),
		state.WithLogger(logger.GetModuleLogger("state")),
		state.WithPersistErrorHook(func(err error) {
			s.hub.Publish(websocket.MessageTypeSaveFailed, map[string]string{"error": err.Error()})
		}),
	)

	s.service = game.NewGameService(&game.GameServiceConfig{
		Store:         store,
		Persistence:   persistence,
		Settings:      persistence,
		Random:        rng.NewSeededRandomGenerator(gameCfg.Seed),
		EventChance:   gameCfg.EventChance,
		ClashInterval: gameCfg.InvestorClashInterval,
		InterestRate:  gameCfg.LoanInterestRate,
		LoanLimit:     gameCfg.LoanLimit,
		Recorder:      game.NewRunRecorder(repos.DeliveryRun()),
		Runs:          repos.DeliveryRun(),
		Presenter:     s.hub,
		Logger:        logger.GetModuleLogger("game"),
	})
	s.hub.SetStateSource(s.service.State)

	source := s.service.Recover(s.ctx)
	s.logger.Info("游戏状态已就绪", zap.String("source", string(source)))
}

// initHTTPServer 初始化HTTP服务
func (s *Server) initHTTPServer() {
	router := api.NewRouter(api.RouterConfig{
		Service:         s.service,
		Hub:             s.hub,
		DB:              s.db,
		WebSocketPath:   s.cfg.WebSocket.Path,
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
		OpenAPIFile:     s.cfg.Server.OpenAPIFile,
		Logger:          logger.GetModuleLogger("api"),
	})

	s.http = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:      router.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}
}

// startServices 启动服务
func (s *Server) startServices() {
	s.logger.Info("启动服务...")

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(s.ctx)
		s.logger.Info("WebSocket Hub已停止")
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP服务异常退出", zap.Error(err))
		}
	}()

	s.logger.Info("所有服务启动完成")
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))

	close(s.shutdownCh)
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭失败", zap.Error(err))
	}

	// 取消主上下文，触发所有goroutine退出
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("所有服务已正常关闭")
	case <-shutdownCtx.Done():
		s.logger.Warn("关闭超时，强制退出")
		return errors.New(errors.ErrTimeout, "关闭超时")
	}

	s.closeComponents()

	logger.Cleanup()
	return nil
}

// closeComponents 关闭组件，等待存档写入完成后再断开数据库
func (s *Server) closeComponents() {
	s.logger.Info("关闭组件...")

	if s.service != nil {
		s.service.Close()
	}

	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	s.logger.Info("所有组件已关闭")
}

// reloadConfig 重新加载配置，只有日志级别可以热更新
func (s *Server) reloadConfig(newCfg *config.Config) {
	logger.SetLevel(newCfg.Log.Level)
	s.logger.Info("配置重新加载完成", zap.String("log_level", newCfg.Log.Level))
}

// settingsDefaults 配置中的玩家设置默认值
func settingsDefaults(cfg config.SettingsConfig) state.Settings {
	return state.Settings{
		MasterVolume:     cfg.MasterVolume,
		MusicVolume:      cfg.MusicVolume,
		SfxVolume:        cfg.SfxVolume,
		AutosaveEnabled:  cfg.AutosaveEnabled,
		AutosaveInterval: cfg.AutosaveInterval,
	}
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("面馆经营服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("面馆经营服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  noodle-rush-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  NOODLE_RUSH_SERVER_PORT      HTTP端口")
	fmt.Println("  NOODLE_RUSH_DATABASE_DSN     数据库连接串")
	fmt.Println("  NOODLE_RUSH_GAME_SEED        随机种子 (0 表示按时间)")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  noodle-rush-server -config=/path/to/config.yaml")
	fmt.Println("  noodle-rush-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Println("                    Noodle Rush 面馆经营服务器")
	fmt.Println("═══════════════════════════════════════════════════════════════")
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Printf("数据库: %s | 监听: %s:%d\n", cfg.Database.Driver, cfg.Server.Host, cfg.Server.Port)
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
