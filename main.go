package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/logging"
	"github.com/any-hub/maven-hub/internal/maven"
	"github.com/any-hub/maven-hub/internal/proxy"
	"github.com/any-hub/maven-hub/internal/server"
	"github.com/any-hub/maven-hub/internal/server/routes"
	"github.com/any-hub/maven-hub/internal/upstream"
	"github.com/any-hub/maven-hub/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	offline     bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, opts)
	stop()
	os.Exit(code)
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(ctx context.Context, opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}
	if opts.offline {
		cfg.Proxy.Offline = true
	}

	logger, err := logging.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["repos"] = len(cfg.Remote.Repos)
		fields["offline"] = cfg.Proxy.Offline
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 磁盘缓存 → 上游客户端 → 代理 handler → TCP server，
	// 所有连接共享同一份缓存与 singleflight 状态。
	store, err := cache.NewStore(cfg.Proxy.Location)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化缓存目录失败: %v\n", err)
		return 1
	}

	remote := maven.NewRemote(cfg, upstream.NewClient(cfg), store, logger)
	handler := proxy.NewHandler(cfg, store, remote, logger)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["repos"] = cfg.Repos()
	fields["listen_port"] = cfg.Proxy.Port
	fields["cache_root"] = store.Root()
	fields["offline"] = cfg.Proxy.Offline
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if cfg.Proxy.AdminPort > 0 {
		app, err := startAdminServer(cfg, handler, logger)
		if err != nil {
			fmt.Fprintf(stdErr, "诊断服务启动失败: %v\n", err)
			return 1
		}
		defer app.Shutdown()
	}

	if err := startProxyServer(ctx, cfg, handler, logger); err != nil {
		fmt.Fprintf(stdErr, "代理服务启动失败: %v\n", err)
		return 1
	}
	logger.WithFields(logging.BaseFields("shutdown", opts.configPath)).Info("服务已停止")
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
// 未指定配置文件时使用内置默认值（仍可被 MAVEN_HUB_* 环境变量覆盖）。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("maven-hub", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		offline    bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（可被 MAVEN_HUB_CONFIG 覆盖，缺省使用内置默认值）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&offline, "offline", false, "离线模式：只使用本地缓存")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("MAVEN_HUB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		offline:     offline,
	}, nil
}

func startProxyServer(ctx context.Context, cfg *config.Config, handler *proxy.Handler, logger *logrus.Logger) error {
	srv, err := server.New(server.Options{
		Logger:  logger,
		Handler: handler,
		Threads: cfg.Proxy.Threads,
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", cfg.Proxy.Port)
	logger.WithFields(logrus.Fields{
		"action":  "listen",
		"port":    cfg.Proxy.Port,
		"threads": cfg.Proxy.Threads,
	}).Info("代理服务启动")

	return srv.ListenAndServe(ctx, addr)
}

func startAdminServer(cfg *config.Config, handler *proxy.Handler, logger *logrus.Logger) (*fiber.App, error) {
	port := cfg.Proxy.AdminPort
	app, err := server.NewAdminApp(server.AdminOptions{
		Logger: logger,
		Port:   port,
	})
	if err != nil {
		return nil, err
	}
	routes.RegisterDiagnosticsRoutes(app, cfg, handler)
	server.NotFound(app)

	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 诊断服务启动")

	go func() {
		if err := app.Listen(fmt.Sprintf(":%d", port)); err != nil && !errors.Is(err, context.Canceled) {
			logger.WithError(err).WithField("action", "listen").Error("诊断服务退出")
		}
	}()
	return app, nil
}
