package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/proxy"
	"github.com/any-hub/maven-hub/internal/version"
)

// StatsProvider 提供请求计数快照，*proxy.Handler 实现该接口。
type StatsProvider interface {
	Stats() proxy.StatsSnapshot
}

type statusPayload struct {
	Version   string              `json:"version"`
	Offline   bool                `json:"offline"`
	CacheRoot string              `json:"cache_root"`
	Port      int                 `json:"port"`
	Stats     proxy.StatsSnapshot `json:"stats"`
}

type reposPayload struct {
	Repos       []string `json:"repos"`
	Extensions  []string `json:"excluded_extensions"`
	Classifiers []string `json:"excluded_classifiers"`
	Threads     int      `json:"threads"`
}

// RegisterDiagnosticsRoutes 暴露 /-/status 与 /-/repos 诊断接口，供运维查询运行状态与上游配置。
func RegisterDiagnosticsRoutes(app *fiber.App, cfg *config.Config, stats StatsProvider) {
	if app == nil || cfg == nil || stats == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(cfg, stats.Stats()))
	})

	app.Get("/-/repos", func(c fiber.Ctx) error {
		return c.JSON(encodeRepos(cfg))
	})
}

func encodeStatus(cfg *config.Config, snapshot proxy.StatsSnapshot) statusPayload {
	return statusPayload{
		Version:   version.Full(),
		Offline:   cfg.Proxy.Offline,
		CacheRoot: cfg.Proxy.Location,
		Port:      cfg.Proxy.Port,
		Stats:     snapshot,
	}
}

func encodeRepos(cfg *config.Config) reposPayload {
	return reposPayload{
		Repos:       cfg.Repos(),
		Extensions:  append([]string(nil), cfg.Remote.Exclude.Extensions...),
		Classifiers: append([]string(nil), cfg.Remote.Exclude.Classifiers...),
		Threads:     cfg.Remote.Threads,
	}
}
