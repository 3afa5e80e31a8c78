package config

import (
	"errors"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Proxy.Threads != 8 || cfg.Remote.Threads != 8 {
		t.Fatalf("线程数默认值错误: %d/%d", cfg.Proxy.Threads, cfg.Remote.Threads)
	}
	if cfg.Proxy.Port != 3000 {
		t.Fatalf("端口默认值错误: %d", cfg.Proxy.Port)
	}
	if cfg.Proxy.Offline {
		t.Fatalf("默认不应离线")
	}
	want := []string{RepoMavenCentral, RepoApache, RepoGradlePlugin}
	if len(cfg.Remote.Repos) != len(want) {
		t.Fatalf("默认仓库数量错误: %v", cfg.Remote.Repos)
	}
	for i := range want {
		if cfg.Remote.Repos[i] != want[i] {
			t.Fatalf("默认仓库顺序错误: %v", cfg.Remote.Repos)
		}
	}
	if len(cfg.Remote.Exclude.Extensions) != 7 {
		t.Fatalf("默认扩展名排除列表错误: %v", cfg.Remote.Exclude.Extensions)
	}
	if cfg.Remote.BatchTimeout.DurationValue() != 5*time.Minute {
		t.Fatalf("批量下载超时默认值错误: %s", cfg.Remote.BatchTimeout.DurationValue())
	}
}

func TestLoadTOML(t *testing.T) {
	cfg, err := Load(testConfigPath(t, "valid.toml"))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if cfg.Proxy.Threads != 4 || cfg.Remote.Threads != 6 {
		t.Fatalf("线程数解析错误: %+v", cfg)
	}
	if cfg.Remote.BatchTimeout.DurationValue() != 2*time.Minute {
		t.Fatalf("batch_timeout 解析错误: %s", cfg.Remote.BatchTimeout.DurationValue())
	}
	if len(cfg.Remote.Exclude.Classifiers) != 1 {
		t.Fatalf("classifier 解析错误: %v", cfg.Remote.Exclude.Classifiers)
	}
}

func TestLoadMapOverridesDefaults(t *testing.T) {
	cfg, err := LoadMap(map[string]string{
		"proxy.offline": "true",
		"remote.repos":  "http://127.0.0.1:1/repo/",
	})
	if err != nil {
		t.Fatalf("LoadMap 返回错误: %v", err)
	}
	if !cfg.Proxy.Offline {
		t.Fatalf("proxy.offline 应为 true")
	}
	if repos := cfg.Repos(); len(repos) != 1 || repos[0] != "http://127.0.0.1:1/repo" {
		t.Fatalf("Repos 应去掉末尾斜杠: %v", repos)
	}
}

func TestValidateEnforcesPortRange(t *testing.T) {
	cfg := validConfig()
	cfg.Proxy.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Fatalf("proxy.port 超出范围应当报错")
	}
}

func TestValidateRejectsAdminPortCollision(t *testing.T) {
	cfg := validConfig()
	cfg.Proxy.AdminPort = cfg.Proxy.Port
	err := cfg.Validate()
	var fieldErr FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Field != "proxy.admin_port" {
		t.Fatalf("期望 proxy.admin_port 字段错误，得到 %v", err)
	}
}

func TestValidateRepos(t *testing.T) {
	testCases := []struct {
		name      string
		repo      string
		shouldErr bool
	}{
		{"https ok", "https://repo1.maven.org/maven2", false},
		{"http ok", "http://localhost:8081/repository/maven-public", false},
		{"missing scheme", "repo1.maven.org/maven2", true},
		{"ftp", "ftp://mirror.local/maven2", true},
		{"query", "https://repo1.maven.org/maven2?x=1", true},
		{"empty", "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Remote.Repos = []string{tc.repo}
			err := cfg.Validate()
			if tc.shouldErr && err == nil {
				t.Fatalf("expected error for repo %q", tc.repo)
			}
			if !tc.shouldErr && err != nil {
				t.Fatalf("unexpected error for repo %q: %v", tc.repo, err)
			}
		})
	}
}

func TestValidateRequiresThreads(t *testing.T) {
	cfg := validConfig()
	cfg.Remote.Threads = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("remote.threads 为 0 时应报错")
	}
}

func validConfig() *Config {
	return &Config{
		Proxy: ProxyConfig{
			Threads:  8,
			Location: "./data",
			Port:     3000,
		},
		Remote: RemoteConfig{
			Repos:        []string{RepoMavenCentral},
			Threads:      8,
			BatchTimeout: Duration(time.Minute),
			Timeout:      Duration(time.Second),
		},
	}
}
