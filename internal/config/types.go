package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// 默认上游仓库，按优先级排列。
const (
	RepoMavenCentral = "https://repo1.maven.org/maven2"
	RepoApache       = "https://repo.maven.apache.org/maven2"
	RepoGradlePlugin = "https://plugins.gradle.org/m2"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// ProxyConfig 描述本地监听与缓存目录相关的参数（proxy.*）。
type ProxyConfig struct {
	Threads   int    `mapstructure:"threads"`
	Location  string `mapstructure:"location"`
	Port      int    `mapstructure:"port"`
	Offline   bool   `mapstructure:"offline"`
	AdminPort int    `mapstructure:"admin_port"`
}

// ExcludeConfig 描述目录列表中需要跳过的文件（remote.exclude.*）。
type ExcludeConfig struct {
	Extensions  []string `mapstructure:"extensions"`
	Classifiers []string `mapstructure:"classifiers"`
}

// RemoteConfig 描述上游仓库及下载并发（remote.*）。
type RemoteConfig struct {
	Repos        []string      `mapstructure:"repos"`
	Exclude      ExcludeConfig `mapstructure:"exclude"`
	Threads      int           `mapstructure:"threads"`
	BatchTimeout Duration      `mapstructure:"batch_timeout"`
	Timeout      Duration      `mapstructure:"timeout"`
}

// LogConfig 控制日志级别与滚动文件输出（log.*）。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// Config 是配置文件映射的整体结构，启动后只读，构造各组件时显式传入。
type Config struct {
	Proxy  ProxyConfig  `mapstructure:"proxy"`
	Remote RemoteConfig `mapstructure:"remote"`
	Log    LogConfig    `mapstructure:"log"`
}

// Repos 返回去掉末尾斜杠后的上游地址，拼接目录路径时不会出现双斜杠。
func (c *Config) Repos() []string {
	result := make([]string, 0, len(c.Remote.Repos))
	for _, repo := range c.Remote.Repos {
		result = append(result, strings.TrimRight(strings.TrimSpace(repo), "/"))
	}
	return result
}
