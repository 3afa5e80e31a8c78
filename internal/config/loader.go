package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix 为环境变量覆盖的前缀，例如 MAVEN_HUB_PROXY_OFFLINE=true。
const EnvPrefix = "MAVEN_HUB"

// Load 读取配置文件（TOML/YAML/JSON/.properties 由扩展名决定），同时注入默认值与校验逻辑。
// path 为空时仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}
	return decode(v)
}

// LoadMap 以扁平 key/value（如 "proxy.offline" → "true"）构建配置，主要供测试与嵌入场景使用。
func LoadMap(values map[string]string) (*Config, error) {
	v := newViper()
	for key, value := range values {
		v.Set(key, value)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absLocation, err := filepath.Abs(cfg.Proxy.Location)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Proxy.Location = absLocation

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("proxy.threads", 8)
	v.SetDefault("proxy.location", ".cache")
	v.SetDefault("proxy.port", 3000)
	v.SetDefault("proxy.offline", false)
	v.SetDefault("proxy.admin_port", 0)

	v.SetDefault("remote.repos", []string{RepoMavenCentral, RepoApache, RepoGradlePlugin})
	v.SetDefault("remote.exclude.extensions", []string{
		".asc", ".sha1", ".sha512", ".sha256", ".md5", "-release.zip", "-site.xml",
	})
	v.SetDefault("remote.exclude.classifiers", []string{
		"-javadoc.", "-tests.", "-test-sources.", "-groovydoc.",
	})
	v.SetDefault("remote.threads", 8)
	v.SetDefault("remote.batch_timeout", "5m")
	v.SetDefault("remote.timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.compress", true)
}

func applyDefaults(cfg *Config) {
	cfg.Remote.Repos = normalizeList(cfg.Remote.Repos)
	cfg.Remote.Exclude.Extensions = normalizeList(cfg.Remote.Exclude.Extensions)
	cfg.Remote.Exclude.Classifiers = normalizeList(cfg.Remote.Exclude.Classifiers)
	if cfg.Remote.BatchTimeout.DurationValue() == 0 {
		cfg.Remote.BatchTimeout = Duration(5 * time.Minute)
	}
	if cfg.Remote.Timeout.DurationValue() == 0 {
		cfg.Remote.Timeout = Duration(30 * time.Second)
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}

// normalizeList 去掉逗号分隔写法带来的空白与空项，保持原有顺序。
func normalizeList(items []string) []string {
	result := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
