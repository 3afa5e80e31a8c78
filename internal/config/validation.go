package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	p := c.Proxy
	if p.Threads <= 0 {
		return newFieldError("proxy.threads", "必须大于 0")
	}
	if strings.TrimSpace(p.Location) == "" {
		return newFieldError("proxy.location", "不能为空")
	}
	if p.Port <= 0 || p.Port > 65535 {
		return newFieldError("proxy.port", "必须在 1-65535")
	}
	if p.AdminPort < 0 || p.AdminPort > 65535 {
		return newFieldError("proxy.admin_port", "必须在 0-65535")
	}
	if p.AdminPort != 0 && p.AdminPort == p.Port {
		return newFieldError("proxy.admin_port", "不能与 proxy.port 相同")
	}

	r := c.Remote
	if len(r.Repos) == 0 {
		return newFieldError("remote.repos", "至少需要配置一个上游仓库")
	}
	for i, repo := range r.Repos {
		if err := validateUpstream(repo); err != nil {
			return fmt.Errorf("%s: %w", repoField(i), err)
		}
	}
	if r.Threads <= 0 {
		return newFieldError("remote.threads", "必须大于 0")
	}
	if r.BatchTimeout.DurationValue() <= 0 {
		return newFieldError("remote.batch_timeout", "必须大于 0")
	}
	if r.Timeout.DurationValue() <= 0 {
		return newFieldError("remote.timeout", "必须大于 0")
	}

	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	if parsed.RawQuery != "" || parsed.Fragment != "" {
		return fmt.Errorf("上游地址不应包含查询参数: %s", raw)
	}
	return nil
}
