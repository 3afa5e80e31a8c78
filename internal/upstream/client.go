// Package upstream wraps the shared HTTP client used to talk to remote
// repositories. It only knows about status codes: 200 is success, 404 is
// ErrNotFound and anything else is a StatusError.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/version"
)

// maxTextBytes 限制目录页、校验文件与 metadata 的读取大小。
var maxTextBytes int64 = 16 << 20

// ErrNotFound 表示上游返回 404，调用方通常视为“该仓库没有此资源”。
var ErrNotFound = errors.New("upstream resource not found")

// ErrTooLarge 表示文本响应（目录页、校验文件、metadata）超出读取上限。
var ErrTooLarge = errors.New("upstream text response too large")

// StatusError 描述 200/404 之外的上游响应。
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d", e.URL, e.Status)
}

// Shared HTTP transport tunings，复用长连接并集中配置超时。
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Client 是所有上游请求共享的客户端。
// remote.timeout 只约束建连与等待响应头，以及 FetchText 的整个读取过程；
// 制品正文的下载时长只受调用方 ctx（批量下载的总超时）约束。
type Client struct {
	http      *http.Client
	timeout   time.Duration
	userAgent string
}

// NewClient 返回共享客户端，超时取 remote.timeout。
func NewClient(cfg *config.Config) *Client {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Remote.Timeout.DurationValue() > 0 {
		timeout = cfg.Remote.Timeout.DurationValue()
	}

	transport := defaultTransport.Clone()
	transport.ResponseHeaderTimeout = timeout
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext

	return &Client{
		http:      &http.Client{Transport: transport},
		timeout:   timeout,
		userAgent: "maven-hub/" + version.Version,
	}
}

// Timeout 返回建连/响应头与文本读取的超时时间。
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Open 发起 GET 请求，仅在 200 时返回响应，调用方负责关闭 Body。
func (c *Client) Open(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		drain(resp.Body)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rawURL)
	default:
		drain(resp.Body)
		return nil, &StatusError{URL: rawURL, Status: resp.StatusCode}
	}
}

// FetchText 读取整个响应体为字符串，整个请求受 remote.timeout 约束，
// 超过 maxTextBytes 时返回 ErrTooLarge。
func (c *Client) FetchText(ctx context.Context, rawURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.Open(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTextBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", rawURL, err)
	}
	if int64(len(body)) > maxTextBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, rawURL, maxTextBytes)
	}
	return string(body), nil
}

// LastModified 解析 Last-Modified 头，缺失或非法时返回零值。
func LastModified(resp *http.Response) time.Time {
	if resp == nil {
		return time.Time{}
	}
	if last := resp.Header.Get("Last-Modified"); last != "" {
		if parsed, err := http.ParseTime(last); err == nil {
			return parsed.UTC()
		}
	}
	return time.Time{}
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	body.Close()
}
