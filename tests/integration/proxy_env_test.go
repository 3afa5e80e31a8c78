package integration

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/logging"
	"github.com/any-hub/maven-hub/internal/maven"
	"github.com/any-hub/maven-hub/internal/proxy"
	"github.com/any-hub/maven-hub/internal/server"
	"github.com/any-hub/maven-hub/internal/upstream"
)

// proxyEnv 在随机端口上启动完整的代理：TCP server → proxy.Handler → maven.Remote → 磁盘缓存。
type proxyEnv struct {
	Addr    string
	Store   cache.Store
	Handler *proxy.Handler
}

func newProxyEnv(t *testing.T, cacheRoot string, offline bool, repos ...string) *proxyEnv {
	t.Helper()

	values := map[string]string{
		"proxy.location":       cacheRoot,
		"proxy.threads":        "4",
		"remote.threads":       "3",
		"remote.batch_timeout": "10s",
		"remote.timeout":       "5s",
		"remote.repos":         strings.Join(repos, ","),
	}
	if offline {
		values["proxy.offline"] = "true"
	}
	cfg, err := config.LoadMap(values)
	if err != nil {
		t.Fatalf("config error: %v", err)
	}

	logger := logging.Discard()

	store, err := cache.NewStore(cfg.Proxy.Location)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	remote := maven.NewRemote(cfg, upstream.NewClient(cfg), store, logger)
	handler := proxy.NewHandler(cfg, store, remote, logger)

	srv, err := server.New(server.Options{Logger: logger, Handler: handler, Threads: cfg.Proxy.Threads})
	if err != nil {
		t.Fatalf("server error: %v", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("unable to start proxy listener: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, listener)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Errorf("proxy did not stop")
		}
	})

	return &proxyEnv{Addr: listener.Addr().String(), Store: store, Handler: handler}
}

// Send 发送一行请求（附带会被忽略的请求头）并读取直到连接关闭，失败的请求返回空串。
func (e *proxyEnv) Send(t *testing.T, requestLine string) string {
	t.Helper()
	conn, err := net.Dial("tcp", e.Addr)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := io.WriteString(conn, requestLine+"\r\nHost: localhost\r\nUser-Agent: Apache-Maven/3.9\r\n\r\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	body, _ := io.ReadAll(conn)
	return string(body)
}
