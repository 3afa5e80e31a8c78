package proxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/digest"
	"github.com/any-hub/maven-hub/internal/logging"
)

// maxRequestLine 限制请求行长度，超出视为非法请求。
const maxRequestLine = 8 << 10

// Upstream 汇总 Handler 需要的上游能力，*maven.Remote 实现该接口。
type Upstream interface {
	Populator
	CopyMetadata(ctx context.Context, path string, w io.Writer, includeBody bool) (bool, error)
}

// Handler 负责“请求行 → 缓存解析 → 写回响应”的全流程。
type Handler struct {
	store    cache.Store
	remote   Upstream
	resolver *Resolver
	offline  bool
	logger   *logrus.Logger

	hits     atomic.Int64
	misses   atomic.Int64
	notFound atomic.Int64
	failures atomic.Int64
}

// StatsSnapshot 是计数器的只读快照，供诊断接口输出。
type StatsSnapshot struct {
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	NotFound int64 `json:"not_found"`
	Failures int64 `json:"failures"`
}

// NewHandler constructs a proxy handler with shared store/upstream/logger.
func NewHandler(cfg *config.Config, store cache.Store, remote Upstream, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	offline := cfg != nil && cfg.Proxy.Offline
	return &Handler{
		store:    store,
		remote:   remote,
		resolver: NewResolver(store, remote, offline),
		offline:  offline,
		logger:   logger,
	}
}

// Stats 返回当前计数。
func (h *Handler) Stats() StatsSnapshot {
	return StatsSnapshot{
		Hits:     h.hits.Load(),
		Misses:   h.misses.Load(),
		NotFound: h.notFound.Load(),
		Failures: h.failures.Load(),
	}
}

// HandleConn 读取连接上的第一行请求（其余字节忽略），响应先写入缓冲区，
// 只有处理成功时才 flush；失败时调用方直接关闭连接。
func (h *Handler) HandleConn(ctx context.Context, connID string, conn io.ReadWriter) error {
	started := time.Now()
	line, err := readRequestLine(conn)
	if err != nil {
		h.failures.Add(1)
		h.logger.WithFields(logging.RequestFields(connID, "", "", false)).
			WithField("action", "proxy_failed").
			WithError(err).
			Error("proxy_failed")
		return err
	}

	out := bufio.NewWriter(conn)
	result, err := h.Handle(ctx, line, out)
	if err == nil {
		err = out.Flush()
	}

	method, uri := splitLine(line)
	fields := logging.RequestFields(connID, method, uri, result.FromCache)
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	if err != nil {
		fields["action"] = "proxy_failed"
		h.logger.WithFields(fields).WithError(err).Error(line + " -> " + err.Error())
		return err
	}
	if !result.FromCache {
		fields["action"] = "proxy_complete"
		h.logger.WithFields(fields).Info(line + " -> " + singleLine(result.Response))
	}
	return nil
}

// Handle 处理一行请求并把响应写入 w。返回错误时响应可能不完整，连接应被直接关闭。
func (h *Handler) Handle(ctx context.Context, line string, w io.Writer) (Result, error) {
	result, err := h.handle(ctx, line, w)
	switch {
	case err != nil:
		h.failures.Add(1)
	case result.FromCache:
		h.hits.Add(1)
	default:
		h.misses.Add(1)
	}
	return result, err
}

func (h *Handler) handle(ctx context.Context, line string, w io.Writer) (Result, error) {
	req, err := ParseRequest(line)
	if err != nil {
		return Result{}, err
	}
	includeBody := req.Method == methodGet

	if strings.HasSuffix(req.Name, "maven-metadata.xml") {
		if h.offline {
			return Result{}, fmt.Errorf("%w: %s", ErrOffline, req.Path)
		}
		found, err := h.remote.CopyMetadata(ctx, req.Path, w, includeBody)
		if err != nil {
			return Result{}, err
		}
		if found {
			return Result{Response: metadataResponse}, nil
		}
	}

	if req.Name == "" {
		return h.respondNotFound(req, w, true)
	}

	hit, err := h.resolver.Resolve(ctx, req.Dir)
	if err != nil {
		return Result{}, err
	}

	if alg, dataName, ok := digest.FromSuffix(req.Name); ok {
		entry, err := h.store.Stat(ctx, cache.Locator{Dir: req.Dir, Name: dataName})
		switch {
		case err == nil:
			return h.respondDigest(entry, alg, includeBody, hit, w)
		case !errors.Is(err, cache.ErrNotFound):
			return Result{}, err
		}
	}

	cached, err := h.store.Get(ctx, cache.Locator{Dir: req.Dir, Name: req.Name})
	switch {
	case err == nil:
		defer cached.Reader.Close()
		return h.respondFile(cached, includeBody, hit, w)
	case errors.Is(err, cache.ErrNotFound):
		return h.respondNotFound(req, w, hit)
	default:
		return Result{}, err
	}
}

func (h *Handler) respondDigest(entry *cache.Entry, alg digest.Algorithm, includeBody, hit bool, w io.Writer) (Result, error) {
	header := okHeader(int64(alg.HexLen()))
	payload := header
	if includeBody {
		sum, err := digest.File(entry.FilePath, alg)
		if err != nil {
			return Result{}, err
		}
		payload += sum
	}
	if _, err := io.WriteString(w, payload); err != nil {
		return Result{}, err
	}
	// 与 respondFile 一致，Result 只记录响应头，摘要正文不进日志。
	return Result{Response: header, FromCache: hit}, nil
}

func (h *Handler) respondFile(cached *cache.ReadResult, includeBody, hit bool, w io.Writer) (Result, error) {
	header := okHeader(cached.Entry.SizeBytes)
	if _, err := io.WriteString(w, header); err != nil {
		return Result{}, err
	}
	if includeBody {
		if _, err := io.Copy(w, cached.Reader); err != nil {
			return Result{}, fmt.Errorf("stream %s: %w", cached.Entry.Locator.Path(), err)
		}
	}
	return Result{Response: header, FromCache: hit}, nil
}

func (h *Handler) respondNotFound(req Request, w io.Writer, hit bool) (Result, error) {
	h.notFound.Add(1)
	h.logger.WithFields(logging.DirFields("cache_missing", "", req.Dir)).
		Warn("Missing: " + req.URI)
	if _, err := io.WriteString(w, notFoundResponse); err != nil {
		return Result{}, err
	}
	return Result{Response: notFoundResponse, FromCache: hit}, nil
}

func readRequestLine(r io.Reader) (string, error) {
	reader := bufio.NewReaderSize(r, maxRequestLine)
	raw, err := reader.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", fmt.Errorf("%w: request line too long", ErrMalformedRequest)
	case errors.Is(err, io.EOF) && len(raw) > 0:
	case err != nil:
		return "", fmt.Errorf("read request line: %w", err)
	}
	return strings.TrimRight(string(raw), "\r\n"), nil
}

func splitLine(line string) (string, string) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], fields[1]
	}
}
