package proxy

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/logging"
	"github.com/any-hub/maven-hub/internal/maven"
)

// fakeUpstream 直接把内存中的目录写入缓存，记录调用次数。
type fakeUpstream struct {
	store    cache.Store
	mu       sync.Mutex
	dirs     map[string]map[string]string
	metadata map[string]string
	gate     chan struct{}
	loadErr  error

	indexCalls    atomic.Int64
	loadCalls     atomic.Int64
	metadataCalls atomic.Int64
}

func (f *fakeUpstream) Index(_ context.Context, dir string) (maven.Listing, error) {
	f.indexCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	files, ok := f.dirs[dir]
	if !ok {
		return maven.Listing{}, fmt.Errorf("%w: %s", maven.ErrIndexMissing, dir)
	}
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return maven.Listing{Repo: "fake", Path: dir, Files: names}, nil
}

func (f *fakeUpstream) LoadAll(ctx context.Context, listing maven.Listing) error {
	f.loadCalls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if f.loadErr != nil {
		return f.loadErr
	}
	for _, name := range listing.Files {
		f.mu.Lock()
		body := f.dirs[listing.Path][name]
		f.mu.Unlock()
		locator := cache.Locator{Dir: listing.Path, Name: name}
		if _, err := f.store.Put(ctx, locator, strings.NewReader(body), cache.PutOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeUpstream) CopyMetadata(_ context.Context, path string, w io.Writer, includeBody bool) (bool, error) {
	f.metadataCalls.Add(1)
	body, ok := f.metadata[path]
	if !ok {
		return false, nil
	}
	fmt.Fprintf(w, "HTTP/1.1 200 OK\r\ncontent-length: %d\r\n\r\n", len(body))
	if includeBody {
		io.WriteString(w, body)
	}
	return true, nil
}

func newTestHandler(t *testing.T, offline bool) (*Handler, *fakeUpstream) {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	upstream := &fakeUpstream{
		store: store,
		dirs: map[string]map[string]string{
			"/g/a/1.0/": {
				"a-1.0.jar": "jar-bytes",
				"a-1.0.pom": "<project/>",
			},
		},
		metadata: map[string]string{},
	}
	logger := logging.Discard()

	cfg := &config.Config{Proxy: config.ProxyConfig{Offline: offline}}
	return NewHandler(cfg, store, upstream, logger), upstream
}

// withOffline 复用同一缓存目录构建离线 Handler。
func withOffline(h *Handler, upstream *fakeUpstream) *Handler {
	cfg := &config.Config{Proxy: config.ProxyConfig{Offline: true}}
	return NewHandler(cfg, h.store, upstream, h.logger)
}
