package maven

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/logging"
	"github.com/any-hub/maven-hub/internal/upstream"
)

// fakeRepo 模拟一个 Maven 仓库：目录请求返回 Central 风格的列表页，
// <file>.sha1 默认按内容计算，可通过 checksums 覆盖。
// trickle > 0 时文件正文逐字节发送，每字节之间暂停 trickle。
type fakeRepo struct {
	server    *httptest.Server
	mu        sync.Mutex
	files     map[string]string
	checksums map[string]string
	delay     time.Duration
	trickle   time.Duration
	requests  atomic.Int64
}

func newFakeRepo(t *testing.T, files map[string]string) *fakeRepo {
	t.Helper()
	repo := &fakeRepo{files: files, checksums: map[string]string{}}
	repo.server = httptest.NewServer(http.HandlerFunc(repo.serve))
	t.Cleanup(repo.server.Close)
	return repo
}

func (r *fakeRepo) URL() string {
	return r.server.URL + "/maven2"
}

func (r *fakeRepo) setChecksum(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checksums[name] = value
}

func (r *fakeRepo) serve(w http.ResponseWriter, req *http.Request) {
	r.requests.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-req.Context().Done():
			return
		}
	}

	p := strings.TrimPrefix(req.URL.Path, "/maven2")
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.HasSuffix(p, "/") {
		names := r.namesIn(p)
		if len(names) == 0 {
			http.NotFound(w, req)
			return
		}
		fmt.Fprintf(w, "<html><body><h1>%s</h1><pre><a href=\"../\">../</a>\n", p)
		for _, name := range names {
			fmt.Fprintf(w, "<a href=\"%s\" title=\"%s\">%s</a>  2024-01-01 00:00  10\n", name, name, name)
		}
		fmt.Fprint(w, "</pre></body></html>")
		return
	}

	if value, ok := r.checksums[p]; ok {
		if value == "" {
			http.NotFound(w, req)
			return
		}
		_, _ = io.WriteString(w, value)
		return
	}
	if body, ok := r.files[p]; ok {
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		if r.trickle > 0 {
			r.writeSlowly(w, req, body)
			return
		}
		_, _ = io.WriteString(w, body)
		return
	}
	if strings.HasSuffix(p, ".sha1") {
		if body, ok := r.files[strings.TrimSuffix(p, ".sha1")]; ok {
			_, _ = io.WriteString(w, sha1Hex(body)+"  "+path.Base(strings.TrimSuffix(p, ".sha1")))
			return
		}
	}
	http.NotFound(w, req)
}

func (r *fakeRepo) writeSlowly(w http.ResponseWriter, req *http.Request, body string) {
	flusher, _ := w.(http.Flusher)
	for i := 0; i < len(body); i++ {
		if _, err := io.WriteString(w, body[i:i+1]); err != nil {
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
		select {
		case <-time.After(r.trickle):
		case <-req.Context().Done():
			return
		}
	}
}

func (r *fakeRepo) namesIn(dir string) []string {
	var names []string
	for p := range r.files {
		if path.Dir(p)+"/" == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

func sha1Hex(body string) string {
	sum := sha1.Sum([]byte(body))
	return hex.EncodeToString(sum[:])
}

func testConfig(repos ...string) *config.Config {
	return &config.Config{
		Remote: config.RemoteConfig{
			Repos: repos,
			Exclude: config.ExcludeConfig{
				Extensions:  []string{".asc", ".sha1", ".sha512", ".sha256", ".md5", "-release.zip", "-site.xml"},
				Classifiers: []string{"-javadoc.", "-tests.", "-test-sources.", "-groovydoc."},
			},
			Threads:      4,
			BatchTimeout: config.Duration(5 * time.Second),
			Timeout:      config.Duration(5 * time.Second),
		},
	}
}

func newTestRemote(t *testing.T, cfg *config.Config) (*Remote, cache.Store) {
	t.Helper()
	store, err := cache.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store init failed: %v", err)
	}
	logger := logging.Discard()
	return NewRemote(cfg, upstream.NewClient(cfg), store, logger), store
}
