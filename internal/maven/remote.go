package maven

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/config"
	"github.com/any-hub/maven-hub/internal/upstream"
)

var (
	// ErrIndexMissing 表示所有上游仓库都没有该目录的有效列表。
	ErrIndexMissing = errors.New("index missing in all repositories")
	// ErrChecksumMismatch 表示下载内容与上游 .sha1 不一致（或缺少 .sha1）。
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrBatchTimeout 表示整个目录的批量下载超过 remote.batch_timeout。
	ErrBatchTimeout = errors.New("batch download timed out")
)

// Remote 聚合上游仓库列表、下载并发与磁盘缓存，供缓存解析器在 miss 时调用。
type Remote struct {
	repos        []string
	filter       Filter
	client       *upstream.Client
	store        cache.Store
	threads      int
	batchTimeout time.Duration
	logger       *logrus.Logger
}

// NewRemote 基于只读配置构建 Remote。
func NewRemote(cfg *config.Config, client *upstream.Client, store cache.Store, logger *logrus.Logger) *Remote {
	threads := cfg.Remote.Threads
	if threads <= 0 {
		threads = 1
	}
	batchTimeout := cfg.Remote.BatchTimeout.DurationValue()
	if batchTimeout <= 0 {
		batchTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Remote{
		repos:        cfg.Repos(),
		filter:       NewFilter(cfg.Remote.Exclude),
		client:       client,
		store:        store,
		threads:      threads,
		batchTimeout: batchTimeout,
		logger:       logger,
	}
}

// Repos 返回按优先级排列的上游地址。
func (r *Remote) Repos() []string {
	return append([]string(nil), r.repos...)
}
