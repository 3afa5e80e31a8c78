package cache

import (
	"context"
	"errors"
	"io"
	"path"
	"time"
)

// Store 负责管理磁盘缓存的读写。磁盘布局与上游仓库的相对路径一致：
//
//	<root>/<group path>/<artifact>/<version>/<file>
//
// 摘要文件（.sha1 等）与 maven-metadata.xml 永不落盘。
type Store interface {
	// Root 返回缓存根目录的绝对路径。
	Root() string

	// Missing 判断目录是否需要填充：不存在或为空目录时返回 true。
	Missing(ctx context.Context, dir string) (bool, error)

	// Stat 返回条目描述，不存在时返回 ErrNotFound。
	Stat(ctx context.Context, locator Locator) (*Entry, error)

	// Get 返回一个可流式读取的缓存条目。若不存在则返回 ErrNotFound。
	Get(ctx context.Context, locator Locator) (*ReadResult, error)

	// Put 将上游响应写入缓存，并产出新的 Entry 描述。实现需通过临时文件 + rename
	// 保证写入原子性，并在失败时清理临时文件。可选地根据 opts.ModTime 设置文件时间戳。
	Put(ctx context.Context, locator Locator, body io.Reader, opts PutOptions) (*Entry, error)

	// EnsureDir 创建目录（含父目录）并返回其绝对路径。
	EnsureDir(ctx context.Context, dir string) (string, error)

	// RemoveDir 递归删除整个目录，用于批量下载失败后的回滚。
	RemoveDir(ctx context.Context, dir string) error

	// Clear 清空整个缓存根目录。
	Clear(ctx context.Context) error
}

// PutOptions 控制写入过程中的可选属性。
type PutOptions struct {
	ModTime time.Time
}

// Locator 唯一定位一个缓存条目：仓库相对目录（以 / 开头和结尾）+ 文件名。
type Locator struct {
	Dir  string
	Name string
}

// Path 返回 URL 风格的仓库相对路径。
func (l Locator) Path() string {
	return path.Join("/", l.Dir, l.Name)
}

// Entry 表示一次缓存命中结果，包含绝对文件路径及文件信息。
type Entry struct {
	Locator   Locator `json:"locator"`
	FilePath  string  `json:"file_path"`
	SizeBytes int64   `json:"size_bytes"`
	ModTime   time.Time
}

// ReadResult 组合 Entry 与正文 Reader，便于代理层直接将 Body 流式返回。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")
	// ErrInvalidPath 表示路径越出缓存根目录或文件名非法。
	ErrInvalidPath = errors.New("invalid cache path")
)
