package proxy

import (
	"context"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/maven"
)

// Populator 负责在 miss 时解析上游目录并批量填充缓存，*maven.Remote 实现该接口。
type Populator interface {
	Index(ctx context.Context, dir string) (maven.Listing, error)
	LoadAll(ctx context.Context, listing maven.Listing) error
}

// Resolver 判断目录是否已缓存，未缓存时触发填充。
// 同一目录的请求经 singleflight 合并：填充进行中到达的请求会等待同一次填充结束，
// 不会看到半成品目录。
type Resolver struct {
	store   cache.Store
	remote  Populator
	offline bool
	group   singleflight.Group
}

// NewResolver 创建 Resolver。
func NewResolver(store cache.Store, remote Populator, offline bool) *Resolver {
	return &Resolver{store: store, remote: remote, offline: offline}
}

// Resolve 返回 true 表示目录已存在（命中）；false 表示本次请求触发或等待了一次填充。
func (r *Resolver) Resolve(ctx context.Context, dir string) (bool, error) {
	value, err, _ := r.group.Do(dir, func() (interface{}, error) {
		return r.resolve(ctx, dir)
	})
	if err != nil {
		return false, err
	}
	return value.(bool), nil
}

func (r *Resolver) resolve(ctx context.Context, dir string) (bool, error) {
	missing, err := r.store.Missing(ctx, dir)
	if err != nil {
		return false, fmt.Errorf("check cache dir %s: %w", dir, err)
	}
	if !missing {
		return true, nil
	}
	if r.offline {
		return false, fmt.Errorf("%w: %s is not cached", ErrOffline, dir)
	}

	listing, err := r.remote.Index(ctx, dir)
	if err != nil {
		return false, err
	}
	if err := r.remote.LoadAll(ctx, listing); err != nil {
		return false, err
	}
	return false, nil
}
