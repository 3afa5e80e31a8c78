package maven

import (
	"context"
	"errors"
	"fmt"

	"github.com/any-hub/maven-hub/internal/upstream"
)

// Index 依次探测上游仓库，返回第一个包含待缓存文件的目录列表。
// 404 视为该仓库为空继续下一个，其它错误直接返回。
func (r *Remote) Index(ctx context.Context, dir string) (Listing, error) {
	for _, repo := range r.repos {
		page, err := r.client.FetchText(ctx, repo+dir)
		if err != nil {
			if errors.Is(err, upstream.ErrNotFound) {
				continue
			}
			return Listing{}, fmt.Errorf("fetch index %s%s: %w", repo, dir, err)
		}

		listing := Classify(repo, dir, ParseLinks(page), r.filter)
		if !listing.IsEmpty() {
			return listing, nil
		}
	}
	return Listing{}, fmt.Errorf("%w: %s", ErrIndexMissing, dir)
}
