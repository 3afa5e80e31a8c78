package maven

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/any-hub/maven-hub/internal/upstream"
)

// CopyMetadata 按仓库顺序透传 maven-metadata.xml 一类的易变文件，从不写入缓存。
// 第一个命中的仓库内容被写为完整的 200 响应并返回 true；全部 404 时返回 false。
// includeBody 为 false（HEAD 请求）时只写响应头。
func (r *Remote) CopyMetadata(ctx context.Context, path string, w io.Writer, includeBody bool) (bool, error) {
	for _, repo := range r.repos {
		body, err := r.client.FetchText(ctx, repo+path)
		if err != nil {
			if errors.Is(err, upstream.ErrNotFound) {
				continue
			}
			return false, fmt.Errorf("fetch metadata %s%s: %w", repo, path, err)
		}

		if _, err := fmt.Fprintf(w, "HTTP/1.1 200 OK\r\ncontent-length: %d\r\n\r\n", len(body)); err != nil {
			return false, err
		}
		if includeBody {
			if _, err := io.WriteString(w, body); err != nil {
				return false, err
			}
		}
		return true, nil
	}
	return false, nil
}
