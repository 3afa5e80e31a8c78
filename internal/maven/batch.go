package maven

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/any-hub/maven-hub/internal/cache"
	"github.com/any-hub/maven-hub/internal/digest"
	"github.com/any-hub/maven-hub/internal/logging"
	"github.com/any-hub/maven-hub/internal/upstream"
)

// ChecksumError 描述单个文件的校验失败，Expected 为空表示上游缺少 .sha1。
type ChecksumError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *ChecksumError) Error() string {
	if e.Expected == "" {
		return fmt.Sprintf("checksum mismatch for %s: no published sha1 (local %s)", e.URL, e.Actual)
	}
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.URL, e.Expected, e.Actual)
}

func (e *ChecksumError) Unwrap() error {
	return ErrChecksumMismatch
}

// LoadAll 并发下载 listing 中的全部文件并逐个校验 sha1。
// 任一文件失败或整体超时都会取消其余下载、等待所有 worker 退出，然后删除整个目录。
func (r *Remote) LoadAll(ctx context.Context, listing Listing) error {
	if _, err := r.store.EnsureDir(ctx, listing.Path); err != nil {
		return fmt.Errorf("create cache dir %s: %w", listing.Path, err)
	}

	r.logger.WithFields(logging.DirFields("batch_start", listing.Repo, listing.Path)).
		WithField("files", len(listing.Files)).
		Info("populating cache directory")

	batchCtx, cancel := context.WithTimeout(ctx, r.batchTimeout)
	defer cancel()

	group, groupCtx := errgroup.WithContext(batchCtx)
	group.SetLimit(r.threads)
	for _, name := range listing.Files {
		group.Go(func() error {
			return r.loadOne(groupCtx, listing, name)
		})
	}

	err := group.Wait()
	if err == nil {
		return nil
	}
	if errors.Is(batchCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w after %s: %s%s: %w", ErrBatchTimeout, r.batchTimeout, listing.Repo, listing.Path, err)
	}

	// 回滚不受已取消的 ctx 影响。
	if rmErr := r.store.RemoveDir(context.Background(), listing.Path); rmErr != nil {
		err = errors.Join(err, fmt.Errorf("rollback %s: %w", listing.Path, rmErr))
	}
	r.logger.WithFields(logging.DirFields("batch_rollback", listing.Repo, listing.Path)).
		WithError(err).
		Warn("cache directory rolled back")
	return err
}

func (r *Remote) loadOne(ctx context.Context, listing Listing, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	source := listing.Repo + listing.Path + name
	resp, err := r.client.Open(ctx, source)
	if err != nil {
		return fmt.Errorf("download %s: %w", source, err)
	}
	defer resp.Body.Close()

	hasher, err := digest.New(digest.SHA1)
	if err != nil {
		return err
	}
	locator := cache.Locator{Dir: listing.Path, Name: name}
	opts := cache.PutOptions{ModTime: upstream.LastModified(resp)}
	if _, err := r.store.Put(ctx, locator, io.TeeReader(resp.Body, hasher), opts); err != nil {
		return fmt.Errorf("store %s: %w", source, err)
	}
	actual := hex.EncodeToString(hasher.Sum(nil))

	published, err := r.client.FetchText(ctx, source+".sha1")
	if err != nil {
		if errors.Is(err, upstream.ErrNotFound) {
			return &ChecksumError{URL: source, Actual: actual}
		}
		return fmt.Errorf("fetch checksum %s.sha1: %w", source, err)
	}

	expected := strings.ToLower(firstToken(published))
	if expected != actual {
		return &ChecksumError{URL: source, Expected: expected, Actual: actual}
	}
	return nil
}

// firstToken 兼容 "<hex>  <filename>" 形式的校验文件。
func firstToken(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
