// Package digest 按需计算缓存文件的摘要，供 .sha1/.sha256/.sha512/.md5 请求使用。
// 摘要从不落盘，每次请求都基于底层文件内容重新计算。
package digest

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	sha256 "github.com/minio/sha256-simd"
)

// Algorithm 是受支持的摘要算法名称，与 Maven 校验文件的后缀一一对应。
type Algorithm string

const (
	SHA1   Algorithm = "SHA-1"
	SHA256 Algorithm = "SHA-256"
	SHA512 Algorithm = "SHA-512"
	MD5    Algorithm = "MD5"
)

// ErrUnsupportedAlgorithm 表示算法名不在受支持集合内，属于配置错误。
var ErrUnsupportedAlgorithm = errors.New("unsupported digest algorithm")

// suffixes 按匹配顺序列出后缀；不存在互为后缀的项，顺序仅影响可读性。
var suffixes = []struct {
	suffix    string
	algorithm Algorithm
}{
	{".sha1", SHA1},
	{".sha256", SHA256},
	{".sha512", SHA512},
	{".md5", MD5},
}

// FromSuffix 识别带摘要后缀的文件名，返回算法与去掉后缀后的数据文件名。
func FromSuffix(name string) (Algorithm, string, bool) {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.algorithm, strings.TrimSuffix(name, s.suffix), true
		}
	}
	return "", name, false
}

// HexLen 返回该算法十六进制摘要的固定长度；未知算法返回 0。
func (a Algorithm) HexLen() int {
	switch a {
	case SHA1:
		return 40
	case SHA256:
		return 64
	case SHA512:
		return 128
	case MD5:
		return 32
	default:
		return 0
	}
}

// New 返回对应算法的 hash.Hash。
func New(a Algorithm) (hash.Hash, error) {
	switch a {
	case SHA1:
		return sha1.New(), nil
	case SHA256:
		return sha256.New(), nil
	case SHA512:
		return sha512.New(), nil
	case MD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
}

// Reader 读取 r 的全部内容并返回小写十六进制摘要。
func Reader(r io.Reader, a Algorithm) (string, error) {
	h, err := New(a)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File 计算文件完整内容的摘要。
func File(path string, a Algorithm) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return Reader(f, a)
}
