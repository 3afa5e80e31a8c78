package proxy

import (
	"fmt"
	"path"
	"strings"
)

const (
	methodGet     = "GET"
	methodHead    = "HEAD"
	methodConnect = "CONNECT"
)

// Request 是解析后的请求行：Path 已清理为以 / 开头的仓库相对路径，
// Dir 为最后一个 / 之前（含）的部分，Name 为最后一段文件名。
type Request struct {
	Line   string
	Method string
	URI    string
	Path   string
	Dir    string
	Name   string
}

// ParseRequest 解析 "METHOD SP REQUEST-URI SP VERSION"，版本号缺失时同样接受。
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Request{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}

	method, uri := fields[0], fields[1]
	switch method {
	case methodConnect:
		return Request{}, fmt.Errorf("%w: %s", ErrTunnelUnsupported, uri)
	case methodGet, methodHead:
	default:
		return Request{}, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	p, ok := requestPath(uri)
	if !ok {
		return Request{}, fmt.Errorf("%w: %q", ErrMalformedRequest, line)
	}

	idx := strings.LastIndex(p, "/")
	return Request{
		Line:   line,
		Method: method,
		URI:    uri,
		Path:   p,
		Dir:    p[:idx+1],
		Name:   p[idx+1:],
	}, nil
}

// requestPath 兼容 absolute-form（http://host/path），去掉 query/fragment 并清理路径。
func requestPath(uri string) (string, bool) {
	if scheme := strings.Index(uri, "://"); scheme > 0 {
		rest := uri[scheme+3:]
		slash := strings.Index(rest, "/")
		if slash < 0 {
			return "", false
		}
		uri = rest[slash:]
	}
	if cut := strings.IndexAny(uri, "?#"); cut >= 0 {
		uri = uri[:cut]
	}
	if !strings.HasPrefix(uri, "/") {
		return "", false
	}

	cleaned := path.Clean(uri)
	if strings.HasSuffix(uri, "/") && cleaned != "/" {
		cleaned += "/"
	}
	return cleaned, true
}
