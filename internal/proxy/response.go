package proxy

import (
	"strconv"
	"strings"
)

const (
	notFoundResponse = "HTTP/1.1 404 Not Found\r\n\r\n"
	metadataResponse = "[maven-metadata.xml]"
)

// Result 记录一次请求写出的响应（头部，摘要请求时含正文）以及是否纯缓存命中。
type Result struct {
	Response  string
	FromCache bool
}

func okHeader(length int64) string {
	return "HTTP/1.1 200 OK\r\ncontent-length: " + strconv.FormatInt(length, 10) + "\r\n\r\n"
}

// singleLine 把响应渲染为一行日志。
func singleLine(response string) string {
	return strings.TrimSpace(strings.ReplaceAll(response, "\r\n", " "))
}
