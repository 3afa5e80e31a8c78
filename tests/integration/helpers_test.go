package integration

import (
	"io"
	"net"
	"strconv"
	"time"
)

func itoa(v int) string {
	return strconv.Itoa(v)
}

// sendRaw 供并发场景使用，不依赖 *testing.T。
func sendRaw(addr, requestLine string) string {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return "dial error: " + err.Error()
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))

	if _, err := io.WriteString(conn, requestLine+"\r\n\r\n"); err != nil {
		return "write error: " + err.Error()
	}
	body, _ := io.ReadAll(conn)
	return string(body)
}
