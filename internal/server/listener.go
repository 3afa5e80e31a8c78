package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

const (
	defaultReadTimeout = 30 * time.Second
	lingerTimeout      = 500 * time.Millisecond
)

// ConnHandler 处理一条已接受的连接，返回错误时连接会被直接关闭。
type ConnHandler interface {
	HandleConn(ctx context.Context, connID string, conn io.ReadWriter) error
}

// ConnHandlerFunc adapts a function to the ConnHandler interface.
type ConnHandlerFunc func(ctx context.Context, connID string, conn io.ReadWriter) error

// HandleConn makes ConnHandlerFunc satisfy ConnHandler.
func (f ConnHandlerFunc) HandleConn(ctx context.Context, connID string, conn io.ReadWriter) error {
	return f(ctx, connID, conn)
}

// Options 描述监听循环的依赖。
type Options struct {
	Logger  *logrus.Logger
	Handler ConnHandler
	// Threads 为同时处理的连接上限（proxy.threads）。
	Threads int
	// ReadTimeout 限制读取请求行的时间，0 使用默认值。
	ReadTimeout time.Duration
}

// Server 每条连接一个 goroutine，并发度由信号量限制。
type Server struct {
	logger      *logrus.Logger
	handler     ConnHandler
	sem         *semaphore.Weighted
	readTimeout time.Duration
	wg          sync.WaitGroup
}

// New 校验依赖并创建 Server。
func New(opts Options) (*Server, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Handler == nil {
		return nil, errors.New("connection handler is required")
	}
	if opts.Threads <= 0 {
		return nil, fmt.Errorf("invalid thread count: %d", opts.Threads)
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = defaultReadTimeout
	}
	return &Server{
		logger:      opts.Logger,
		handler:     opts.Handler,
		sem:         semaphore.NewWeighted(int64(opts.Threads)),
		readTimeout: readTimeout,
	}, nil
}

// ListenAndServe 监听 addr 并阻塞到 ctx 结束。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve 在 ln 上接受连接，ctx 结束后关闭监听并等待在途连接处理完毕。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()
	defer s.wg.Wait()

	for {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			return nil
		}
		conn, err := ln.Accept()
		if err != nil {
			s.sem.Release(1)
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	connID := uuid.NewString()
	defer s.wg.Done()
	defer s.sem.Release(1)
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(logrus.Fields{
				"action":  "connection_panic",
				"conn_id": connID,
				"remote":  conn.RemoteAddr().String(),
			}).Error(fmt.Sprintf("panic: %v", r))
			conn.Close()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	if err := s.handler.HandleConn(ctx, connID, conn); err != nil {
		conn.Close()
		return
	}
	closeGracefully(conn)
}

// closeGracefully 先关闭写方向并丢弃客户端未读完的请求头，避免 RST 截断已写出的响应。
func closeGracefully(conn net.Conn) {
	type closeWriter interface {
		CloseWrite() error
	}
	if cw, ok := conn.(closeWriter); ok {
		_ = cw.CloseWrite()
		_ = conn.SetReadDeadline(time.Now().Add(lingerTimeout))
		_, _ = io.Copy(io.Discard, io.LimitReader(conn, 64<<10))
	}
	conn.Close()
}
