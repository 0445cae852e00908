package lichess

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"sync"

	"github.com/valyala/fasthttp"
)

const maxRecordSize = 1 << 20

// StreamGame follows a game's NDJSON stream and calls onRecord once per
// non-empty line, in arrival order. Lines split across reads are reassembled
// before delivery. It returns nil when the server ends the stream and
// ctx.Err() when the caller cancels.
func (c *Client) StreamGame(ctx context.Context, gameID string, onRecord func([]byte)) error {
	conns := &connSet{}
	hc := &fasthttp.Client{
		StreamResponseBody: true,
		WriteTimeout:       c.defaultTimeout,
		MaxConnsPerHost:    1,
		Dial:               conns.wrap(c.dialer()),
	}
	stop := context.AfterFunc(ctx, conns.closeAll)
	defer stop()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + "/api/stream/game/" + url.PathEscape(gameID))
	req.Header.Set(fasthttp.HeaderAccept, "application/x-ndjson")
	req.SetConnectionClose()
	c.applyHeaders(req)

	if err := hc.Do(req, resp); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream request failed: %w", err)
	}
	defer func() { _ = resp.CloseBodyStream() }()

	body := resp.BodyStream()
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		var snippet []byte
		if body != nil {
			snippet, _ = io.ReadAll(io.LimitReader(body, 512))
		}
		return &StatusError{Code: status, Body: string(snippet)}
	}
	if body == nil {
		body = bytes.NewReader(resp.Body())
	}

	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		onRecord(bytes.Clone(line))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

// connSet remembers the connections a stream client dialed so cancellation
// can unblock a pending read by closing the socket underneath it.
type connSet struct {
	mu     sync.Mutex
	conns  []net.Conn
	closed bool
}

func (s *connSet) wrap(dial fasthttp.DialFunc) fasthttp.DialFunc {
	return func(addr string) (net.Conn, error) {
		conn, err := dial(addr)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed {
			_ = conn.Close()
			return nil, net.ErrClosed
		}
		s.conns = append(s.conns, conn)
		return conn, nil
	}
}

func (s *connSet) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = nil
}
