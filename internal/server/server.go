// Package server implements the raw HTTP/1.1-over-TCP server that answers
// k-NN queries against the cached NN index and rebuilds that index on
// request. It deliberately does not use net/http's server: the wire
// protocol is a minimal hand-rolled subset (request line, headers ignored
// beyond framing, no keep-alive), matching what the indexer's rebuild
// notification and any simple HTTP client can produce.
package server

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/errs"
	"github.com/danimelchor/mindmap-go/internal/format"
	"github.com/danimelchor/mindmap-go/internal/nnindex"
	"github.com/danimelchor/mindmap-go/internal/store"
)

// initialReadBufferSize is the starting read size; the connection handler
// grows its buffer until it has seen the end of the request headers
// rather than assuming a request ever fits in one read.
const initialReadBufferSize = 1024

// maxRequestSize bounds how far the handler will grow its buffer before
// giving up on a request that never completes its headers.
const maxRequestSize = 1 << 20

// State is the search-serving state the server answers requests against:
// no globals, so multiple Servers (e.g. in tests) can run independently.
type State struct {
	Store      *store.Store
	Encoder    encode.Encoder
	Index      *nnindex.Index
	NumResults int
	Logger     *slog.Logger
}

// Rebuild reloads every block from the store and replaces the NN index's
// contents wholesale.
func (s *State) Rebuild(ctx context.Context) error {
	rows, err := s.Store.GetAll(ctx)
	if err != nil {
		return err
	}

	entries := make([]nnindex.Entry, len(rows))
	for i, r := range rows {
		entries[i] = nnindex.Entry{
			Block: block.Block{
				Path:      r.Path,
				StartLine: r.StartLine,
				EndLine:   r.EndLine,
				Content:   r.Content,
			},
			Vector: r.Vector,
		}
	}

	s.Index.Rebuild(entries)
	return nil
}

// Server accepts TCP connections and answers one request per connection.
type Server struct {
	listener net.Listener
	state    *State
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// New binds addr and returns a Server ready to Serve.
func New(addr string, state *State) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errs.Wrap(errs.KindIO, "failed to bind "+addr, err)
	}

	logger := state.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{listener: listener, state: state, logger: logger}, nil
}

// Addr returns the server's bound address, useful when addr was ":0".
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx is canceled, handling each on its
// own goroutine. It blocks until every in-flight connection finishes.
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return errs.Wrap(errs.KindIO, "accept failed", err)
			}
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	target, err := readRequestTarget(conn)
	if err != nil {
		writeResponse(conn, 400, err.Error())
		return
	}

	if target == "/rebuild" {
		if err := s.state.Rebuild(ctx); err != nil {
			s.logger.Error("rebuild failed", slog.String("error", err.Error()))
			writeResponse(conn, 500, err.Error())
			return
		}
		writeResponse(conn, 200, "Rebuilt")
		return
	}

	body, status := s.handleSearch(ctx, target)
	writeResponse(conn, status, body)
}

func (s *Server) handleSearch(ctx context.Context, target string) (string, int) {
	u, err := url.Parse(target)
	if err != nil {
		return "invalid request target", 400
	}

	query := u.Query().Get("q")
	if query == "" {
		return "missing required query parameter \"q\"", 400
	}

	f, err := format.Parse(u.Query().Get("format"))
	if err != nil {
		return err.Error(), 400
	}

	vector, err := s.state.Encoder.Encode(ctx, query)
	if err != nil {
		return err.Error(), 500
	}

	results, err := s.state.Index.KNearest(vector, s.state.NumResults)
	if err != nil {
		return err.Error(), 500
	}

	rendered, err := format.Render(query, results, f)
	if err != nil {
		return err.Error(), 500
	}
	return rendered, 200
}

// readRequestTarget reads an HTTP/1.1 request up to the blank line that
// ends its headers and returns the request-target (path plus optional
// query string) from its request line. It grows its buffer until the
// headers are complete rather than assuming 1 KiB is enough.
func readRequestTarget(conn net.Conn) (string, error) {
	buf := make([]byte, initialReadBufferSize)
	total := 0

	for {
		n, err := conn.Read(buf[total:])
		if n > 0 {
			total += n
		}

		if bytes.Contains(buf[:total], []byte("\r\n\r\n")) {
			line, _, _ := bytes.Cut(buf[:total], []byte("\n"))
			return parseRequestLine(strings.TrimRight(string(line), "\r\n"))
		}

		if err != nil {
			return "", errs.Wrap(errs.KindProtocol, "failed to read request", err)
		}

		if total == len(buf) {
			if len(buf) >= maxRequestSize {
				return "", errs.New(errs.KindProtocol, "request headers too large", nil)
			}
			grown := make([]byte, len(buf)*2)
			copy(grown, buf)
			buf = grown
		}
	}
}

func parseRequestLine(line string) (string, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 {
		return "", errs.New(errs.KindProtocol, "malformed request line", nil)
	}
	return parts[1], nil
}

func writeResponse(conn net.Conn, code int, body string) {
	headers := fmt.Sprintf(
		"HTTP/1.1 %d\r\nContent-Length: %s\r\nAccess-Control-Allow-Origin: *\r\nAccess-Control-Allow-Methods: GET\r\n\r\n",
		code, strconv.Itoa(len(body)),
	)
	_, _ = conn.Write([]byte(headers + body))
}
