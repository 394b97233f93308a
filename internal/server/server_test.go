package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/nnindex"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func newTestServer(t *testing.T) (*Server, *State, context.CancelFunc) {
	t.Helper()

	st, err := store.Open(t.TempDir() + "/mindmap.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx := nnindex.New()
	idx.Rebuild([]nnindex.Entry{
		{Block: block.Block{Path: "a.md", StartLine: 1, EndLine: 2, Content: "roadmap notes"}, Vector: mustEncode(t, "roadmap notes")},
		{Block: block.Block{Path: "b.md", StartLine: 3, EndLine: 4, Content: "grocery list"}, Vector: mustEncode(t, "grocery list")},
	})

	state := &State{
		Store:      st,
		Encoder:    encode.NewHashEncoder(),
		Index:      idx,
		NumResults: 10,
	}

	srv, err := New("127.0.0.1:0", state)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()

	return srv, state, cancel
}

func mustEncode(t *testing.T, text string) []float32 {
	t.Helper()
	v, err := encode.NewHashEncoder().Encode(context.Background(), text)
	require.NoError(t, err)
	return v
}

func rawRequest(t *testing.T, addr, target string) string {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("GET " + target + " HTTP/1.1\r\nHost: " + addr + "\r\n\r\n"))
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(conn)
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := reader.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	return sb.String()
}

func TestSearchReturnsMatchingResult(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	resp := rawRequest(t, srv.Addr(), "/?q=roadmap&format=raw")
	assert.Contains(t, resp, "HTTP/1.1 200")
	assert.Contains(t, resp, "a.md:1:2")
}

func TestSearchMissingQueryReturns400(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	resp := rawRequest(t, srv.Addr(), "/")
	assert.Contains(t, resp, "HTTP/1.1 400")
}

func TestSearchUnknownFormatReturns400(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	resp := rawRequest(t, srv.Addr(), "/?q=test&format=xml")
	assert.Contains(t, resp, "HTTP/1.1 400")
}

func TestRebuildReloadsFromStore(t *testing.T) {
	srv, state, cancel := newTestServer(t)
	defer cancel()

	require.NoError(t, state.Store.InsertMany(context.Background(), []block.EmbeddedBlock{
		{Block: block.Block{Path: "c.md", StartLine: 1, EndLine: 1, Content: "fresh content about roadmap"}, Vector: mustEncode(t, "fresh content about roadmap")},
	}))

	resp := rawRequest(t, srv.Addr(), "/rebuild")
	assert.Contains(t, resp, "HTTP/1.1 200")
	assert.Contains(t, resp, "Rebuilt")

	resp = rawRequest(t, srv.Addr(), "/?q=fresh&format=raw")
	assert.Contains(t, resp, "c.md:1:1")
}

func TestResponseIncludesCORSHeaders(t *testing.T) {
	srv, _, cancel := newTestServer(t)
	defer cancel()

	resp := rawRequest(t, srv.Addr(), "/?q=roadmap&format=raw")
	assert.Contains(t, resp, "Access-Control-Allow-Origin: *")
}
