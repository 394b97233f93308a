package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danimelchor/mindmap-go/internal/block"
	"github.com/danimelchor/mindmap-go/internal/encode"
	"github.com/danimelchor/mindmap-go/internal/nnindex"
	"github.com/danimelchor/mindmap-go/internal/store"
)

func TestNotifyClientTriggersRebuild(t *testing.T) {
	st, err := store.Open(t.TempDir() + "/mindmap.db")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	idx := nnindex.New()
	state := &State{Store: st, Encoder: encode.NewHashEncoder(), Index: idx, NumResults: 5}

	srv, err := New("127.0.0.1:0", state)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	require.NoError(t, st.InsertMany(context.Background(), []block.EmbeddedBlock{
		{Block: block.Block{Path: "x.md", StartLine: 1, EndLine: 1, Content: "hello"}, Vector: []float32{1, 0}},
	}))

	client := NewNotifyClient(srv.Addr())
	client.NotifyRebuild()

	deadline := time.Now().Add(2 * time.Second)
	for idx.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	assert.Equal(t, 1, idx.Len())
}

func TestNotifyClientSwallowsConnectionFailure(t *testing.T) {
	client := NewNotifyClient("127.0.0.1:1")
	client.NotifyRebuild() // must not panic or block
}
