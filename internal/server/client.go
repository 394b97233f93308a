package server

import (
	"fmt"
	"net"
	"time"
)

// notifyTimeout bounds how long a rebuild notification waits for the
// server to accept the connection before giving up silently.
const notifyTimeout = 2 * time.Second

// NotifyClient tells a running Server at addr to rebuild its NN index. It
// is a Notifier: any failure (no server listening, timeout) is swallowed,
// since a rebuild notification is advisory, not required for correctness
// -- the server also rebuilds from the same store on every restart.
type NotifyClient struct {
	Addr string
}

// NewNotifyClient returns a Notifier that targets addr ("host:port").
func NewNotifyClient(addr string) *NotifyClient {
	return &NotifyClient{Addr: addr}
}

// NotifyRebuild implements index.Notifier.
func (c *NotifyClient) NotifyRebuild() {
	conn, err := net.DialTimeout("tcp", c.Addr, notifyTimeout)
	if err != nil {
		return
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(notifyTimeout))
	request := fmt.Sprintf("GET /rebuild HTTP/1.1\r\nHost: %s\r\n\r\n", c.Addr)
	_, _ = conn.Write([]byte(request))
}
