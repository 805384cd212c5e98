package probe

import (
	"context"
	"net"
	"time"

	"github.com/Nathanael1721/Final-Project/internal/ports"
)

const (
	DefaultTarget  = "8.8.8.8:53"
	DefaultTimeout = time.Second
)

// TCPProbe considers the remote reachable when a TCP connection to a
// well-known host completes within the timeout. Unlike ICMP it needs no raw
// socket privileges.
type TCPProbe struct {
	target  string
	timeout time.Duration
	dialer  net.Dialer
}

func NewTCPProbe(target string, timeout time.Duration) *TCPProbe {
	if target == "" {
		target = DefaultTarget
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &TCPProbe{target: target, timeout: timeout}
}

func (p *TCPProbe) IsOnline(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.target)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *TCPProbe) Target() string { return p.target }

// Static always gives the same answer. Useful for dry runs and tests.
type Static bool

func (s Static) IsOnline(context.Context) bool { return bool(s) }

var (
	_ ports.ConnectivityProbe = (*TCPProbe)(nil)
	_ ports.ConnectivityProbe = Static(false)
)
