package probe

import (
	"context"
	"fmt"
	"net"
	"time"
)

// Result captures one probe outcome
type Result struct {
	Reachable bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// TCPProbe checks that an endpoint accepts TCP connections
type TCPProbe struct {
	// Address is the TCP address to connect to (e.g., "203.0.113.7:22")
	Address string

	// Timeout is the connection timeout (default: 5 seconds)
	Timeout time.Duration
}

// NewTCPProbe creates a new TCP probe
func NewTCPProbe(address string) *TCPProbe {
	return &TCPProbe{
		Address: address,
		Timeout: 5 * time.Second,
	}
}

// WithTimeout sets the connection timeout
func (p *TCPProbe) WithTimeout(timeout time.Duration) *TCPProbe {
	p.Timeout = timeout
	return p
}

// Check attempts the connection
func (p *TCPProbe) Check(ctx context.Context) Result {
	start := time.Now()

	dialer := &net.Dialer{
		Timeout: p.Timeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return Result{
			Reachable: false,
			Message:   fmt.Sprintf("connection failed: %v", err),
			CheckedAt: start,
			Duration:  time.Since(start),
		}
	}
	defer conn.Close()

	return Result{
		Reachable: true,
		Message:   fmt.Sprintf("TCP connection to %s successful", p.Address),
		CheckedAt: start,
		Duration:  time.Since(start),
	}
}
