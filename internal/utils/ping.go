package utils

import (
	"fmt"
	"net"
	"time"
)

// DefaultPingTimeout bounds a single reachability probe
const DefaultPingTimeout = 1500 * time.Millisecond

// PingHost checks if a TCP listener accepts connections at host:port
func PingHost(host, port string, timeout time.Duration) error {
	address := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}
