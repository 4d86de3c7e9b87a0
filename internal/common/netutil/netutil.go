package netutil

import (
	"fmt"
	"net"
	"strings"
	"time"
)

// BaseURL turns a server address such as "localhost:8000" into an HTTP base URL.
// Addresses that already carry a scheme are returned without a trailing slash.
func BaseURL(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + strings.TrimRight(addr, "/")
}

// IsPortBusy reports whether something already accepts TCP connections on host:port.
func IsPortBusy(host string, port int) (bool, string) {
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(host, fmt.Sprint(port)), 200*time.Millisecond)
	if err == nil {
		_ = conn.Close()
		return true, "tcp listener detected"
	}
	return false, ""
}

// ChooseFreePort finds an available TCP port by asking the kernel for :0.
func ChooseFreePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
