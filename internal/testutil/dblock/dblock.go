// Package dblock serializes integration tests that share one Postgres
// database across test binaries by holding a loopback TCP port.
package dblock

import (
	"net"
	"os"
	"testing"
	"time"
)

const defaultAddr = "127.0.0.1:45432"

// Acquire blocks until the lock is held and releases it when t finishes.
func Acquire(t testing.TB) {
	t.Helper()
	addr := os.Getenv("DBLOCK_ADDR")
	if addr == "" {
		addr = defaultAddr
	}
	deadline := time.Now().Add(2 * time.Minute)
	for {
		ln, err := net.Listen("tcp", addr)
		if err == nil {
			t.Cleanup(func() { _ = ln.Close() })
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("dblock: %s still held after 2m: %v", addr, err)
		}
		time.Sleep(50 * time.Millisecond)
	}
}
