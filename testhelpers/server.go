// Package testhelpers runs an in-process JetStream-enabled NATS server
// for integration tests.
package testhelpers

import (
	"fmt"
	"os"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NewInProcessNATSServer starts an embedded NATS server on a random
// port and returns a connected client, a JetStream handle, and a
// shutdown func that tears everything down.
func NewInProcessNATSServer() (*nats.Conn, jetstream.JetStream, func(), error) {
	storeDir, err := os.MkdirTemp("", "pocketkit-js-")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create store dir: %w", err)
	}

	opts := &server.Options{
		Host:      "127.0.0.1",
		Port:      -1,
		JetStream: true,
		StoreDir:  storeDir,
		NoLog:     true,
		NoSigs:    true,
	}

	srv, err := server.NewServer(opts)
	if err != nil {
		os.RemoveAll(storeDir)
		return nil, nil, nil, fmt.Errorf("failed to create server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(10 * time.Second) {
		srv.Shutdown()
		os.RemoveAll(storeDir)
		return nil, nil, nil, fmt.Errorf("server did not become ready")
	}

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		srv.Shutdown()
		os.RemoveAll(storeDir)
		return nil, nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		srv.Shutdown()
		os.RemoveAll(storeDir)
		return nil, nil, nil, fmt.Errorf("failed to init JetStream: %w", err)
	}

	shutdown := func() {
		nc.Close()
		srv.Shutdown()
		srv.WaitForShutdown()
		os.RemoveAll(storeDir)
	}
	return nc, js, shutdown, nil
}
