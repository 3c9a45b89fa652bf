// Package rpc provides Unix socket IPC between the udisc watch daemon and
// the list CLI.
package rpc

import (
	"fmt"
	"net"
	netrpc "net/rpc"
	"os"

	"github.com/rs/zerolog"

	"udisc/internal/registry"
)

// Service is the RPC service exposed by the watch daemon.
type Service struct {
	reg *registry.Store
	log zerolog.Logger
}

// ListServicesArgs is the request for ListServices.
type ListServicesArgs struct{}

// ListServicesReply is the response for ListServices.
type ListServicesReply struct {
	Services []registry.Record
}

// ListServices returns all currently active service records.
func (s *Service) ListServices(args *ListServicesArgs, reply *ListServicesReply) error {
	records, err := s.reg.Active()
	if err != nil {
		return fmt.Errorf("fetching active services: %w", err)
	}
	reply.Services = records
	return nil
}

// StartServer starts the Unix socket RPC server.
func StartServer(socketPath string, reg *registry.Store, log zerolog.Logger) error {
	service := &Service{reg: reg, log: log}

	server := netrpc.NewServer()
	if err := server.Register(service); err != nil {
		return fmt.Errorf("registering RPC service: %w", err)
	}

	// Remove existing socket file if present
	os.Remove(socketPath)

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", socketPath, err)
	}

	if err := os.Chmod(socketPath, 0660); err != nil {
		log.Warn().Err(err).Msg("Failed to set socket permissions")
	}

	log.Info().Str("socket", socketPath).Msg("RPC server started")

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			go server.ServeConn(conn)
		}
	}()

	return nil
}

// Client is a client for the watch daemon's RPC service.
type Client struct {
	client *netrpc.Client
}

// NewClient dials the Unix socket and returns an RPC client.
func NewClient(socketPath string) (*Client, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connecting to RPC socket %s: %w", socketPath, err)
	}
	return &Client{client: netrpc.NewClient(conn)}, nil
}

// Close closes the RPC client connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ListServices fetches all active service records from the watch daemon.
func (c *Client) ListServices() ([]registry.Record, error) {
	args := &ListServicesArgs{}
	reply := &ListServicesReply{}
	if err := c.client.Call("Service.ListServices", args, reply); err != nil {
		return nil, err
	}
	return reply.Services, nil
}
