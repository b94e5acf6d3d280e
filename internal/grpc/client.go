package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
)

// Client reaches a backend relay and implements interfaces.Inspector
type Client struct {
	conn *grpc.ClientConn
}

func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(codecName)),
	}, opts...)

	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client: %w", err)
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) Inspect(ctx context.Context, inspectLink string) (*interfaces.InspectResponse, error) {
	out := new(interfaces.InspectResponse)
	if err := c.conn.Invoke(ctx, inspectMethod, &InspectRequest{InspectLink: inspectLink}, out); err != nil {
		return nil, err
	}
	return out, nil
}
