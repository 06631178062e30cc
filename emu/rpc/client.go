package rpc

import (
	"fmt"
	"net/rpc"
	"time"

	"chipper/emu"
	"chipper/emu/log"
)

type Client struct {
	client *rpc.Client
}

// NewClient connects to the emulator RPC server at addr. It retries for a
// short while, giving some time to the emulator to start.
func NewClient(addr string) (*Client, error) {
	var (
		client *rpc.Client
		err    error
	)
	const maxretries = 5
	for i := range maxretries {
		if client, err = rpc.Dial("tcp", addr); err == nil {
			return &Client{client: client}, nil
		}
		log.ModRPC.DebugZ("Dial failed").Error("err", err).Int("retry", i).End()
		time.Sleep(250 * time.Millisecond)
	}
	return nil, fmt.Errorf("dial failed after %d retries: %w", maxretries, err)
}

func (c *Client) Close() error {
	log.ModRPC.DebugZ("Closing RPC client").End()
	return c.client.Close()
}

func (c *Client) SetPause(pause bool) error { return call(c.client, "SetPause", pause) }
func (c *Client) Reset() error              { return call(c.client, "Reset", nil) }
func (c *Client) Stop() error               { return call(c.client, "Stop", nil) }

func (c *Client) Status() (emu.Status, error) {
	return request[emu.Status](c.client, "Status", nil)
}

func call(client *rpc.Client, method string, args any) error {
	_, err := request[struct{}](client, method, args)
	return err
}

func request[T any](client *rpc.Client, method string, args any) (T, error) {
	if args == nil {
		args = &struct{}{}
	}
	var reply T
	if err := client.Call(service+"."+method, args, &reply); err != nil {
		return reply, fmt.Errorf("rpc %s: %w", method, err)
	}
	return reply, nil
}
