package zeromq

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pebbe/zmq4"
)

// Client is a REQ-socket driver for a controller's request socket. It is not
// safe for concurrent use.
type Client struct {
	socket *zmq4.Socket
}

// Dial connects a client to address. timeout bounds each send and receive.
func Dial(address string, timeout time.Duration) (*Client, error) {
	socket, err := zmq4.NewSocket(zmq4.REQ)
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.SetRcvtimeo(timeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set receive timeout: %w", err)
	}
	if err := socket.SetSndtimeo(timeout); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set send timeout: %w", err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &Client{socket: socket}, nil
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.socket.Close()
}

// Request sends a msgType envelope carrying data and decodes the reply data
// into out. An ERROR reply is returned as a *RemoteError.
func (c *Client) Request(msgType string, data interface{}, out interface{}) error {
	req, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	if _, err := c.socket.SendBytes(req, 0); err != nil {
		return fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	raw, err := c.socket.RecvBytes(0)
	if err != nil {
		return fmt.Errorf("failed to receive reply to %s: %w", msgType, err)
	}

	var reply ZeroMQMessage
	if err := json.Unmarshal(raw, &reply); err != nil {
		return fmt.Errorf("failed to parse reply to %s: %w", msgType, err)
	}
	if reply.Type == MsgTypeError {
		var remote RemoteError
		if err := json.Unmarshal(reply.Data, &remote.ErrorResponse); err != nil {
			return fmt.Errorf("failed to parse error reply: %w", err)
		}
		return &remote
	}
	if out == nil || len(reply.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Data, out); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", reply.Type, err)
	}
	return nil
}

// SendCommand submits a "<verb> <duration>" line.
func (c *Client) SendCommand(line string) (CommandResponse, error) {
	var resp CommandResponse
	err := c.Request(MsgTypeCommandRequest, CommandRequest{Command: line}, &resp)
	return resp, err
}

// Status fetches the status token and the latest snapshot.
func (c *Client) Status() (StatusResponse, error) {
	var resp StatusResponse
	err := c.Request(MsgTypeStatusRequest, nil, &resp)
	return resp, err
}

// Record queues a recorder action.
func (c *Client) Record(action string, index int) error {
	return c.Request(MsgTypeRecordRequest, RecordRequest{Action: action, Index: index}, nil)
}

// RemoteError is an ERROR reply from the controller.
type RemoteError struct {
	ErrorResponse
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("controller error %d: %s", e.Code, e.Message)
}

// Busy reports whether the controller refused a command because the channel
// still held an unread one.
func (e *RemoteError) Busy() bool {
	return e.Code == 409
}
