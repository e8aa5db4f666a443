package cryptoauth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-cryptoauth/protocol"
)

// Executor sends one framed command to the device and returns the raw
// response frame. It owns wake, idle, timing and retries; the Client
// never retries a failed call.
type Executor interface {
	Execute(ctx context.Context, cmd []byte) ([]byte, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd []byte) ([]byte, error)

// Execute calls f(ctx, cmd).
func (f ExecutorFunc) Execute(ctx context.Context, cmd []byte) ([]byte, error) {
	return f(ctx, cmd)
}

// Client runs authenticated commands against one secure element.
//
// A Client holds no session state between calls. It is not safe for
// concurrent use: callers sharing a device must serialise their calls.
type Client struct {
	exec   Executor
	config Config
}

// New creates a Client that sends commands through exec.
//
// Example:
//
//	client := cryptoauth.New(i2cExecutor,
//	    cryptoauth.WithVariant(protocol.ATECC608),
//	    cryptoauth.WithLogger(myLogger),
//	)
func New(exec Executor, opts ...Option) *Client {
	if exec == nil {
		panic("executor cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		exec:   exec,
		config: cfg,
	}
}

// Variant returns the device variant the Client was configured for.
func (c *Client) Variant() protocol.Variant {
	return c.config.Variant
}

// MaxPacketSize returns the largest command the Client will send.
func (c *Client) MaxPacketSize() int {
	return c.config.MaxPacketSize
}

// checkCapacity rejects a mode whose payload cannot fit the configured
// packet size. It runs before any transport use.
func (c *Client) checkCapacity(opcode, mode byte) error {
	size, err := protocol.RequiredPayload(opcode, mode)
	if err != nil {
		return err
	}
	return protocol.CheckCapacity(size, c.config.MaxPacketSize)
}

// execute frames pkt into a scratch buffer, runs it and returns the
// response data. The packet payload and the scratch buffer are wiped on
// every exit path.
func (c *Client) execute(ctx context.Context, op string, pkt *protocol.Packet) ([]byte, error) {
	defer pkt.Wipe()

	if err := protocol.CheckCapacity(len(pkt.Data), c.config.MaxPacketSize); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	buf, err := c.config.Allocator.Acquire(pkt.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, protocol.ErrAllocFailure, err)
	}
	defer c.config.Allocator.Release(buf)
	if cap(buf) < pkt.Size() {
		return nil, fmt.Errorf("%s: %w: scratch buffer holds %d bytes, need %d",
			op, protocol.ErrAllocFailure, cap(buf), pkt.Size())
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: cancelled: %w", op, err)
	}

	frame := pkt.AppendTo(buf[:0])

	start := time.Now()
	response, err := c.exec.Execute(ctx, frame)
	if err != nil {
		c.logError("execute failed", "op", op, "error", err)
		return nil, fmt.Errorf("%s: %w: %w", op, protocol.ErrExecutionFailure, err)
	}

	data, err := protocol.ParseResponse(response)
	if err != nil {
		var se *protocol.StatusError
		if errors.As(err, &se) {
			se.Operation = op
			c.logDebug("device status", "op", op, "status", fmt.Sprintf("0x%02X", se.StatusCode))
			return nil, se
		}
		return nil, fmt.Errorf("%s: %w: %w", op, protocol.ErrExecutionFailure, err)
	}

	c.logDebug("command complete",
		"op", op,
		"mode", fmt.Sprintf("0x%02X", pkt.Param1),
		"response_bytes", len(data),
		"elapsed", time.Since(start).String(),
	)

	return data, nil
}

// reportStep calls the step callback if configured.
func (c *Client) reportStep(op string, state State, verified bool, start time.Time) {
	if c.config.StepCallback != nil {
		c.config.StepCallback(Step{
			Operation:   op,
			State:       state,
			Verified:    verified,
			ElapsedTime: time.Since(start),
		})
	}
}

// logDebug logs a debug message if logger is configured.
func (c *Client) logDebug(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if logger is configured.
func (c *Client) logInfo(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if logger is configured.
func (c *Client) logError(msg string, keysAndValues ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Error(msg, keysAndValues...)
	}
}
