package nv200

import (
	"context"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/piezosystemjena/nv200-go/logger"
	"github.com/piezosystemjena/nv200-go/protocol"
	"github.com/piezosystemjena/nv200-go/transport"
)

// DefaultTimeout is the default reply wait applied to Write and to reads with
// no explicit timeout.
const DefaultTimeout = 400 * time.Millisecond

// cacheableCommands lists the parameters that are static for a connected
// actuator. Their query responses are cached until the parameter is written.
var cacheableCommands = map[string]struct{}{
	"cl":     {},
	"unitcl": {},
	"unitol": {},
	"avmin":  {},
	"avmax":  {},
	"posmin": {},
	"posmax": {},
	"modsrc": {},
	"spisrc": {},
}

// Device is a command client for one NV200 controller.
//
// A Device owns exactly one Transport for its lifetime. All request methods
// serialize on an internal mutex so at most one command is in flight at a
// time, matching the firmware's single-command-at-a-time servicing.
type Device struct {
	transport transport.Transport
	logger    logger.Logger
	timeout   time.Duration

	// mu enforces the single-outstanding-request discipline.
	mu sync.Mutex

	cache *xsync.MapOf[string, []string]
}

// Option is a functional option for configuring a Device.
type Option func(*Device)

// WithLogger sets the logger used by the device client.
func WithLogger(l logger.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// WithDefaultTimeout sets the default reply wait. Defaults to DefaultTimeout.
func WithDefaultTimeout(timeout time.Duration) Option {
	return func(d *Device) { d.timeout = timeout }
}

// NewDevice creates a command client on top of the given transport. The
// transport must not be shared with another client.
func NewDevice(t transport.Transport, opts ...Option) *Device {
	d := &Device{
		transport: t,
		logger:    logger.GetLogger(),
		timeout:   DefaultTimeout,
		cache:     xsync.NewMapOf[string, []string](),
	}
	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Transport returns the transport the client communicates through.
func (d *Device) Transport() transport.Transport { return d.transport }

// Connect establishes the underlying link.
func (d *Device) Connect(ctx context.Context) error {
	return d.transport.Connect(ctx)
}

// Close releases the underlying link and drops all cached parameters.
func (d *Device) Close() error {
	d.ClearCache()
	return d.transport.Close()
}

// ClearCache drops all cached parameter responses.
func (d *Device) ClearCache() {
	d.cache.Clear()
}

// Write sends a command and waits up to the default timeout for the firmware's
// acknowledgment.
//
// Timing out is not an error: Write returns (nil, nil) and the acknowledgment
// is dropped. This is the deliberate fire-and-forget path for commands whose
// acknowledgment is not essential to the caller's control flow. A device error
// response is still surfaced as a *protocol.DeviceError.
func (d *Device) Write(ctx context.Context, cmd string, args ...string) (*protocol.Response, error) {
	d.cache.Delete(commandName(cmd))

	raw, err := d.roundTrip(ctx, cmd, args, d.timeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) {
			return nil, nil
		}
		return nil, err
	}

	return protocol.Decode(raw)
}

// Read sends a command and waits, with an explicit timeout, for the raw reply.
// A timeout of zero uses the default. Timing out fails with ErrTimeout because
// callers of Read depend on the value.
func (d *Device) Read(ctx context.Context, cmd string, timeout time.Duration) ([]byte, error) {
	return d.roundTrip(ctx, cmd, nil, timeout)
}

// ReadResponse sends a command and decodes the reply.
func (d *Device) ReadResponse(ctx context.Context, cmd string, timeout time.Duration) (*protocol.Response, error) {
	raw, err := d.Read(ctx, cmd, timeout)
	if err != nil {
		return nil, err
	}

	return protocol.Decode(raw)
}

// ReadValues sends a command and returns the parameter list of the reply.
//
// Responses of cacheable static parameters are served from the client's cache
// when available; writing the parameter invalidates its cache entry.
func (d *Device) ReadValues(ctx context.Context, cmd string, timeout time.Duration) ([]string, error) {
	name := commandName(cmd)
	_, cacheable := cacheableCommands[name]
	cacheable = cacheable && name == cmd

	if cacheable {
		if values, ok := d.cache.Load(name); ok {
			return slices.Clone(values), nil
		}
	}

	resp, err := d.ReadResponse(ctx, cmd, timeout)
	if err != nil {
		return nil, err
	}

	if cacheable {
		// Store a copy so callers mutating the returned slice cannot poison
		// later cache hits.
		d.cache.Store(name, slices.Clone(resp.Parameters))
	}

	return resp.Parameters, nil
}

// ReadParameterString sends a command and returns the reply's parameters
// re-joined with commas, exactly as the device sent them.
func (d *Device) ReadParameterString(ctx context.Context, cmd string) (string, error) {
	values, err := d.ReadValues(ctx, cmd, 0)
	if err != nil {
		return "", err
	}

	return strings.Join(values, ","), nil
}

// ReadStringValue reads the first parameter of the reply as a string.
func (d *Device) ReadStringValue(ctx context.Context, cmd string) (string, error) {
	values, err := d.ReadValues(ctx, cmd, 0)
	if err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%w: command %q", ErrMissingParameter, cmd)
	}

	return values[0], nil
}

// ReadFloatValue reads the parameter at index from the reply as a float.
func (d *Device) ReadFloatValue(ctx context.Context, cmd string, index int) (float64, error) {
	s, err := d.parameterAt(ctx, cmd, index)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("nv200: parameter %d of %q is not a float: %w", index, cmd, err)
	}

	return v, nil
}

// ReadIntValue reads the parameter at index from the reply as an integer.
func (d *Device) ReadIntValue(ctx context.Context, cmd string, index int) (int, error) {
	s, err := d.parameterAt(ctx, cmd, index)
	if err != nil {
		return 0, err
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("nv200: parameter %d of %q is not an integer: %w", index, cmd, err)
	}

	return v, nil
}

func (d *Device) parameterAt(ctx context.Context, cmd string, index int) (string, error) {
	values, err := d.ReadValues(ctx, cmd, 0)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(values) {
		return "", fmt.Errorf("%w: command %q has no parameter %d", ErrMissingParameter, cmd, index)
	}

	return values[index], nil
}

// roundTrip sends one command and waits for one reply. It holds the request
// mutex for the full send/receive cycle so requests are strictly ordered.
func (d *Device) roundTrip(ctx context.Context, cmd string, args []string, timeout time.Duration) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timeout <= 0 {
		timeout = d.timeout
	}

	frame := protocol.Encode(cmd, args...)
	d.logger.Debug("write command", "cmd", cmd)

	if err := d.transport.Write(ctx, frame); err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	raw, err := d.transport.ReadResponse(readCtx)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: command %q", ErrTimeout, cmd)
		}
		return nil, err
	}

	return raw, nil
}

// commandName returns the command token of a possibly argument-carrying
// command string ("recsrc,0" -> "recsrc").
func commandName(cmd string) string {
	name, _, _ := strings.Cut(cmd, ",")
	return name
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
