package server

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/go-stellarium/logger"
	"github.com/arloliu/go-stellarium/stellarium"
)

const (
	// MinBufferSize is the smallest accepted buffer capacity; it must hold one binary current position report.
	// Text connections need at least stellarium.MinBufferSize(stellarium.KindASCII).
	MinBufferSize = stellarium.CurrentPositionMsgSize
	// MaxBufferSize is the largest accepted buffer capacity; frame lengths are 16-bit.
	MaxBufferSize = 65535
)

// ConnectionConfig represents the configuration parameters of a telescope client connection.
type ConnectionConfig struct {
	// bufferSize defines the capacity of both the read and the write buffer.
	// It caps the worst-case memory of a connection and the largest frame a client may send.
	// Defaults to 120 bytes.
	bufferSize int

	// kind selects the framing variant of the connection.
	// Defaults to stellarium.KindBinary.
	kind stellarium.Kind

	// clock returns the server time in microseconds since the Unix epoch.
	// Defaults to time.Now().UnixMicro.
	clock func() int64

	// logger provides a logger instance for logging connection events and errors.
	logger logger.Logger
}

// NewConnectionConfig creates a new connection configuration with optional functional options.
//
// See the documentation for ConnOption and the various WithXXX functions for available configuration options.
//
// Returns a pointer to the initialized ConnectionConfig and an error if any option is invalid.
func NewConnectionConfig(opts ...ConnOption) (*ConnectionConfig, error) {
	cfg := &ConnectionConfig{
		bufferSize: stellarium.DefaultBufferSize,
		kind:       stellarium.KindBinary,
		clock:      defaultClock,
		logger:     logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return cfg, err
		}
	}

	if minSize := stellarium.MinBufferSize(cfg.kind); cfg.bufferSize < minSize {
		return cfg, fmt.Errorf("buffer size %d is too small for %s connections, need at least %d",
			cfg.bufferSize, cfg.kind, minSize)
	}

	return cfg, nil
}

func defaultClock() int64 {
	return time.Now().UnixMicro()
}

// BufferSize returns the capacity of the read and write buffers.
func (cfg *ConnectionConfig) BufferSize() int { return cfg.bufferSize }

// Kind returns the framing variant.
func (cfg *ConnectionConfig) Kind() stellarium.Kind { return cfg.kind }

// Logger returns the configured logger.
func (cfg *ConnectionConfig) Logger() logger.Logger { return cfg.logger }

// ConnOption represents a functional option for configuring a ConnectionConfig.
type ConnOption interface {
	apply(*ConnectionConfig) error
}

type connOptFunc struct {
	name      string
	applyFunc func(*ConnectionConfig) error
}

func (c *connOptFunc) apply(cfg *ConnectionConfig) error { return c.applyFunc(cfg) }

func newConnOptFunc(name string, f func(*ConnectionConfig) error) *connOptFunc {
	return &connOptFunc{
		name:      name,
		applyFunc: f,
	}
}

// WithBufferSize sets the capacity of the read and write buffers.
// An error is returned if size is outside [MinBufferSize, MaxBufferSize] or if the configuration is nil.
// NewConnectionConfig also rejects sizes below stellarium.MinBufferSize for the configured kind.
//
// The default size is 120 bytes.
func WithBufferSize(size int) ConnOption {
	return newConnOptFunc("WithBufferSize", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if size < MinBufferSize || size > MaxBufferSize {
			return fmt.Errorf("buffer size %d is out of range [%d, %d]", size, MinBufferSize, MaxBufferSize)
		}
		cfg.bufferSize = size

		return nil
	})
}

// WithKind sets the framing variant of the connection.
// An error is returned if kind is unknown or if the configuration is nil.
func WithKind(kind stellarium.Kind) ConnOption {
	return newConnOptFunc("WithKind", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		switch kind {
		case stellarium.KindBinary, stellarium.KindASCII:
			cfg.kind = kind
			return nil
		default:
			return fmt.Errorf("unsupported connection kind: %s", kind)
		}
	})
}

// WithClock sets the server clock used to compute the client clock offset.
// clock must return microseconds since the Unix epoch.
func WithClock(clock func() int64) ConnOption {
	return newConnOptFunc("WithClock", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if clock == nil {
			return errors.New("clock is nil")
		}
		cfg.clock = clock

		return nil
	})
}

// WithLogger sets the logger for the connection.
func WithLogger(l logger.Logger) ConnOption {
	return newConnOptFunc("WithLogger", func(cfg *ConnectionConfig) error {
		if cfg == nil {
			return ErrConnConfigNil
		}

		if l == nil {
			return errors.New("logger is nil")
		}
		cfg.logger = l

		return nil
	})
}
