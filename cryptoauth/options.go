package cryptoauth

import "github.com/moffa90/go-cryptoauth/protocol"

// Config holds the client configuration.
type Config struct {
	// Variant selects the device family and its capabilities
	Variant protocol.Variant

	// MaxPacketSize is the largest command the transport can carry.
	// Commands that would exceed it fail with protocol.ErrInvalidSize
	// before the executor is called.
	MaxPacketSize int

	// Logger is used for logging operations (optional)
	Logger Logger

	// Allocator provides scratch command buffers
	Allocator PacketAllocator

	// ConfigReader reads the configuration zone for SecureBootMAC.
	// When nil the Client reads through its own executor.
	ConfigReader ConfigReader

	// StepCallback is called as verify and secure boot transactions
	// advance (optional)
	StepCallback StepCallback
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Variant:       protocol.ATECC608,
		MaxPacketSize: protocol.DefaultMaxPacketSize,
		Allocator:     HeapAllocator{},
	}
}

// Option is a functional option for configuring the Client.
type Option func(*Config)

// WithVariant sets the device variant. The default is ATECC608.
//
// Example:
//
//	client := cryptoauth.New(exec, cryptoauth.WithVariant(protocol.ATECC508A))
func WithVariant(v protocol.Variant) Option {
	return func(c *Config) {
		c.Variant = v
	}
}

// WithMaxPacketSize sets the largest command the transport can carry.
// Values outside the one-byte count range are ignored.
func WithMaxPacketSize(size int) Option {
	return func(c *Config) {
		if size >= protocol.CmdSizeMin && size <= 0xFF {
			c.MaxPacketSize = size
		}
	}
}

// WithLogger sets a logger for client operations.
//
// Example:
//
//	client := cryptoauth.New(exec, cryptoauth.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithAllocator sets the scratch buffer allocator.
func WithAllocator(a PacketAllocator) Option {
	return func(c *Config) {
		if a != nil {
			c.Allocator = a
		}
	}
}

// WithConfigReader sets the reader used to fetch SecureBootConfig.
func WithConfigReader(r ConfigReader) Option {
	return func(c *Config) {
		c.ConfigReader = r
	}
}

// WithStepCallback sets a callback to track transaction state.
//
// Example:
//
//	client := cryptoauth.New(exec,
//	    cryptoauth.WithStepCallback(func(s cryptoauth.Step) {
//	        fmt.Printf("%s: %s\n", s.Operation, s.State)
//	    }),
//	)
func WithStepCallback(callback StepCallback) Option {
	return func(c *Config) {
		c.StepCallback = callback
	}
}
