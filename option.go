package rcon

import "time"

// sessionConfig holds the configuration assembled by a set of SessionOption
// values before a Session is constructed.
type sessionConfig struct {
	charset              Charset
	readBufferCapacity   int
	writeBufferCapacity  int
	strategy             FragmentStrategy
	fragmentTimeout      time.Duration
	transportReadTimeout time.Duration
	logger               Logger
}

// defaultReadBufferCapacity must be at least large enough to admit a full
// max-size frame (4096-byte payload plus the 10-byte wrapper).
const defaultReadBufferCapacity = 4096 + wrapperSize

const (
	defaultFragmentTimeout      = 100 * time.Millisecond
	defaultTransportReadTimeout = 5 * time.Second
)

func defaultSessionConfig() sessionConfig {
	return sessionConfig{
		charset:              UTF8,
		readBufferCapacity:   defaultReadBufferCapacity,
		writeBufferCapacity:  defaultWriteBufferCapacity,
		strategy:             ActiveProbeStrategy,
		fragmentTimeout:      defaultFragmentTimeout,
		transportReadTimeout: defaultTransportReadTimeout,
		logger:               noopLogger{},
	}
}

// SessionOption configures a Session at construction time.
type SessionOption func(*sessionConfig)

// WithCharset selects the character encoding used for packet payloads. It
// is a construction-time property; changing the charset mid-session is not
// supported.
func WithCharset(charset Charset) SessionOption {
	return func(c *sessionConfig) {
		c.charset = charset
	}
}

// WithReadBufferCapacity sets the capacity of the Session's read scratch
// buffer. It must be at least large enough to admit a full-size frame
// (4106 bytes); smaller values are rounded up when the Session is built.
func WithReadBufferCapacity(n int) SessionOption {
	return func(c *sessionConfig) {
		c.readBufferCapacity = n
	}
}

// WithWriteBufferCapacity sets the initial capacity of the Session's write
// scratch buffer. It grows on demand if a validated payload would not fit.
func WithWriteBufferCapacity(n int) SessionOption {
	return func(c *sessionConfig) {
		c.writeBufferCapacity = n
	}
}

// WithFragmentStrategy selects the algorithm used to decide when a
// multi-packet command response is complete. ActiveProbeStrategy is the
// default.
func WithFragmentStrategy(s FragmentStrategy) SessionOption {
	return func(c *sessionConfig) {
		c.strategy = s
	}
}

// WithFragmentTimeout sets the inactivity window used by TimeoutStrategy.
// It has no effect under any other strategy.
func WithFragmentTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.fragmentTimeout = d
	}
}

// WithTransportReadTimeout sets the deadline applied to individual reads.
// It should be at least as long as the fragment timeout when
// TimeoutStrategy is active, or every ordinary read risks looking like a
// fragment boundary.
func WithTransportReadTimeout(d time.Duration) SessionOption {
	return func(c *sessionConfig) {
		c.transportReadTimeout = d
	}
}

// WithLogger sets the Logger a Session reports structured events to. The
// core never performs its own I/O for logging; it only calls through this
// interface. The default is a no-op logger, not slog.Default(), so that
// embedding this package never logs to a caller's stdout uninvited.
func WithLogger(logger Logger) SessionOption {
	return func(c *sessionConfig) {
		c.logger = logger
	}
}
