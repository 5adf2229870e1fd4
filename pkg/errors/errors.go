// Package errors defines the error taxonomy shared by every zipline package.
// Callers compare against the sentinels with errors.Is; all returned errors wrap one of them.
package errors

import "fmt"

// Transfer and decode errors.
var (
	// ErrTransport is returned when a connect, list or fetch against a remote source fails.
	ErrTransport = fmt.Errorf("transport error")

	// ErrArchiveFormat is returned when downloaded bytes cannot be read as an archive.
	ErrArchiveFormat = fmt.Errorf("invalid archive format")

	// ErrUnprocessableEntity is returned when a decode is requested on an entry that cannot be decoded.
	ErrUnprocessableEntity = fmt.Errorf("unprocessable entity")

	// ErrFilesystem is returned for local mkdir, write or unlink failures.
	ErrFilesystem = fmt.Errorf("filesystem error")

	// ErrProtocolInvariant is returned when the remote side violates a protocol invariant,
	// such as a working directory that does not match the one requested. It is never retried.
	ErrProtocolInvariant = fmt.Errorf("protocol invariant violation")

	// ErrReleased is returned by operations on an item whose cleanup already ran.
	ErrReleased = fmt.Errorf("item already released")

	// ErrUnknownProtocol is returned when a batch is configured with an unsupported protocol.
	ErrUnknownProtocol = fmt.Errorf("unknown protocol")

	// ErrUnsupportedOperation is returned when a strategy does not implement an operation.
	ErrUnsupportedOperation = fmt.Errorf("operation not supported by protocol")

	// ErrInvalidPath is returned when an entry name would resolve outside the temp root.
	ErrInvalidPath = fmt.Errorf("invalid path")

	// ErrHandleNotFound is returned when an archive handle is no longer registered.
	ErrHandleNotFound = fmt.Errorf("archive handle not found")

	// ErrMemberNotFound is returned when an archive has no member with the requested name.
	ErrMemberNotFound = fmt.Errorf("archive member not found")

	// ErrCommandFailed is returned when a shell command exits non-zero or writes to stderr.
	ErrCommandFailed = fmt.Errorf("command failed")
)

// Config errors.
var (
	ErrEmptyConfigPath    = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath  = fmt.Errorf("invalid config file path")
	ErrConfigParse        = fmt.Errorf("failed to parse config")
	ErrConfigValidation   = fmt.Errorf("invalid configuration")
	ErrConfigEncode       = fmt.Errorf("failed to encode config")
	ErrConfigDirectory    = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate   = fmt.Errorf("failed to create config file")
	ErrConfigFileRename   = fmt.Errorf("failed to rename temporary config file")
	ErrConfigMarshal      = fmt.Errorf("failed to marshal config to YAML")
	ErrConfigEnv          = fmt.Errorf("failed to read environment overrides")
	ErrConcurrencyInvalid = fmt.Errorf("concurrency must be at least 1")
	ErrLimitNegative      = fmt.Errorf("limit cannot be negative")
	ErrHTTPTimeoutInvalid = fmt.Errorf("http_timeout cannot be negative")
	ErrInvalidLogLevel    = fmt.Errorf("invalid log level")
	ErrMissingSource      = fmt.Errorf("source is incomplete")
	ErrConfigFileExists   = fmt.Errorf("configuration file already exists")
)

// Hook errors.
var (
	ErrHookTypeEmpty = fmt.Errorf("hook type cannot be empty")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
	ErrHookLoad      = fmt.Errorf("failed to load hook")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Tag attaches a taxonomy sentinel to err while keeping err itself reachable through errors.Is and errors.As.
func Tag(sentinel, err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", msg, sentinel, err)
}

// ErrInvalidLogLevelWithDetails creates a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: debug, info, warn, error", ErrInvalidLogLevel, level)
}

// ErrUnknownProtocolWithName creates a wrapped error naming the rejected protocol.
func ErrUnknownProtocolWithName(name string) error {
	return fmt.Errorf("%w: '%s', must be one of: zip, ftp, stream", ErrUnknownProtocol, name)
}
