package sandbox

import "errors"

// Sentinel errors for sandbox operations.
var (
	// ErrNotFound indicates the sandbox does not exist.
	ErrNotFound = errors.New("sandbox not found")

	// ErrProviderUnknown indicates no provider is registered under the
	// requested name.
	ErrProviderUnknown = errors.New("unknown sandbox provider")

	// ErrNotRunning indicates the sandbox is not running when it should be.
	ErrNotRunning = errors.New("sandbox not running")

	// ErrCommandFailed indicates command execution could not be started.
	ErrCommandFailed = errors.New("command execution failed")

	// ErrTemplateUnsupported indicates the provider has no template build
	// pipeline.
	ErrTemplateUnsupported = errors.New("provider does not support template builds")

	// ErrTimeout indicates the operation timed out.
	ErrTimeout = errors.New("operation timed out")
)
