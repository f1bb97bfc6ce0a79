package frameloop

import "fmt"

type constError string

const (
	// ErrInvalidConfig may be returned from [New].
	ErrInvalidConfig = constError("invalid config")
	// ErrNoCompiler is returned by [Loop.Compile]
	// if [Config.Compiler] was not set.
	ErrNoCompiler = constError("no compiler configured")
	// ErrClosed is returned by [Loader.Request] after [Loader.Close].
	ErrClosed = constError("loader is closed")
)

func (errStr constError) Error() string { return string(errStr) }

func configError(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
}
