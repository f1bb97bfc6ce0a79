package frameloop

import "context"

type (
	// Fetcher retrieves the raw bytes for an identifier,
	// typically over the network or from disk.
	Fetcher interface {
		Fetch(ctx context.Context, id string) ([]byte, error)
	}
	// FetcherFunc adapts a function to the [Fetcher] interface.
	FetcherFunc func(ctx context.Context, id string) ([]byte, error)

	// Decoder turns fetched bytes into a usable value.
	// It runs on a loader worker goroutine.
	Decoder[Value any] func(id string, data []byte) (Value, error)

	// Compiler prepares an object for the device.
	// It may block until the device can accept the work,
	// so it must only be called from tasks, never from [Loop.Update].
	Compiler interface {
		Compile(ctx context.Context, object any) (CompileResult, error)
	}
	// CompilerFunc adapts a function to the [Compiler] interface.
	CompilerFunc func(ctx context.Context, object any) (CompileResult, error)

	// CompileResult is the outcome of a compile.
	CompileResult interface {
		// RequiresUpdate reports whether the result must be
		// merged into render-side state before it is usable.
		RequiresUpdate() bool
	}
)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, id string) ([]byte, error) {
	return f(ctx, id)
}

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, object any) (CompileResult, error) {
	return f(ctx, object)
}
