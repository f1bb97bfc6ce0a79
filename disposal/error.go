package disposal

import "fmt"

type constError string

// ErrInvalidDepth may be returned from [New].
const ErrInvalidDepth = constError("invalid depth")

func (errStr constError) Error() string { return string(errStr) }

func minDepthError(depth int) error {
	return fmt.Errorf(
		"%w: must be >=%d but %d was requested",
		ErrInvalidDepth, MinimumDepth, depth)
}
