package frameloop

import "fmt"

// StatusCode classifies a failed background operation.
type StatusCode int

const (
	GeneralError StatusCode = iota + 1
	ResourceUnavailable
	ServiceUnavailable
	ConfigurationError
)

// Status is an error describing why a background operation failed.
// Two statuses match under [errors.Is] when their codes are equal.
type Status struct {
	Message string
	Code    StatusCode
}

func (code StatusCode) String() string {
	switch code {
	case GeneralError:
		return "general error"
	case ResourceUnavailable:
		return "resource unavailable"
	case ServiceUnavailable:
		return "service unavailable"
	case ConfigurationError:
		return "configuration error"
	default:
		return fmt.Sprintf("status(%d)", int(code))
	}
}

func (s *Status) Error() string {
	if s.Message == "" {
		return s.Code.String()
	}
	return s.Code.String() + ": " + s.Message
}

// Is reports whether target is a [*Status] with the same code.
func (s *Status) Is(target error) bool {
	other, ok := target.(*Status)
	return ok && other.Code == s.Code
}
