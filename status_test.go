package frameloop_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/djdv/go-frameloop"
)

func TestStatus(t *testing.T) {
	var (
		unavailable = &frameloop.Status{Code: frameloop.ResourceUnavailable}
		wrapped     = fmt.Errorf("fetch: %w", &frameloop.Status{
			Message: "tile 7",
			Code:    frameloop.ResourceUnavailable,
		})
	)
	assert.Equal(t, "resource unavailable", unavailable.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "resource unavailable: tile 7")
	assert.ErrorIs(t, wrapped, unavailable)
	assert.NotErrorIs(t, wrapped, &frameloop.Status{Code: frameloop.GeneralError})
	assert.Equal(t, "status(42)", frameloop.StatusCode(42).String())
}
