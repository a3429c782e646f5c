package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	err := &StatusError{Code: 503}
	assert.Equal(t, 503, StatusCode(err))
	assert.Equal(t, "unexpected response status 503", err.Error())

	// survives wrapping
	assert.Equal(t, 503, StatusCode(errors.Wrap(err, "fetch page")))

	assert.Zero(t, StatusCode(errors.New("connection refused")))
	assert.Zero(t, StatusCode(nil))
}
