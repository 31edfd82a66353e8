//go:build nocv

package capture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStubUnavailable(t *testing.T) {
	t.Parallel()

	src, err := Opener{}.Open("0")
	assert.Nil(t, src)
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = BlobLocator{}.Locate(&Frame{})
	assert.ErrorIs(t, err, ErrUnavailable)
}
