package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("handler: %w", wrapError(KindConflict, "duplicate", cause))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, IsKind(err, KindConflict))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindInternal, KindOf(cause))
	assert.False(t, IsKind(nil, KindInternal))
	assert.Equal(t, "duplicate: boom", wrapError(KindConflict, "duplicate", cause).Error())
	assert.Equal(t, "not_found", KindNotFound.String())
}
