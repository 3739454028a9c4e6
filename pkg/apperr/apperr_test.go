package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeNotFound, CodeOf(NotFound("absent")))
	assert.Equal(t, CodePermissionDenied, CodeOf(Forbidden("non")))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("brut")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestIsThroughWrapping(t *testing.T) {
	inner := NotFound("channel introuvable")
	wrapped := fmt.Errorf("contexte: %w", inner)

	assert.True(t, Is(wrapped, CodeNotFound))
	assert.False(t, Is(wrapped, CodeInternal))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connexion perdue")
	err := Wrap(CodeInternal, "erreur de stockage", cause)

	assert.True(t, Is(err, CodeInternal))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "erreur de stockage: connexion perdue", err.Error())
}
