package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))

	notFound := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	assert.Equal(t, http.StatusNotFound, notFound.HTTPStatus)
	assert.Equal(t, "NOT_FOUND", notFound.Code)

	conflict := ToDomainError(fmt.Errorf("wrapped: %w", NewConflict("taken", nil)))
	assert.Equal(t, http.StatusConflict, conflict.HTTPStatus)

	cause := errors.New("disk on fire")
	internal := ToDomainError(cause)
	assert.Equal(t, http.StatusInternalServerError, internal.HTTPStatus)
	assert.ErrorIs(t, internal, cause)
	assert.Equal(t, "internal server error: disk on fire", internal.Error())
}

func TestWrap(t *testing.T) {
	cause := errors.New("ticket closed")
	base := NewConflict("ticket already closed", nil)

	wrapped := Wrap(base, cause)
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, base.(*DomainError).Err, "base is not mutated")

	plain := errors.New("plain")
	assert.Same(t, plain, Wrap(plain, cause))
}
