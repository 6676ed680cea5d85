package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestScanErrMapsNoRowsToNotFound(t *testing.T) {
	err := scanErr(pgx.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestScanErrMapsWrappedNoRows(t *testing.T) {
	wrapped := fmt.Errorf("get habit: %w", pgx.ErrNoRows)
	assert.ErrorIs(t, scanErr(wrapped), ErrNotFound)
}

func TestScanErrPassesOtherErrorsThrough(t *testing.T) {
	boom := errors.New("connection reset")
	err := scanErr(boom)
	assert.Equal(t, boom, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestScanErrNil(t *testing.T) {
	assert.NoError(t, scanErr(nil))
}
