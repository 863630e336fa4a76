package dao

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorEncoding(t *testing.T) {
	raw, err := json.Marshal(ErrDeadlineOverflow)
	require.NoError(t, err)
	require.JSONEq(t, `{"code":11,"message":"deadline overflows the block height"}`, string(raw))

	wrapped := errors.Wrap(ErrSupplyOverflow, "distribute")
	require.ErrorIs(t, wrapped, ErrSupplyOverflow)
	require.Equal(t, "amount overflows the token supply (code 10)", ErrSupplyOverflow.Error())
}
