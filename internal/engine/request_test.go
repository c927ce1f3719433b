package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/revcon/internal/asset"
)

func TestBuildRequest_CapsAtLimit(t *testing.T) {
	a := asset.Action{Denom: "token-c", Contract: "contract-c", Limit: 100}

	req, err := BuildRequest(a, asset.NewCoin("token-c", 1000))
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, uint64(100), req.Funds.Amount)
	assert.Equal(t, asset.Denom("token-c"), req.Funds.Denom)
	assert.Equal(t, "contract-c", req.Contract)
}

func TestBuildRequest_BalanceBelowLimit(t *testing.T) {
	a := asset.Action{Denom: "token-a", Contract: "contract-a", Limit: 500}

	req, err := BuildRequest(a, asset.NewCoin("token-a", 42))
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, uint64(42), req.Funds.Amount)
}

func TestBuildRequest_ZeroBalance_Inert(t *testing.T) {
	a := asset.Action{Denom: "token-a", Contract: "contract-a", Limit: 500}

	req, err := BuildRequest(a, asset.NewCoin("token-a", 0))
	require.NoError(t, err)
	assert.Nil(t, req, "inert action produces no request")
}

func TestBuildRequest_ZeroLimit_Inert(t *testing.T) {
	a := asset.Action{Denom: "token-a", Contract: "contract-a", Limit: 0}

	req, err := BuildRequest(a, asset.NewCoin("token-a", 1000))
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestBuildRequest_InvalidDenom(t *testing.T) {
	a := asset.Action{Denom: "token-a", Contract: "contract-a", Limit: 500}

	_, err := BuildRequest(a, asset.NewCoin("token-b", 1000))
	require.Error(t, err)
	assert.True(t, IsInvalidDenom(err))
}

func TestBuildRequest_CarriesMsgPayload(t *testing.T) {
	msg := json.RawMessage(`{"swap":{"min_return":"1"}}`)
	a := asset.Action{Denom: "token-a", Contract: "fin", Limit: 10, Msg: msg}

	req, err := BuildRequest(a, asset.NewCoin("token-a", 10))
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.JSONEq(t, string(msg), string(req.Msg))
}
