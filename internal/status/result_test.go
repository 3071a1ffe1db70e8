package status

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReady(t *testing.T) {
	r := Ready("Successfully updated 2 transaction(s)!")

	assert.True(t, r.IsReady())
	assert.False(t, r.IsError())
	assert.Empty(t, r.Message)

	v, err := r.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "Successfully updated 2 transaction(s)!", v)
}

func TestError(t *testing.T) {
	r := Errorf[int]("no orders found on page %d", 3)

	assert.True(t, r.IsError())
	assert.False(t, r.IsReady())
	assert.Zero(t, r.Value)

	_, err := r.Unwrap()
	require.EqualError(t, err, "no orders found on page 3")
}

func TestFromError(t *testing.T) {
	assert.True(t, FromError(1, nil).IsReady())

	r := FromError(1, errors.New("boom"))
	assert.True(t, r.IsError())
	assert.Equal(t, "boom", r.Message)
	assert.Zero(t, r.Value)
}

func TestResultJSON(t *testing.T) {
	b, err := json.Marshal(Error[string]("no budgets found"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"ERROR","error":"no budgets found"}`, string(b))

	b, err = json.Marshal(Ready("done"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"OK","result":"done"}`, string(b))
}
