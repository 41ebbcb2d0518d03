package login_test

import (
	"encoding/json"
	"testing"

	"github.com/authmodule/authmodule-api/internal/login"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_AbsentIsNotEmpty(t *testing.T) {
	empty := login.Some("")
	absent := login.None[string]()

	assert.True(t, empty.IsPresent())
	assert.False(t, absent.IsPresent())
	assert.NotEqual(t, empty, absent)

	v, ok := empty.Get()
	assert.True(t, ok)
	assert.Equal(t, "", v)

	assert.Equal(t, "fallback", absent.OrElse("fallback"))
	assert.Equal(t, "", empty.OrElse("fallback"))
}

func TestOptional_ZeroValueIsAbsent(t *testing.T) {
	var o login.Optional[string]
	assert.False(t, o.IsPresent())
	assert.Equal(t, login.None[string](), o)
}

func TestOptional_JSON(t *testing.T) {
	data, err := json.Marshal(login.None[string]())
	require.NoError(t, err)
	assert.JSONEq(t, `null`, string(data))

	data, err = json.Marshal(login.Some(""))
	require.NoError(t, err)
	assert.JSONEq(t, `""`, string(data))

	var decoded login.Optional[string]
	require.NoError(t, json.Unmarshal([]byte(`"bad password"`), &decoded))
	assert.Equal(t, login.Some("bad password"), decoded)

	require.NoError(t, json.Unmarshal([]byte(`null`), &decoded))
	assert.False(t, decoded.IsPresent())
}
