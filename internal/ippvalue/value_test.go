package ippvalue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypeNames(t *testing.T) {
	assert.Equal(t, "int", Int(1).TypeName())
	assert.Equal(t, "float", Float(1).TypeName())
	assert.Equal(t, "string", Str("x").TypeName())
	assert.Equal(t, "bool", Bool(true).TypeName())
	assert.Equal(t, "nil", Nil().TypeName())
	assert.Equal(t, "", Uninit().TypeName())
}

func TestIsInitialized(t *testing.T) {
	assert.False(t, Uninit().IsInitialized())
	assert.True(t, Nil().IsInitialized())
	assert.True(t, Int(0).IsInitialized())
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "42", Int(42).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "nil", Nil().String())
	assert.Equal(t, "hi", Str("hi").String())
}

func TestHexFloatRoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 0.5, 3.14159, 1e10, -1e-10} {
		s := FormatHexFloat(f)
		got, err := ParseHexFloat(s)
		assert.NoError(t, err)
		assert.Equal(t, f, got)
	}
}
