package helper_test

import (
	"errors"
	"testing"

	"github.com/reganan/icestore/shared/helper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTypedValueOf(t *testing.T) {
	v, err := helper.GetTypedValueOf[int](func() (any, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = helper.GetTypedValueOf[int](func() (any, error) { return "3", nil })
	assert.ErrorIs(t, err, helper.ErrUnexpectedType)

	boom := errors.New("boom")
	_, err = helper.GetTypedValueOf[int](func() (any, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestGetTypedValueOf2(t *testing.T) {
	v, ok := helper.GetTypedValueOf2[string](func() (any, bool) { return "x", true })
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = helper.GetTypedValueOf2[string](func() (any, bool) { return 1, true })
	assert.False(t, ok)

	_, ok = helper.GetTypedValueOf2[string](func() (any, bool) { return nil, false })
	assert.False(t, ok)
}

func TestMustGetTypedValue(t *testing.T) {
	assert.Equal(t, 1.5, helper.MustGetTypedValue[float64](func() (any, error) { return 1.5, nil }))
	assert.Panics(t, func() {
		helper.MustGetTypedValue[float64](func() (any, error) { return "no", nil })
	})
}
