package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseYesNo(t *testing.T) {
	assert.True(t, parseYesNo("Y", false))
	assert.True(t, parseYesNo(" yes ", false))
	assert.False(t, parseYesNo("n", true))
	assert.True(t, parseYesNo("", true))
	assert.False(t, parseYesNo("", false))
}

func TestValidateYesNo(t *testing.T) {
	assert.NoError(t, validateYesNo(""))
	assert.NoError(t, validateYesNo("No"))
	assert.Error(t, validateYesNo("maybe"))
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, validatePort("8092"))
	assert.NoError(t, validatePort(" 1 "))
	assert.Error(t, validatePort("0"))
	assert.Error(t, validatePort("65536"))
	assert.Error(t, validatePort("admin"))
}

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(nil))
}
