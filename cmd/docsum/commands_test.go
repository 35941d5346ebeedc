package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDArg(t *testing.T) {
	id, err := idArg([]string{"42", "ignored"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, args := range [][]string{nil, {"abc"}, {"0"}, {"-3"}} {
		_, err := idArg(args)
		assert.Error(t, err, "%v", args)
	}
}

func TestParseDay(t *testing.T) {
	day, err := parseDay("")
	require.NoError(t, err)
	assert.Nil(t, day)

	day, err = parseDay("2024-03-01")
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.Equal(t, time.March, day.Month())
	assert.Equal(t, 1, day.Day())

	_, err = parseDay("01/03/2024")
	assert.Error(t, err)
}

func TestCommandsListed(t *testing.T) {
	assert.Len(t, commandOrder, len(commands))
	for _, name := range commandOrder {
		_, ok := commands[name]
		assert.True(t, ok, name)
	}
}
