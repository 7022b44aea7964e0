package maincmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgsSourceAndInput(t *testing.T) {
	opts, err := parseArgs([]string{"--source=prog.xml", "--input=data.txt"})
	require.NoError(t, err)
	assert.Equal(t, "prog.xml", opts.source)
	assert.Equal(t, "data.txt", opts.input)
}

func TestParseArgsHelpAlone(t *testing.T) {
	opts, err := parseArgs([]string{"--help"})
	require.NoError(t, err)
	assert.True(t, opts.help)
}

func TestParseArgsHelpCombinedIsError(t *testing.T) {
	_, err := parseArgs([]string{"--help", "--source=prog.xml"})
	require.Error(t, err)
}

func TestParseArgsBothStdinIsError(t *testing.T) {
	_, err := parseArgs([]string{})
	require.Error(t, err)
}

func TestParseArgsStatsSelectorsPreserveOrder(t *testing.T) {
	opts, err := parseArgs([]string{"--source=prog.xml", "--stats=out.txt", "--vars", "--insts", "--hot"})
	require.NoError(t, err)
	assert.Equal(t, "out.txt", opts.statsPath)
	assert.Equal(t, []string{"vars", "insts", "hot"}, opts.selectors)
}

func TestParseArgsSelectorWithoutStatsIsError(t *testing.T) {
	_, err := parseArgs([]string{"--source=prog.xml", "--insts"})
	require.Error(t, err)
}

func TestParseArgsUnknownFlagIsError(t *testing.T) {
	_, err := parseArgs([]string{"--bogus"})
	require.Error(t, err)
}

func TestParseArgsRepeatedSelectors(t *testing.T) {
	opts, err := parseArgs([]string{"--input=in.txt", "--stats=out.txt", "--insts", "--insts", "--hot"})
	require.NoError(t, err)
	assert.Equal(t, []string{"insts", "insts", "hot"}, opts.selectors)
}
