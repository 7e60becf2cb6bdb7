package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgv_SplitsOnUnquotedWhitespace(t *testing.T) {
	argv, err := ParseArgv("go test ./...")
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "test", "./..."}, argv)
}

func TestParseArgv_DoubleQuotesGroupWhitespace(t *testing.T) {
	argv, err := ParseArgv(`eslint "src/app files"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"eslint", "src/app files"}, argv)
}

func TestParseArgv_SingleQuotesAreFullyLiteral(t *testing.T) {
	argv, err := ParseArgv(`echo 'a\b "c"'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", `a\b "c"`}, argv)
}

func TestParseArgv_BackslashEscapesQuoteAndBackslashOnly(t *testing.T) {
	argv, err := ParseArgv(`echo \"quoted\" \\literal`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", `"quoted"`, `\literal`}, argv)
}

func TestParseArgv_OtherBackslashesAreLiteral(t *testing.T) {
	argv, err := ParseArgv(`build.exe C:\path\to\file`)
	require.NoError(t, err)
	assert.Equal(t, []string{"build.exe", `C:\path\to\file`}, argv)
}

func TestParseArgv_BackslashBeforeQuoteInsideDoubleQuotes(t *testing.T) {
	argv, err := ParseArgv(`echo "say \"hi\""`)
	require.NoError(t, err)
	assert.Equal(t, []string{"echo", `say "hi"`}, argv)
}

func TestParseArgv_UnterminatedQuoteErrors(t *testing.T) {
	_, err := ParseArgv(`echo "unterminated`)
	require.Error(t, err)
}

func TestParseArgv_EmptyCommandErrors(t *testing.T) {
	_, err := ParseArgv("   ")
	require.Error(t, err)
}
