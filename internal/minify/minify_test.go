package minify

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"squeeze/internal/assets"
)

func TestLibraryMinifiesCSS(t *testing.T) {
	src := "body {\n    color: red;\n    /* comment */\n    margin: 0px;\n}\n"
	out, err := New().Minify(src, assets.TextCSS)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.NotContains(t, out, "comment")
	assert.NotContains(t, out, "\n")
}

func TestLibraryMinifiesJS(t *testing.T) {
	src := "// greeting\nfunction greet(name) {\n    return 'hi ' + name;\n}\n"
	out, err := New().Minify(src, assets.TextJS)
	require.NoError(t, err)
	assert.Less(t, len(out), len(src))
	assert.NotContains(t, out, "greeting")
}

func TestLibraryIsDeterministic(t *testing.T) {
	src := "a { color : blue ; }"
	lib := New()
	first, err := lib.Minify(src, assets.TextCSS)
	require.NoError(t, err)
	second, err := lib.Minify(src, assets.TextCSS)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLibraryRejectsBrokenJS(t *testing.T) {
	_, err := New().Minify("function ( {", assets.TextJS)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMinify))
}

func TestLibraryRejectsUnknownKind(t *testing.T) {
	_, err := New().Minify("x", assets.TextUnknown)
	assert.True(t, errors.Is(err, ErrMinify))
}

func TestFunc(t *testing.T) {
	f := Func(func(s string, _ assets.TextKind) (string, error) { return strings.TrimSpace(s), nil })
	out, err := f.Minify("  x  ", assets.TextJS)
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}
