// Package minify adapts tdewolff/minify to the text pipeline. The
// minification itself is the library's business; this package only picks
// the grammar and maps failures to ErrMinify.
package minify

import (
	"errors"
	"fmt"

	tdminify "github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"squeeze/internal/assets"
)

var ErrMinify = errors.New("minifier rejected input")

const (
	mediaCSS = "text/css"
	mediaJS  = "application/javascript"
)

// Minifier turns source text into its minified form.
type Minifier interface {
	Minify(source string, kind assets.TextKind) (string, error)
}

// Library is the Minifier backed by tdewolff/minify.
type Library struct {
	m *tdminify.M
}

func New() *Library {
	m := tdminify.New()
	m.AddFunc(mediaCSS, css.Minify)
	m.AddFunc(mediaJS, js.Minify)
	return &Library{m: m}
}

func (l *Library) Minify(source string, kind assets.TextKind) (string, error) {
	var media string
	switch kind {
	case assets.TextCSS:
		media = mediaCSS
	case assets.TextJS:
		media = mediaJS
	default:
		return "", fmt.Errorf("%w: unsupported kind %s", ErrMinify, kind)
	}

	out, err := l.m.String(media, source)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrMinify, err)
	}
	return out, nil
}

// Func adapts a plain function to Minifier.
type Func func(source string, kind assets.TextKind) (string, error)

func (f Func) Minify(source string, kind assets.TextKind) (string, error) {
	return f(source, kind)
}
