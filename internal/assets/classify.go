package assets

import (
	"path/filepath"
	"strings"
)

// Category tells which pipeline a path belongs to.
type Category int

const (
	Ignored Category = iota
	StyleOrScript
	Image
)

func (c Category) String() string {
	switch c {
	case StyleOrScript:
		return "style/script"
	case Image:
		return "image"
	default:
		return "ignored"
	}
}

// minifiedMarker flags files that ship already minified.
const minifiedMarker = ".min."

// Classify decides the category of path. Paths containing backupMarker are
// always ignored, as are style/script files containing ".min.". Extension
// matching is case-insensitive.
func Classify(path, backupMarker string) Category {
	lower := strings.ToLower(path)
	isBackup := backupMarker != "" && strings.Contains(path, backupMarker)

	switch {
	case strings.HasSuffix(lower, ".css") || strings.HasSuffix(lower, ".js"):
		if isBackup || strings.Contains(path, minifiedMarker) {
			return Ignored
		}
		return StyleOrScript
	case strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		if isBackup {
			return Ignored
		}
		return Image
	default:
		return Ignored
	}
}

// TextKind selects the minifier grammar.
type TextKind int

const (
	TextUnknown TextKind = iota
	TextCSS
	TextJS
)

func (k TextKind) String() string {
	switch k {
	case TextCSS:
		return "css"
	case TextJS:
		return "js"
	default:
		return "unknown"
	}
}

// KindOf returns the grammar for a style/script path.
func KindOf(path string) TextKind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return TextJS
	case ".css":
		return TextCSS
	default:
		return TextUnknown
	}
}

// Groups is the result of splitting a listing by category.
type Groups struct {
	Text    []string
	Images  []string
	Ignored []string
}

// Split classifies every path, keeping listing order within each group.
func Split(paths []string, backupMarker string) Groups {
	var g Groups
	for _, p := range paths {
		switch Classify(p, backupMarker) {
		case StyleOrScript:
			g.Text = append(g.Text, p)
		case Image:
			g.Images = append(g.Images, p)
		default:
			g.Ignored = append(g.Ignored, p)
		}
	}
	return g
}
