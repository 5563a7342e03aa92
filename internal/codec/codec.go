// Package codec describes the external image recompression tools: which
// binary to run, the argument grammar for each tool and image type, and the
// Runner that launches the process.
package codec

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"squeeze/pkg/imgutil"
)

var ErrUnknownTool = errors.New("unknown codec tool")

// Tool selects the codec implementation.
type Tool string

const (
	Caesium     Tool = "C"
	ImageMagick Tool = "M"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 85

// ParseTool accepts the short selector or the tool name, case-insensitive.
func ParseTool(s string) (Tool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "caesium", "caesiumclt":
		return Caesium, nil
	case "m", "i", "magick", "imagemagick", "convert":
		return ImageMagick, nil
	default:
		return "", fmt.Errorf("%w: %q (want C or M)", ErrUnknownTool, s)
	}
}

func (t Tool) String() string {
	switch t {
	case Caesium:
		return "caesium"
	case ImageMagick:
		return "imagemagick"
	default:
		return "unknown"
	}
}

// Binaries maps tools to executables. Empty entries fall back to the tool's
// default binary name inside WorkDir.
type Binaries struct {
	WorkDir string
	Caesium string
	Magick  string
}

// Path returns the executable for tool.
func (b Binaries) Path(tool Tool) string {
	switch tool {
	case Caesium:
		if b.Caesium != "" {
			return b.Caesium
		}
		return filepath.Join(b.WorkDir, exeName("caesiumclt"))
	default:
		if b.Magick != "" {
			return b.Magick
		}
		return filepath.Join(b.WorkDir, exeName("convert"))
	}
}

func exeName(name string) string {
	if runtime.GOOS == "windows" {
		return name + ".exe"
	}
	return name
}

// Args builds the argument list for recompressing source into outDir. The
// tool writes its result to OutputPath(outDir, source).
func Args(tool Tool, kind imgutil.Kind, quality int, source, outDir string) ([]string, error) {
	q := strconv.Itoa(quality)
	out := OutputPath(outDir, source)

	switch tool {
	case Caesium:
		switch kind {
		case imgutil.KindPNG:
			return []string{"-q", "0", "-e", "-o", outDir, source}, nil
		case imgutil.KindJPEG:
			return []string{"-q", q, "-e", "-o", outDir, source}, nil
		}
	case ImageMagick:
		switch kind {
		case imgutil.KindPNG:
			return []string{source, "-strip", out}, nil
		case imgutil.KindJPEG:
			return []string{
				source,
				"-sampling-factor", "4:2:0",
				"-strip",
				"-quality", q,
				"-interlace", "JPEG",
				"-colorspace", "sRGB",
				out,
			}, nil
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, string(tool))
	}
	return nil, fmt.Errorf("%s cannot handle %s images", tool, kind)
}

// OutputPath is where a codec run leaves its result for source.
func OutputPath(outDir, source string) string {
	return filepath.Join(outDir, filepath.Base(source))
}
