package processor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"squeeze/internal/assets"
	"squeeze/internal/codec"
	"squeeze/internal/minify"
	"squeeze/pkg/imgutil"
)

// fakeCodec stands in for the codec binaries. It writes a small image of
// the source's kind into the output location, or fails on demand.
type fakeCodec struct {
	mu       sync.Mutex
	calls    []codec.Command
	exitCode map[string]int  // base name -> exit code
	noOutput map[string]bool // base name -> exit 0 without writing
	// check runs before the fake writes output, with the source path.
	check func(source string)
}

func (f *fakeCodec) Run(_ context.Context, cmd codec.Command) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	f.mu.Unlock()

	source, out := f.paths(cmd)
	if f.check != nil {
		f.check(source)
	}
	name := filepath.Base(source)
	if code := f.exitCode[name]; code != 0 {
		return code, nil
	}
	if f.noOutput[name] {
		return 0, nil
	}
	return 0, os.WriteFile(out, smallImage(imgutil.KindFromPath(source)), 0o644)
}

// paths recovers the source and output file from either tool's grammar.
func (f *fakeCodec) paths(cmd codec.Command) (string, string) {
	args := cmd.Args
	if args[0] == "-q" {
		source := args[len(args)-1]
		return source, filepath.Join(args[4], filepath.Base(source))
	}
	return args[0], args[len(args)-1]
}

func (f *fakeCodec) Calls() []codec.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]codec.Command(nil), f.calls...)
}

// trimMinifier collapses whitespace; it rejects input containing "SYNTAX".
var trimMinifier = minify.Func(func(src string, _ assets.TextKind) (string, error) {
	if strings.Contains(src, "SYNTAX") {
		return "", os.ErrInvalid
	}
	return strings.Join(strings.Fields(src), ""), nil
})

func smallImage(kind imgutil.Kind) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{G: 0xff, A: 0xff})
	var buf bytes.Buffer
	if kind == imgutil.KindJPEG {
		_ = jpeg.Encode(&buf, img, &jpeg.Options{Quality: 10})
	} else {
		_ = png.Encode(&buf, img)
	}
	return buf.Bytes()
}

// bigImage returns a valid image padded with trailing bytes so the fake
// codec's output is always smaller.
func bigImage(kind imgutil.Kind) []byte {
	return append(smallImage(kind), bytes.Repeat([]byte{0}, 4096)...)
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func read(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
