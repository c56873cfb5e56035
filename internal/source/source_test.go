package source_test

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/infantsight/internal/frame"
	"github.com/example/infantsight/internal/source"
)

func TestUniform(t *testing.T) {
	buf, _ := frame.New(4, 4)
	require.NoError(t, source.Uniform{R: 9, G: 8, B: 7}.Frame(0, buf))
	r, g, b := buf.RGB(2, 2)
	assert.Equal(t, [3]uint8{9, 8, 7}, [3]uint8{r, g, b})
}

func TestEdgeChartSplitsAtColumn(t *testing.T) {
	buf, _ := frame.New(64, 8)
	require.NoError(t, source.EdgeChart{}.Frame(0, buf))
	r, _, _ := buf.RGB(31, 4)
	assert.Equal(t, uint8(0), r)
	r, _, _ = buf.RGB(32, 4)
	assert.Equal(t, uint8(255), r)
}

func TestMirroredFlipsHorizontally(t *testing.T) {
	buf, _ := frame.New(64, 8)
	m := source.Mirrored{Src: source.EdgeChart{}}
	require.NoError(t, m.Frame(0, buf))
	r, _, _ := buf.RGB(0, 0)
	assert.Equal(t, uint8(255), r, "white half lands on the left after mirroring")
	r, _, _ = buf.RGB(63, 0)
	assert.Equal(t, uint8(0), r)
}

func TestStillScalesToBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	path := filepath.Join(t.TempDir(), "still.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	s, err := source.LoadStill(path)
	require.NoError(t, err)
	buf, _ := frame.New(32, 16)
	require.NoError(t, s.Frame(0, buf))
	r, g, b := buf.RGB(16, 8)
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})
}

func TestNewByName(t *testing.T) {
	for _, name := range []string{"", "drift", "gray", "edge"} {
		s, err := source.New(name)
		require.NoError(t, err, name)
		buf, _ := frame.New(8, 8)
		assert.NoError(t, s.Frame(0.5, buf), name)
	}
	_, err := source.New("/nonexistent/path.png")
	assert.Error(t, err)
}
