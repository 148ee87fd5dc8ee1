package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/kozaktomas/ssim-matrix/internal/config"
	"github.com/kozaktomas/ssim-matrix/internal/grid"
	"github.com/kozaktomas/ssim-matrix/internal/matrix"
	"github.com/kozaktomas/ssim-matrix/internal/ssim"
)

func TestRun(t *testing.T) {
	cfg := testConfig(t, 3)
	writeBatch(t, cfg, 3)

	var loaded []int
	cells, done := 0, 0
	res, err := Run(cfg, Observer{
		ImageLoaded:  func(id int, _ grid.Grid) { loaded = append(loaded, id) },
		ComputeStart: func(n int) { cells = n },
		CellDone:     func(int, int) { done++ },
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(loaded) != 3 || loaded[0] != 1 || loaded[2] != 3 {
		t.Errorf("unexpected load order: %v", loaded)
	}
	if cells != 9 || done != 9 {
		t.Errorf("expected 9 cells announced and done, got %d and %d", cells, done)
	}
	if res.Matrix.Size() != 3 {
		t.Fatalf("expected 3x3 matrix, got %d rows", res.Matrix.Size())
	}
	if err := matrix.CheckProperties(res.Matrix, 1e-12); err != nil {
		t.Errorf("matrix properties: %v", err)
	}

	written, err := matrix.ReadJSON(cfg.Output.MatrixPath)
	if err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	for x := range written {
		for y := range written[x] {
			if written[x][y] != res.Matrix[x][y] {
				t.Errorf("[%d][%d]: file %v, result %v", x, y, written[x][y], res.Matrix[x][y])
			}
		}
	}
}

func TestRunDynamicRangeIsGlobal(t *testing.T) {
	cfg := testConfig(t, 2)
	writeBatch(t, cfg, 2)

	res, err := Run(cfg, Observer{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Image 1 spans 0..60, image 2 spans 20..140
	if res.Range.Min != 0 || res.Range.Max != 140.0/255 {
		t.Errorf("unexpected range (%f, %f)", res.Range.Min, res.Range.Max)
	}

	img1, _ := os.ReadFile(cfg.Images.Source().Path(1))
	img2, _ := os.ReadFile(cfg.Images.Source().Path(2))
	g1 := decode(t, img1)
	g2 := decode(t, img2)
	want, err := ssim.Compare(g1, g2, res.Range.Span(), ssim.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if res.Matrix[0][1] != want {
		t.Errorf("m[0][1] = %v; want %v with global range", res.Matrix[0][1], want)
	}
}

func TestRunIdempotent(t *testing.T) {
	cfg := testConfig(t, 3)
	writeBatch(t, cfg, 3)

	if _, err := Run(cfg, Observer{}); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(cfg.Output.MatrixPath)

	if _, err := Run(cfg, Observer{}); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(cfg.Output.MatrixPath)

	if !bytes.Equal(first, second) {
		t.Errorf("outputs differ between runs:\n%s\n%s", first, second)
	}
}

func TestRunSymmetricSameOutput(t *testing.T) {
	cfg := testConfig(t, 3)
	writeBatch(t, cfg, 3)

	if _, err := Run(cfg, Observer{}); err != nil {
		t.Fatal(err)
	}
	full, _ := os.ReadFile(cfg.Output.MatrixPath)

	cfg.SSIM.Symmetric = true
	cells := 0
	if _, err := Run(cfg, Observer{ComputeStart: func(n int) { cells = n }}); err != nil {
		t.Fatal(err)
	}
	half, _ := os.ReadFile(cfg.Output.MatrixPath)

	if cells != 6 {
		t.Errorf("expected 6 cells with symmetry, got %d", cells)
	}
	if !bytes.Equal(full, half) {
		t.Errorf("symmetric shortcut changed output:\n%s\n%s", full, half)
	}
}

func TestRunMissingImageWritesNothing(t *testing.T) {
	cfg := testConfig(t, 3)
	writeBatch(t, cfg, 3)
	if err := os.Remove(cfg.Images.Source().Path(2)); err != nil {
		t.Fatal(err)
	}

	_, err := Run(cfg, Observer{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected fs.ErrNotExist, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Output.MatrixPath); !errors.Is(statErr, fs.ErrNotExist) {
		t.Errorf("output file should not exist, stat returned %v", statErr)
	}
}

func TestRunShapeMismatch(t *testing.T) {
	cfg := testConfig(t, 2)
	writePNG(t, cfg.Images.Source().Path(1), uniform(8, 8, 10))
	writePNG(t, cfg.Images.Source().Path(2), uniform(10, 8, 200))

	_, err := Run(cfg, Observer{})
	if !errors.Is(err, ssim.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Output.MatrixPath); !errors.Is(statErr, fs.ErrNotExist) {
		t.Errorf("output file should not exist, stat returned %v", statErr)
	}
}

func TestRunConstantBatchWritesNothing(t *testing.T) {
	cfg := testConfig(t, 2)
	writePNG(t, cfg.Images.Source().Path(1), uniform(8, 8, 128))
	writePNG(t, cfg.Images.Source().Path(2), uniform(8, 8, 128))

	_, err := Run(cfg, Observer{})
	if !errors.Is(err, ssim.ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, statErr := os.Stat(cfg.Output.MatrixPath); !errors.Is(statErr, fs.ErrNotExist) {
		t.Errorf("output file should not exist, stat returned %v", statErr)
	}
}

func TestRunUnwritableOutput(t *testing.T) {
	cfg := testConfig(t, 2)
	writeBatch(t, cfg, 2)
	cfg.Output.MatrixPath = filepath.Join(t.TempDir(), "missing", "out.json")

	_, err := Run(cfg, Observer{})
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist, got %v", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 2)
	cfg.Images.First = 5

	if _, err := Run(cfg, Observer{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

// Helper functions

func testConfig(t *testing.T, n int) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Images.BasePath = filepath.Join(dir, "blur_")
	cfg.Images.First = 1
	cfg.Images.Last = n
	cfg.Output.MatrixPath = filepath.Join(dir, "similarity.json")
	return cfg
}

// writeBatch writes n distinct 16x16 images; image i spans 20*(i-1)..20*(i-1)+60*i.
func writeBatch(t *testing.T, cfg *config.Config, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		img := image.NewGray(image.Rect(0, 0, 16, 16))
		lo := 20 * (i - 1)
		hi := lo + 60*i
		for y := range 16 {
			for x := range 16 {
				v := lo + (hi-lo)*((x*i+y)%16)/15
				img.SetGray(x, y, color.Gray{Y: uint8(v)})
			}
		}
		writePNG(t, cfg.Images.Source().Path(i), img)
	}
}

func uniform(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding PNG: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func decode(t *testing.T, data []byte) grid.Grid {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	g := grid.New(img.Bounds().Dx(), img.Bounds().Dy())
	gray := img.(*image.Gray)
	for y := range g.Dy() {
		for x := range g.Dx() {
			g.Set(x, y, float64(gray.GrayAt(x, y).Y)/0xFF)
		}
	}
	return g
}
