package imaging

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
)

// RefPrefix is the storage reference prefix for generated codes. The HTTP
// layer serves Dir under this path.
const RefPrefix = "qr_codes"

// DefaultSize is the edge length in pixels of generated codes.
const DefaultSize = 256

// QRGenerator writes one QR code PNG per item into Dir.
type QRGenerator struct {
	Dir  string
	Size int
}

// NewQRGenerator returns a generator writing into dir. A size <= 0 uses
// DefaultSize.
func NewQRGenerator(dir string, size int) *QRGenerator {
	if size <= 0 {
		size = DefaultSize
	}
	return &QRGenerator{Dir: dir, Size: size}
}

// Payload is the text encoded for an item.
func Payload(id int64, name string) string {
	return fmt.Sprintf("Item ID: %d, Name: %s", id, name)
}

// FileName is the file a code for the item is written to.
func FileName(id int64, name string) string {
	return fmt.Sprintf("%d_%s.png", id, slug(name))
}

// Generate encodes the item's payload, writes the PNG and returns its
// storage reference (qr_codes/<file>).
func (g *QRGenerator) Generate(ctx context.Context, id int64, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	q, err := qrcode.New(Payload(id, name), qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encoding qr code: %w", err)
	}

	// One pixel per module, then scale to the target size.
	img := fit(q.Image(-1), g.Size)

	file := FileName(id, name)
	if err := writePNG(filepath.Join(g.Dir, file), img); err != nil {
		return "", err
	}
	return path.Join(RefPrefix, file), nil
}

// Remove deletes the file behind ref. A missing file is not an error.
func (g *QRGenerator) Remove(_ context.Context, ref string) error {
	file, ok := strings.CutPrefix(ref, RefPrefix+"/")
	if !ok || file == "" || strings.ContainsAny(file, `/\`) {
		return fmt.Errorf("invalid image reference %q", ref)
	}
	if err := os.Remove(filepath.Join(g.Dir, file)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing image: %w", err)
	}
	return nil
}

// writePNG encodes img to a temp file in the target directory and renames
// it into place, so readers never see a partial file.
func writePNG(dst string, img image.Image) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating image directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".qr-*.png")
	if err != nil {
		return fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing image: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("storing image: %w", err)
	}
	return nil
}

// fit resizes the image so its larger dimension equals dim, preserving the
// aspect ratio. Nearest-neighbour keeps module edges sharp.
func fit(img image.Image, dim int) image.Image {
	bounds := img.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()

	if w == dim && h == dim {
		return img
	}

	newW, newH := dim, dim
	if w > h {
		newH = int(float64(h) * float64(dim) / float64(w))
	} else if h > w {
		newW = int(float64(w) * float64(dim) / float64(h))
	}

	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}

// slug keeps letters, digits and '-' and folds everything else into '_'.
func slug(name string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(name) {
		ok := r == '-' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if ok {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore {
			b.WriteByte('_')
			underscore = true
		}
	}
	s := strings.Trim(b.String(), "_")
	if s == "" {
		return "item"
	}
	return s
}
