package livepress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/livepress/views"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 80
	maxUploadSize = 10 << 20 // 10MB
	uploadsSubdir = "uploads"
)

// processImage decodes a cover image, scales it down to maxImageWidth and
// re-encodes it as JPEG.
func processImage(src io.Reader) (w, h int, data []byte, err error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h = bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return 0, 0, nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return w, h, buf.Bytes(), nil
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.staticDir, uploadsSubdir)
}

// uniqueFilename returns a free .jpg name derived from the upload's name.
func (a *App) uniqueFilename(original string) string {
	base := Slugify(strings.TrimSuffix(original, filepath.Ext(original)))
	if base == "" {
		base = "image"
	}
	candidate := base + ".jpg"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(a.uploadsDir(), candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	_, _, data, err := processImage(io.LimitReader(src, maxUploadSize))
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	if err := os.MkdirAll(a.uploadsDir(), 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	name := a.uniqueFilename(file.Filename)
	if err := os.WriteFile(filepath.Join(a.uploadsDir(), name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	c.Logger().Infof("uploaded image %s", name)
	return c.Redirect(http.StatusSeeOther, "/admin/images/")
}

func (a *App) handleImageDelete(c echo.Context) error {
	name := filepath.Base(c.Param("filename"))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return c.String(http.StatusBadRequest, "Filename required")
	}
	if err := os.Remove(filepath.Join(a.uploadsDir(), name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := a.listImages()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminImages(a.Config.View(), images, CsrfToken(c)))
}

// listImages reads the uploads directory, newest first.
func (a *App) listImages() ([]views.Image, error) {
	entries, err := os.ReadDir(a.uploadsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var images []views.Image
	var modTimes []time.Time
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		cfg, err := decodeConfig(filepath.Join(a.uploadsDir(), e.Name()))
		if err != nil {
			continue
		}
		images = append(images, views.Image{
			Filename:   e.Name(),
			URL:        path.Join("/public", uploadsSubdir, e.Name()),
			Width:      cfg.Width,
			Height:     cfg.Height,
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC().Format(time.RFC3339),
		})
		modTimes = append(modTimes, info.ModTime())
	}
	sort.Sort(byNewest{images, modTimes})
	return images, nil
}

func decodeConfig(p string) (image.Config, error) {
	f, err := os.Open(p)
	if err != nil {
		return image.Config{}, err
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	return cfg, err
}

type byNewest struct {
	images []views.Image
	times  []time.Time
}

func (b byNewest) Len() int           { return len(b.images) }
func (b byNewest) Less(i, j int) bool { return b.times[i].After(b.times[j]) }
func (b byNewest) Swap(i, j int) {
	b.images[i], b.images[j] = b.images[j], b.images[i]
	b.times[i], b.times[j] = b.times[j], b.times[i]
}
