package livepress

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestProcessImageResizesWideImages(t *testing.T) {
	w, h, data, err := processImage(bytes.NewReader(pngBytes(t, 2400, 600)))
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if w != maxImageWidth || h != 300 {
		t.Errorf("size = %dx%d, want %dx300", w, h, maxImageWidth)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format != "jpeg" || cfg.Width != maxImageWidth {
		t.Errorf("output = %s %+v, %v", format, cfg, err)
	}
}

func TestProcessImageKeepsSmallImages(t *testing.T) {
	w, h, _, err := processImage(bytes.NewReader(pngBytes(t, 200, 100)))
	if err != nil {
		t.Fatalf("processImage failed: %v", err)
	}
	if w != 200 || h != 100 {
		t.Errorf("size = %dx%d, want 200x100", w, h)
	}
}

func TestProcessImageRejectsGarbage(t *testing.T) {
	if _, _, _, err := processImage(strings.NewReader("not an image")); err == nil {
		t.Fatal("expected an error")
	}
}

func TestImageUploadListDelete(t *testing.T) {
	a := setupTestApp(t)
	c := newClient(t, a)
	c.login("secret")

	upload := func() *httptest.ResponseRecorder {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		mw.WriteField("_csrf", c.csrf())
		fw, err := mw.CreateFormFile("image", "My Cover.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		fw.Write(pngBytes(t, 64, 32))
		mw.Close()
		req := httptest.NewRequest(http.MethodPost, "/admin/images/", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return c.do(req)
	}

	for i := 0; i < 2; i++ {
		if rec := upload(); rec.Code != http.StatusSeeOther {
			t.Fatalf("upload %d = %d: %s", i, rec.Code, rec.Body.String())
		}
	}
	for _, name := range []string{"my-cover.jpg", "my-cover-2.jpg"} {
		if _, err := os.Stat(filepath.Join(a.uploadsDir(), name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}

	images, err := a.listImages()
	if err != nil {
		t.Fatalf("listImages failed: %v", err)
	}
	if len(images) != 2 || images[0].Width != 64 || images[0].Height != 32 {
		t.Errorf("images = %+v", images)
	}

	rec := c.get("/admin/images/")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/public/uploads/my-cover.jpg") {
		t.Errorf("image list = %d", rec.Code)
	}

	if rec := c.delete("/admin/images/my-cover.jpg/"); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	if _, err := os.Stat(filepath.Join(a.uploadsDir(), "my-cover.jpg")); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}
}
