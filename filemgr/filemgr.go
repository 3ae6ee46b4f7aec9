// Package filemgr stores uploaded product photos on local disk and renders
// a fixed-width jpeg thumbnail next to each original.
package filemgr

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"agrolink/utils"

	"github.com/disintegration/imaging"

	_ "image/gif"
	_ "image/png"
)

const (
	maxUploadSize = 10 << 20
	thumbWidth    = 200
)

var allowedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

func UploadDir() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return filepath.Join("static", "uploads")
}

func extensionAllowed(ext string) bool {
	for _, a := range allowedExtensions {
		if ext == a {
			return true
		}
	}
	return false
}

// SaveProductPhoto saves the "photo" form file under the product's folder
// and writes a thumbnail beside it. Returns the stored filename, or ""
// when the form carried no photo.
func SaveProductPhoto(form *multipart.Form, productID string) (string, error) {
	files := form.File["photo"]
	if len(files) == 0 {
		return "", nil
	}
	hdr := files[0]
	if hdr.Size > maxUploadSize {
		return "", fmt.Errorf("file too large: %d bytes", hdr.Size)
	}

	ext := strings.ToLower(filepath.Ext(hdr.Filename))
	if !extensionAllowed(ext) {
		return "", fmt.Errorf("unsupported file type %q", ext)
	}

	file, err := hdr.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	buf, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("decode image %q: %w", hdr.Filename, err)
	}

	dir := filepath.Join(UploadDir(), "products", productID)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}

	name := utils.GetUUID() + ext
	if err := os.WriteFile(filepath.Join(dir, name), buf, 0o644); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	if err := writeThumbnail(img, dir, name); err != nil {
		return name, err
	}
	return name, nil
}

func writeThumbnail(img image.Image, dir, baseName string) error {
	resized := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
	thumbDir := filepath.Join(dir, "thumb")
	if err := utils.EnsureDir(thumbDir); err != nil {
		return err
	}

	name := strings.TrimSuffix(baseName, filepath.Ext(baseName)) + ".jpg"
	out, err := os.Create(filepath.Join(thumbDir, name))
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer out.Close()

	return jpeg.Encode(out, resized, &jpeg.Options{Quality: 85})
}
