package profileService

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhil/orgchart/internal/apperrors"
)

// avatarDir is where avatars live, relative to the media directory.
const avatarDir = "images/users"

var avatarExtensions = map[string]string{
	"png":  ".png",
	"jpeg": ".jpg",
	"gif":  ".gif",
}

// decodeAvatar accepts a base64 image, optionally wrapped in a data URL,
// and returns its bytes and file extension. Only the format is checked.
func decodeAvatar(raw string) ([]byte, string, error) {
	invalid := apperrors.Field("image", "Upload a valid image. Supported formats are PNG, JPEG and GIF.")

	payload := raw
	if strings.HasPrefix(payload, "data:") {
		_, data, found := strings.Cut(payload, ";base64,")
		if !found {
			return nil, "", invalid
		}
		payload = data
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(data) == 0 {
		return nil, "", invalid
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", invalid
	}
	ext, ok := avatarExtensions[format]
	if !ok {
		return nil, "", invalid
	}
	return data, ext, nil
}

// saveAvatar writes data under mediaDir and returns the media-relative path.
func saveAvatar(mediaDir string, data []byte, ext string) (string, error) {
	dir := filepath.Join(mediaDir, avatarDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create avatar dir: %w", err)
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write avatar: %w", err)
	}
	return avatarDir + "/" + name, nil
}
