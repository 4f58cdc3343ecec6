package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"io"
	"math"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/storage"
	"golang.org/x/image/draw"
)

var (
	ErrUnsupportedImage = errors.New("invalid file type: only jpg, jpeg, png allowed")
	ErrInvalidImage     = errors.New("photo is not a readable jpg or png image")
)

const (
	PunchTypeIn  = "PUNCH_IN"
	PunchTypeOut = "PUNCH_OUT"

	photoMaxBytes = 150 * 1024
	photoMinBytes = 50 * 1024
)

type FileService interface {
	// UploadPunchPhoto compresses a punch photo to JPEG and stores it under
	// punches/{date}/{employeeID}-{punchType}-{unix}.jpg
	UploadPunchPhoto(ctx context.Context, employeeID string, date time.Time, file io.Reader, filename string, punchType string) (string, error)

	DeleteFile(ctx context.Context, path string) error
}

type fileServiceImpl struct {
	storage storage.FileStorage
	now     func() time.Time
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{
		storage: storage,
		now:     time.Now,
	}
}

func (s *fileServiceImpl) UploadPunchPhoto(ctx context.Context, employeeID string, date time.Time, file io.Reader, filename string, punchType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", ErrUnsupportedImage
	}

	buffer, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	compressed, err := fitJPEG(buffer, photoMinBytes, photoMaxBytes)
	if err != nil {
		return "", fmt.Errorf("failed to compress image: %w", err)
	}

	key := path.Join(
		"punches",
		date.Format("2006-01-02"),
		fmt.Sprintf("%s-%s-%d.jpg", employeeID, punchType, s.now().Unix()),
	)

	uploadedPath, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload punch photo: %w", err)
	}

	return uploadedPath, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, path string) error {
	return s.storage.Delete(ctx, path)
}

// fitJPEG re-encodes an image as JPEG aiming for a size within [minSize, maxSize].
// Quality is lowered first; if that is not enough the image is downscaled.
// JPEG inputs already inside the range are returned unchanged.
func fitJPEG(buffer []byte, minSize, maxSize int) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(buffer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if format == "jpeg" && len(buffer) >= minSize && len(buffer) <= maxSize {
		return buffer, nil
	}

	var out []byte
	for quality := 85; quality >= 50; quality -= 5 {
		out, err = encodeJPEG(img, quality)
		if err != nil {
			return nil, err
		}
		// Output below minSize is accepted as is
		if len(out) <= maxSize {
			return out, nil
		}
	}

	// Still too large: scale towards the middle of the range.
	ratio := math.Sqrt(float64((minSize+maxSize)/2) / float64(len(out)))
	bounds := img.Bounds()
	width := max(int(float64(bounds.Dx())*ratio), 600)
	height := max(int(float64(bounds.Dy())*ratio), 400)

	return encodeJPEG(scale(img, width, height), 70)
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

func scale(src image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
