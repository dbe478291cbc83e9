package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/disintegration/imaging"
)

var (
	ErrMediaUnavailable = errors.New("media storage is not configured")
	ErrInvalidImage     = errors.New("file is not a supported image")
	ErrUploadFailed     = errors.New("upload failed")
)

// Product images are resized to fit this box before upload.
const maxImageSide = 1200

// MediaStorage uploads files and returns their public URL.
type MediaStorage interface {
	UploadImage(ctx context.Context, folder, publicID string, data []byte) (string, error)
	UploadFile(ctx context.Context, folder, publicID string, r io.Reader) (string, error)
}

type cloudinaryStorage struct {
	cld        *cloudinary.Cloudinary
	rootFolder string
}

// NewCloudinaryStorage builds a MediaStorage from a CLOUDINARY_URL. An empty URL
// yields a storage that refuses every upload with ErrMediaUnavailable.
func NewCloudinaryStorage(cloudURL, rootFolder string) (MediaStorage, error) {
	if cloudURL == "" {
		return disabledStorage{}, nil
	}
	cld, err := cloudinary.NewFromURL(cloudURL)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	return &cloudinaryStorage{cld: cld, rootFolder: rootFolder}, nil
}

func (s *cloudinaryStorage) folder(sub string) string {
	if s.rootFolder == "" {
		return sub
	}
	return s.rootFolder + "/" + sub
}

// UploadImage normalizes the image to a bounded JPEG and uploads it.
func (s *cloudinaryStorage) UploadImage(ctx context.Context, folder, publicID string, data []byte) (string, error) {
	normalized, err := NormalizeImage(data)
	if err != nil {
		return "", err
	}
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(normalized), uploader.UploadParams{
		Folder:       s.folder(folder),
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return result.SecureURL, nil
}

// UploadFile stores any file (PDF invoices etc.) as a raw resource.
func (s *cloudinaryStorage) UploadFile(ctx context.Context, folder, publicID string, r io.Reader) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       s.folder(folder),
		PublicID:     publicID,
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return result.SecureURL, nil
}

type disabledStorage struct{}

func (disabledStorage) UploadImage(context.Context, string, string, []byte) (string, error) {
	return "", ErrMediaUnavailable
}

func (disabledStorage) UploadFile(context.Context, string, string, io.Reader) (string, error) {
	return "", ErrMediaUnavailable
}

// NormalizeImage decodes any supported image, fits it into maxImageSide and re-encodes as JPEG.
func NormalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	b := img.Bounds()
	if b.Dx() > maxImageSide || b.Dy() > maxImageSide {
		img = imaging.Fit(img, maxImageSide, maxImageSide, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
