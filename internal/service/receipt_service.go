package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp"

	"github.com/kassa-app/kassa-backend/internal/domain"
	"github.com/kassa-app/kassa-backend/internal/repository/storage"
)

const (
	MaxReceiptSize   = 5 * 1024 * 1024 // 5MB
	MinReceiptWidth  = 50
	MinReceiptHeight = 50
	ThumbnailWidth   = 200
	DisplayWidth     = 800
	JPEGQuality      = 85

	// ReceiptURLExpiry bounds how long a presigned receipt URL stays valid.
	ReceiptURLExpiry = 15 * time.Minute
)

var (
	ErrReceiptTooLarge      = errors.New("file too large. Maximum size is 5MB")
	ErrInvalidReceiptFormat = errors.New("invalid format. Supported: JPEG, PNG, WebP")
	ErrReceiptTooSmall      = errors.New("image too small. Minimum 50x50 pixels")
	ErrInvalidReceiptData   = errors.New("invalid image data")

	ErrReceiptStorageNotConfigured = errors.New("receipt storage not configured")
)

// AllowedReceiptExtensions maps extensions to content types
var AllowedReceiptExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// receiptVariants are the stored renditions of every receipt image.
var receiptVariants = []string{"thumb", "display", "original"}

// ReceiptMetadata carries presigned URLs for each stored rendition.
// The URLs expire; callers fetch fresh ones through GetReceipt.
type ReceiptMetadata struct {
	TransactionID int32     `json:"transactionId"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	DisplayURL    string    `json:"displayUrl"`
	OriginalURL   string    `json:"originalUrl"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// ReceiptService attaches receipt images to transactions and serves
// presigned URLs for them. The bucket stays private; nothing here
// hands out a permanent link.
type ReceiptService struct {
	transactionRepo domain.TransactionRepository
	storage         storage.ReceiptRepository
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(transactionRepo domain.TransactionRepository, storage storage.ReceiptRepository) *ReceiptService {
	return &ReceiptService{transactionRepo: transactionRepo, storage: storage}
}

// IsEnabled indicates whether uploads/deletes are supported (storage configured).
func (s *ReceiptService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// ValidateReceipt validates receipt format and size
func (s *ReceiptService) ValidateReceipt(data []byte, filename string) error {
	_, err := s.validateAndDecode(data, filename)
	return err
}

// validateAndDecode validates the receipt image and returns the decoded image
func (s *ReceiptService) validateAndDecode(data []byte, filename string) (image.Image, error) {
	// Check file size
	if len(data) > MaxReceiptSize {
		return nil, ErrReceiptTooLarge
	}

	// Check file extension
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := AllowedReceiptExtensions[ext]; !ok {
		return nil, ErrInvalidReceiptFormat
	}

	// Decode to verify it's a real image and check dimensions
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ErrInvalidReceiptData
	}

	bounds := img.Bounds()
	if bounds.Dx() < MinReceiptWidth || bounds.Dy() < MinReceiptHeight {
		return nil, ErrReceiptTooSmall
	}

	return img, nil
}

// AttachReceipt processes a receipt image, uploads all renditions and links
// them to the transaction. Attaching over an existing receipt replaces it;
// the new renditions are stored before the old ones are removed.
func (s *ReceiptService) AttachReceipt(ctx context.Context, workspaceID int32, transactionID int32, data []byte, filename string) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return nil, err
	}

	img, err := s.validateAndDecode(data, filename)
	if err != nil {
		return nil, err
	}

	// Captured before the repo write so the replaced objects can be removed
	var oldPath string
	if tx.ReceiptPath != nil {
		oldPath = *tx.ReceiptPath
	}

	basePath := fmt.Sprintf("%d/receipts/%d/%s", workspaceID, transactionID, uuid.New().String())

	// Renditions to generate
	variants := []struct {
		name     string
		maxWidth int
	}{
		{"thumb", ThumbnailWidth},
		{"display", DisplayWidth},
		{"original", 0}, // 0 means keep original size
	}

	uploaded := make([]string, 0, len(variants))

	for _, variant := range variants {
		var processed image.Image
		if variant.maxWidth > 0 && img.Bounds().Dx() > variant.maxWidth {
			// Resize maintaining aspect ratio
			processed = imaging.Resize(img, variant.maxWidth, 0, imaging.Lanczos)
		} else {
			processed = img
		}

		// Encode to JPEG
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, processed, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			s.deleteVariants(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode receipt: %w", err)
		}

		objectPath := variantPath(basePath, variant.name)

		if _, err := s.storage.Upload(ctx, objectPath, bytes.NewReader(buf.Bytes()), "image/jpeg", int64(buf.Len())); err != nil {
			// Remove any renditions that already made it up
			s.deleteVariants(ctx, uploaded)
			return nil, fmt.Errorf("failed to upload %s rendition: %w", variant.name, err)
		}

		uploaded = append(uploaded, objectPath)
	}

	if err := s.transactionRepo.SetReceiptPath(workspaceID, transactionID, &basePath); err != nil {
		s.deleteVariants(ctx, uploaded)
		return nil, err
	}

	// The transaction no longer points at the old objects, so they can go
	if oldPath != "" {
		s.deleteVariants(ctx, allVariantPaths(oldPath))
	}

	return s.presign(ctx, transactionID, basePath)
}

// GetReceipt returns fresh presigned URLs for the transaction's receipt.
func (s *ReceiptService) GetReceipt(ctx context.Context, workspaceID int32, transactionID int32) (*ReceiptMetadata, error) {
	if !s.IsEnabled() {
		return nil, ErrReceiptStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return nil, err
	}
	if tx.ReceiptPath == nil {
		return nil, domain.ErrReceiptNotFound
	}

	return s.presign(ctx, transactionID, *tx.ReceiptPath)
}

// DeleteReceipt removes the stored renditions and clears the transaction's
// receipt link. Object deletions are best effort; the link is cleared even
// when a delete fails, leaving at worst an unreferenced object.
func (s *ReceiptService) DeleteReceipt(ctx context.Context, workspaceID int32, transactionID int32) error {
	if !s.IsEnabled() {
		return ErrReceiptStorageNotConfigured
	}

	tx, err := s.transactionRepo.GetByID(workspaceID, transactionID)
	if err != nil {
		return err
	}
	if tx.ReceiptPath == nil {
		return domain.ErrReceiptNotFound
	}

	s.deleteVariants(ctx, allVariantPaths(*tx.ReceiptPath))

	return s.transactionRepo.SetReceiptPath(workspaceID, transactionID, nil)
}

// presign generates URLs for every rendition under basePath.
func (s *ReceiptService) presign(ctx context.Context, transactionID int32, basePath string) (*ReceiptMetadata, error) {
	urls := make(map[string]string, len(receiptVariants))
	for _, variant := range receiptVariants {
		url, err := s.storage.PresignURL(ctx, variantPath(basePath, variant), ReceiptURLExpiry)
		if err != nil {
			return nil, fmt.Errorf("failed to presign %s rendition: %w", variant, err)
		}
		urls[variant] = url
	}

	return &ReceiptMetadata{
		TransactionID: transactionID,
		ThumbnailURL:  urls["thumb"],
		DisplayURL:    urls["display"],
		OriginalURL:   urls["original"],
		ExpiresAt:     time.Now().Add(ReceiptURLExpiry),
	}, nil
}

// deleteVariants removes the given objects, ignoring individual failures.
func (s *ReceiptService) deleteVariants(ctx context.Context, paths []string) {
	for _, path := range paths {
		_ = s.storage.Delete(ctx, path)
	}
}

func variantPath(basePath, variant string) string {
	return fmt.Sprintf("%s_%s.jpg", basePath, variant)
}

func allVariantPaths(basePath string) []string {
	paths := make([]string, 0, len(receiptVariants))
	for _, variant := range receiptVariants {
		paths = append(paths, variantPath(basePath, variant))
	}
	return paths
}
