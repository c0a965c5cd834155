package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appErrors "github.com/reformcases/portfolio-api/pkg/errors"
	"github.com/reformcases/portfolio-api/pkg/storage"
)

// UploadKind separates case photos from work order documents.
type UploadKind string

const (
	// UploadKindPhoto is a before or after photo for a case.
	UploadKindPhoto UploadKind = "photo"
	// UploadKindWorkOrder is a document fed to the summary generator.
	UploadKindWorkOrder UploadKind = "workorder"
)

type uploadStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// UploadConfig bounds accepted files.
type UploadConfig struct {
	APIPrefix        string
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
	RetentionTTL     time.Duration
	CleanupInterval  time.Duration
}

// UploadResult describes a stored file.
type UploadResult struct {
	ID        string     `json:"id"`
	Path      string     `json:"path"`
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// WorkOrderDownload wraps a resolved work order file handle.
type WorkOrderDownload struct {
	File     *os.File
	Filename string
}

// UploadService stores case photos and work order documents. Photos are
// served from a plain files route; work orders are only reachable through
// signed, expiring tokens.
type UploadService struct {
	storage uploadStorage
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     UploadConfig
}

// NewUploadService constructs an UploadService.
func NewUploadService(store uploadStorage, signer *storage.SignedURLSigner, cfg UploadConfig, logger *zap.Logger) *UploadService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 << 20
	}
	if cfg.RetentionTTL <= 0 {
		cfg.RetentionTTL = 30 * 24 * time.Hour
	}
	return &UploadService{storage: store, signer: signer, logger: logger, cfg: cfg}
}

// Save validates and stores an uploaded file, returning its access URL.
func (s *UploadService) Save(ctx context.Context, kind UploadKind, originalName, contentType string, size int64, r io.Reader) (*UploadResult, error) {
	if size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrFileTooLarge,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxFileSizeBytes))
	}
	if kind == UploadKindPhoto && !s.mimeAllowed(contentType) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia,
			fmt.Sprintf("content type %q is not allowed", contentType))
	}

	id := uuid.NewString()
	relPath := filepath.Join(string(kind), fmt.Sprintf("%s%s", id, sanitizeExtension(originalName)))
	stored, err := s.storage.SaveStream(relPath, io.LimitReader(r, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}

	result := &UploadResult{ID: id, Path: stored}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	if kind == UploadKindWorkOrder && s.signer != nil {
		token, expiresAt, err := s.signer.Generate(id, stored)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign work order URL")
		}
		result.URL = fmt.Sprintf("%s/workorders/%s", prefix, token)
		result.ExpiresAt = &expiresAt
		return result, nil
	}

	result.URL = fmt.Sprintf("%s/files/%s", prefix, filepath.ToSlash(stored))
	return result, nil
}

// OpenFile returns a handle for a stored photo by its relative path.
func (s *UploadService) OpenFile(relPath string) (*os.File, error) {
	if strings.Contains(relPath, "..") {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid file path")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return file, nil
}

// ResolveWorkOrder validates a signed token and opens the document.
func (s *UploadService) ResolveWorkOrder(token string) (*WorkOrderDownload, error) {
	if s.signer == nil {
		return nil, appErrors.ErrNotFound
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.ErrNotFound
	}
	return &WorkOrderDownload{File: file, Filename: filepath.Base(relPath)}, nil
}

// StartCleanup boots a goroutine that purges stale uploads periodically.
func (s *UploadService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if deleted, err := s.storage.CleanupOlderThan(s.cfg.RetentionTTL); err != nil {
					s.logger.Sugar().Warnw("upload cleanup failed", "error", err)
				} else if len(deleted) > 0 {
					s.logger.Sugar().Infow("upload cleanup", "deleted", len(deleted))
				}
			}
		}
	}()
}

func (s *UploadService) mimeAllowed(contentType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, contentType) {
			return true
		}
	}
	return false
}

func sanitizeExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
