package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/muniledger/internal/report"
)

// ErrInvalidParams is returned when upload metadata is incomplete.
var ErrInvalidParams = errors.New("invalid upload parameters")

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=document
type Repository interface {
	CreateDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id uuid.UUID) (*Document, error)
	ListDocuments(ctx context.Context, filter ListFilter) ([]*Document, error)
	DeleteDocument(ctx context.Context, id uuid.UUID) error
}

// Storage keeps the uploaded files.
type Storage interface {
	Put(ctx context.Context, path string, data []byte) error
	Get(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
}

type Service struct {
	repo     Repository
	storage  Storage
	maxBytes int64
	validate *validator.Validate
}

func NewService(repo Repository, storage Storage, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Service{
		repo:     repo,
		storage:  storage,
		maxBytes: maxBytes,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

type UploadParams struct {
	Municipality string `validate:"required"`
	Type         string `validate:"required"`
	Period       string
	Year         int    `validate:"omitempty,gte=1900,lte=2100"`
	Name         string
	FileName     string `validate:"required"`
	Data         []byte
}

type ListFilter struct {
	Municipality *string
	Status       *report.Status
}

// Upload validates the file, stores it at its content address and records
// a pending document.
func (s *Service) Upload(ctx context.Context, params UploadParams) (*Document, error) {
	if err := s.validate.Struct(params); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	format, err := DetectFormat(params.FileName, params.Data, s.maxBytes)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(params.Data)
	hash := hex.EncodeToString(sum[:])
	path := StoragePath(params.Municipality, hash, format)

	if err := s.storage.Put(ctx, path, params.Data); err != nil {
		return nil, fmt.Errorf("storing file: %w", err)
	}

	name := params.Name
	if name == "" {
		name = params.FileName
	}

	d := &Document{
		Municipality: params.Municipality,
		Type:         params.Type,
		Period:       params.Period,
		Year:         params.Year,
		Name:         name,
		FileName:     params.FileName,
		Format:       format,
		SizeBytes:    int64(len(params.Data)),
		Hash:         hash,
		StoragePath:  path,
		Status:       report.StatusPending,
	}

	if err := s.repo.CreateDocument(ctx, d); err != nil {
		return nil, fmt.Errorf("creating document: %w", err)
	}

	slog.Info("document uploaded", "document_id", d.ID, "path", path, "format", format)

	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Document, error) {
	return s.repo.GetDocument(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Document, error) {
	return s.repo.ListDocuments(ctx, filter)
}

// Content reads the stored file of a document.
func (s *Service) Content(ctx context.Context, d *Document) ([]byte, error) {
	if d.StoragePath == "" {
		return nil, fmt.Errorf("document %s has no storage path", d.ID)
	}

	data, err := s.storage.Get(ctx, d.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", d.StoragePath, err)
	}

	return data, nil
}

// Delete removes the document row. The file is kept when another document
// may share its content address.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.repo.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteDocument(ctx, id); err != nil {
		return err
	}

	others, err := s.repo.ListDocuments(ctx, ListFilter{Municipality: &d.Municipality})
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	for _, o := range others {
		if o.StoragePath == d.StoragePath {
			return nil
		}
	}

	if err := s.storage.Delete(ctx, d.StoragePath); err != nil {
		slog.Warn("failed to delete stored file", "path", d.StoragePath, "error", err)
	}

	return nil
}
