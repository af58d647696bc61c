package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/ingest"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/logger"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/metrics"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/repository"
)

type FileRepo interface {
	CreateBatch(ctx context.Context, files []model.ClientFile) error
	ListByClient(ctx context.Context, clientID string) ([]model.ClientFile, error)
	Get(ctx context.Context, id uint) (*model.ClientFile, error)
	List(ctx context.Context) ([]model.ClientFile, error)
}

type Ingestor interface {
	Ingest(ctx context.Context, clientID string, up ingest.Upload) ([]model.ClientFile, error)
	Discard(ctx context.Context, files []model.ClientFile)
}

type FileService struct {
	clients  ClientRepo
	files    FileRepo
	ingestor Ingestor
}

func NewFileService(clients ClientRepo, files FileRepo, ingestor Ingestor) *FileService {
	return &FileService{clients: clients, files: files, ingestor: ingestor}
}

// Upload ingests an archive for an existing client and records every file
// in one batch. There is no partial success.
func (s *FileService) Upload(ctx context.Context, clientID string, up ingest.Upload) ([]model.ClientFile, error) {
	exists, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to process files", err)
	}
	if !exists {
		metrics.IngestFailures.WithLabelValues("unknown_client").Inc()
		return nil, apperrors.NewInvalidRequest("client not found",
			"client "+clientID+" must be registered before uploading files")
	}

	files, err := s.ingestor.Ingest(ctx, clientID, up)
	if err != nil {
		return nil, ingestError(err)
	}
	if len(files) == 0 {
		metrics.IngestFailures.WithLabelValues("empty").Inc()
		return nil, apperrors.NewInvalidRequest("archive contains no files")
	}

	if err := s.files.CreateBatch(ctx, files); err != nil {
		s.ingestor.Discard(context.WithoutCancel(ctx), files)
		metrics.IngestFailures.WithLabelValues("db").Inc()
		return nil, apperrors.NewInternal("failed to process files", err)
	}
	metrics.FilesIngested.Add(float64(len(files)))
	return files, nil
}

func ingestError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, ingest.ErrNotArchive):
		metrics.IngestFailures.WithLabelValues("not_archive").Inc()
		return apperrors.NewInvalidRequest("file must be a ZIP archive", err.Error())
	case errors.Is(err, ingest.ErrInvalidArchive):
		metrics.IngestFailures.WithLabelValues("invalid_archive").Inc()
		return apperrors.NewInvalidRequest("invalid ZIP archive", err.Error())
	case errors.Is(err, ingest.ErrInvalidClient):
		metrics.IngestFailures.WithLabelValues("invalid_client").Inc()
		return apperrors.NewInvalidRequest("invalid client ID", err.Error())
	case errors.As(err, &tooLarge):
		metrics.IngestFailures.WithLabelValues("too_large").Inc()
		return apperrors.New(apperrors.ErrPayloadTooLarge, "upload exceeds the size limit", nil)
	default:
		metrics.IngestFailures.WithLabelValues("internal").Inc()
		logger.Error("archive ingestion failed", "error", err)
		return apperrors.NewInternal("failed to process files", err)
	}
}

func (s *FileService) ListByClient(ctx context.Context, clientID string) ([]model.ClientFile, error) {
	exists, err := s.clients.Exists(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list files", err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("client not found")
	}
	out, err := s.files.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list files", err)
	}
	return out, nil
}

func (s *FileService) Get(ctx context.Context, id uint) (*model.ClientFile, error) {
	f, err := s.files.Get(ctx, id)
	if errors.Is(err, repository.ErrFileNotFound) {
		return nil, apperrors.NewNotFound("file not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("failed to load file", err)
	}
	return f, nil
}

func (s *FileService) List(ctx context.Context) ([]model.ClientFile, error) {
	out, err := s.files.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list files", err)
	}
	return out, nil
}
