package handler

import (
	"bufio"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/ingest"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/service"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/storage"
)

type FileHandler struct {
	svc   *service.FileService
	store storage.Backend
}

func NewFileHandler(svc *service.FileService, store storage.Backend) *FileHandler {
	return &FileHandler{svc: svc, store: store}
}

func (h *FileHandler) Upload(c *gin.Context) {
	var req model.UploadFilesRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	f, err := req.ZipFile.Open()
	if err != nil {
		_ = c.Error(apperrors.NewInternal("failed to read upload", err))
		return
	}
	defer f.Close()

	files, err := h.svc.Upload(c.Request.Context(), strings.TrimSpace(req.ClientID), ingest.Upload{
		Filename:    req.ZipFile.Filename,
		ContentType: req.ZipFile.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, fmt.Sprintf("%d files uploaded successfully", len(files)), files)
}

func (h *FileHandler) ListByClient(c *gin.Context) {
	files, err := h.svc.ListByClient(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d files found", len(files)), files)
}

func (h *FileHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("fileId"), 10, 64)
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid file id", "file id must be a positive integer"))
		return
	}
	f, err := h.svc.Get(c.Request.Context(), uint(id))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, "file found", f)
}

func (h *FileHandler) List(c *gin.Context) {
	files, err := h.svc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d files found", len(files)), files)
}

// Serve streams stored file content from the storage backend.
func (h *FileHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("filepath"), "/")
	obj, err := h.store.Open(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		_ = c.Error(apperrors.NewNotFound("file not found"))
		return
	}
	if err != nil {
		_ = c.Error(apperrors.NewInternal("failed to open file", err))
		return
	}
	defer obj.Close()

	br := bufio.NewReaderSize(obj, 3072)
	ct := obj.ContentType
	if ct == "" || ct == "application/octet-stream" {
		head, _ := br.Peek(3072)
		ct = mimetype.Detect(head).String()
	}
	c.DataFromReader(http.StatusOK, obj.Size, ct, br, nil)
}
