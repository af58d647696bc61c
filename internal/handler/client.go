package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/service"
)

type ClientHandler struct {
	svc *service.ClientService
}

func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{svc: svc}
}

func (h *ClientHandler) Register(c *gin.Context) {
	var req model.RegisterClientRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	in := service.RegisterInput{ID: req.ID, Name: req.Name, Address: req.Address, Phone: req.Phone}
	for i, fh := range []*multipart.FileHeader{req.Photo1, req.Photo2, req.Photo3} {
		b, err := readPhoto(fh)
		if err != nil {
			_ = c.Error(apperrors.NewInvalidRequest("invalid photo", fmt.Sprintf("photo%d: %v", i+1, err)))
			return
		}
		in.Photos[i] = b
	}

	sum, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusCreated, "client registered successfully", sum)
}

func (h *ClientHandler) Get(c *gin.Context) {
	sum, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, "client found", sum)
}

func (h *ClientHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	respond(c, http.StatusOK, fmt.Sprintf("%d clients found", len(list)), list)
}

// Photo serves the raw image bytes with a sniffed content type.
func (h *ClientHandler) Photo(c *gin.Context) {
	n, err := strconv.Atoi(c.Param("n"))
	if err != nil {
		_ = c.Error(apperrors.NewInvalidRequest("invalid photo number", "photo number must be 1, 2 or 3"))
		return
	}
	p, err := h.svc.Photo(c.Request.Context(), c.Param("id"), n)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Data(http.StatusOK, mimetype.Detect(p).String(), p)
}

func readPhoto(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil || fh.Size == 0 {
		return nil, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
