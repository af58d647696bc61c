package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/pkg/apperrors"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/repository"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/storage"
)

type ClientRepo interface {
	Exists(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, c *model.Client) error
	Get(ctx context.Context, id string) (*model.Client, error)
	ListSummaries(ctx context.Context) ([]model.ClientSummary, error)
}

// RegisterInput is a registration request with photo content already read.
// A nil photo is absent.
type RegisterInput struct {
	ID      string
	Name    string
	Address string
	Phone   string
	Photos  [3][]byte
}

type ClientService struct {
	repo ClientRepo
	now  func() time.Time
}

func NewClientService(repo ClientRepo) *ClientService {
	return &ClientService{repo: repo, now: time.Now}
}

func (s *ClientService) Register(ctx context.Context, in RegisterInput) (*model.ClientSummary, error) {
	c := &model.Client{
		ID:      strings.TrimSpace(in.ID),
		Name:    strings.TrimSpace(in.Name),
		Address: strings.TrimSpace(in.Address),
		Phone:   strings.TrimSpace(in.Phone),
		Photo1:  nonEmpty(in.Photos[0]),
		Photo2:  nonEmpty(in.Photos[1]),
		Photo3:  nonEmpty(in.Photos[2]),
	}
	if details := validateClient(c); len(details) > 0 {
		return nil, apperrors.NewInvalidRequest("invalid client data", details...)
	}

	exists, err := s.repo.Exists(ctx, c.ID)
	if err != nil {
		return nil, apperrors.NewInternal("failed to register client", err)
	}
	if exists {
		return nil, duplicateClient(c.ID)
	}

	c.RegisteredAt = s.now().UTC()
	if err := s.repo.Create(ctx, c); err != nil {
		// Lost a race with a concurrent registration of the same ID.
		if errors.Is(err, repository.ErrDuplicateClient) {
			return nil, duplicateClient(c.ID)
		}
		return nil, apperrors.NewInternal("failed to register client", err)
	}
	sum := c.Summary()
	return &sum, nil
}

func (s *ClientService) Get(ctx context.Context, id string) (*model.ClientSummary, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sum := c.Summary()
	return &sum, nil
}

func (s *ClientService) List(ctx context.Context) ([]model.ClientSummary, error) {
	out, err := s.repo.ListSummaries(ctx)
	if err != nil {
		return nil, apperrors.NewInternal("failed to list clients", err)
	}
	return out, nil
}

// Photo returns photo n (1..3) of a client.
func (s *ClientService) Photo(ctx context.Context, id string, n int) ([]byte, error) {
	if n < 1 || n > 3 {
		return nil, apperrors.NewInvalidRequest("invalid photo number", "photo number must be 1, 2 or 3")
	}
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	p, ok := c.Photo(n)
	if !ok {
		return nil, apperrors.NewNotFound(fmt.Sprintf("client %s has no photo %d", id, n))
	}
	return p, nil
}

func (s *ClientService) get(ctx context.Context, id string) (*model.Client, error) {
	c, err := s.repo.Get(ctx, strings.TrimSpace(id))
	if errors.Is(err, repository.ErrClientNotFound) {
		return nil, apperrors.NewNotFound("client not found")
	}
	if err != nil {
		return nil, apperrors.NewInternal("failed to load client", err)
	}
	return c, nil
}

func duplicateClient(id string) error {
	return apperrors.NewDuplicate("a client with this ID already exists",
		fmt.Sprintf("client ID %s is already registered", id))
}

// validateClient checks what form binding cannot: values after trimming and
// an ID that is safe to use as a storage directory name.
func validateClient(c *model.Client) []string {
	var details []string
	if c.ID == "" {
		details = append(details, "id is required")
	} else if !storage.ValidSegment(c.ID) || strings.Contains(c.ID, "..") {
		details = append(details, "id must not be '.', contain path separators or '..'")
	}
	if len(c.ID) > 20 {
		details = append(details, "id must be at most 20 characters")
	}
	if c.Name == "" {
		details = append(details, "name is required")
	}
	if c.Address == "" {
		details = append(details, "address is required")
	}
	if c.Phone == "" {
		details = append(details, "phone is required")
	}
	return details
}

func nonEmpty(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
