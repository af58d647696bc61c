// Package ingest turns an uploaded ZIP archive into stored client files.
package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/model"
	"github.com/hypatiagarcia/lenguajesvisuales2-segundoparcial/internal/storage"
)

var (
	ErrNotArchive     = errors.New("uploaded file is not a ZIP archive")
	ErrInvalidArchive = errors.New("invalid ZIP archive")
	ErrNameCollision  = errors.New("stored file name collision")
	ErrInvalidClient  = errors.New("client ID cannot be used as a storage prefix")
)

const (
	sniffLen        = 3072
	collisionLayout = "20060102150405"
)

// Upload is an archive as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Options struct {
	Storage     storage.Backend
	ScratchRoot string
	URLPrefix   string
	Now         func() time.Time
	Logger      *slog.Logger
}

type Ingestor struct {
	store       storage.Backend
	scratchRoot string
	urlPrefix   string
	now         func() time.Time
	log         *slog.Logger
}

func New(opts Options) *Ingestor {
	in := &Ingestor{
		store:       opts.Storage,
		scratchRoot: opts.ScratchRoot,
		urlPrefix:   "/" + strings.Trim(opts.URLPrefix, "/"),
		now:         opts.Now,
		log:         opts.Logger,
	}
	if in.scratchRoot == "" {
		in.scratchRoot = os.TempDir()
	}
	if in.urlPrefix == "/" {
		in.urlPrefix = ""
	}
	if in.now == nil {
		in.now = time.Now
	}
	if in.log == nil {
		in.log = slog.Default()
	}
	return in
}

// Ingest extracts up and stores every regular file it contains under
// clientID. Either every file is stored and a record returned for it, or an
// error is returned and nothing written by this call remains in storage.
func (in *Ingestor) Ingest(ctx context.Context, clientID string, up Upload) ([]model.ClientFile, error) {
	if !storage.ValidSegment(clientID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidClient, clientID)
	}
	if !declaredZip(up) {
		return nil, ErrNotArchive
	}
	br := bufio.NewReaderSize(up.Body, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if !isZip(head) {
		return nil, ErrNotArchive
	}

	scratch := filepath.Join(in.scratchRoot, "temp_"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o700); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			in.log.Warn("failed to remove scratch dir", "path", scratch, "error", err)
		}
	}()

	archivePath, err := saveArchive(scratch, up.Filename, br)
	if err != nil {
		return nil, err
	}
	extracted := filepath.Join(scratch, "extracted")
	if err := extract(ctx, archivePath, extracted); err != nil {
		return nil, err
	}

	var stored []model.ClientFile
	err = filepath.WalkDir(extracted, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := in.storeFile(ctx, clientID, p)
		if err != nil {
			return err
		}
		stored = append(stored, *rec)
		return nil
	})
	if err != nil {
		in.Discard(context.WithoutCancel(ctx), stored)
		return nil, err
	}

	in.log.Info("archive ingested", "client_id", clientID, "archive", up.Filename, "files", len(stored))
	return stored, nil
}

func (in *Ingestor) storeFile(ctx context.Context, clientID, src string) (*model.ClientFile, error) {
	name := filepath.Base(src)
	ext := filepath.Ext(name)

	f, err := os.Open(src)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}

	storedName := name
	key, err := storage.Key(clientID, storedName)
	if err != nil {
		return nil, err
	}
	exists, err := in.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if exists {
		storedName = strings.TrimSuffix(name, ext) + "_" + in.now().Format(collisionLayout) + ext
		if key, err = storage.Key(clientID, storedName); err != nil {
			return nil, err
		}
	}

	if err := in.store.Put(ctx, key, f, st.Size()); err != nil {
		if errors.Is(err, storage.ErrExists) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNameCollision, clientID, storedName)
		}
		return nil, fmt.Errorf("store %s: %w", name, err)
	}
	in.log.Debug("file stored", "client_id", clientID, "name", storedName, "bytes", st.Size())

	return &model.ClientFile{
		ClientID:   clientID,
		FileName:   name,
		StoredName: storedName,
		URL:        in.urlPrefix + "/" + url.PathEscape(clientID) + "/" + url.PathEscape(storedName),
		Extension:  ext,
		SizeBytes:  st.Size(),
		UploadedAt: in.now().UTC(),
	}, nil
}

// Discard removes the stored content of files. Errors are logged only.
func (in *Ingestor) Discard(ctx context.Context, files []model.ClientFile) {
	for _, f := range files {
		key, err := storage.Key(f.ClientID, f.StoredName)
		if err == nil {
			err = in.store.Remove(ctx, key)
		}
		if err != nil {
			in.log.Warn("failed to remove stored file", "client_id", f.ClientID, "name", f.StoredName, "error", err)
		}
	}
}

func declaredZip(up Upload) bool {
	ct := strings.ToLower(strings.TrimSpace(up.ContentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch ct {
	case "application/zip", "application/x-zip-compressed":
		return true
	}
	return strings.HasSuffix(strings.ToLower(up.Filename), ".zip")
}

// isZip reports whether head is a ZIP container, including formats built on
// one (docx, jar, ...).
func isZip(head []byte) bool {
	for m := mimetype.Detect(head); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

func saveArchive(dir, filename string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.zip"
	}
	archiveDir := filepath.Join(dir, "archive")
	if err := os.MkdirAll(archiveDir, 0o700); err != nil {
		return "", err
	}
	p := filepath.Join(archiveDir, base)
	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("save archive: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("save archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("save archive: %w", err)
	}
	return p, nil
}
