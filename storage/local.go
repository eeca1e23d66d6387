package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "github.com/leeforge/jsonmanager/errors"
)

// LocalProvider keeps documents as files on an afero filesystem.
//
// Reads return the whole file. Writes go to a temporary sibling file that
// is renamed over the target, so a failed write leaves the previous
// content in place.
type LocalProvider struct {
	fs       afero.Fs
	basePath string
	encName  string
	enc      encoding.Encoding
	perm     os.FileMode
	initErr  error
}

// LocalOption configures a LocalProvider.
type LocalOption func(*LocalProvider)

// WithFs replaces the OS filesystem, e.g. with afero.NewMemMapFs in tests.
func WithFs(fsys afero.Fs) LocalOption {
	return func(p *LocalProvider) {
		p.fs = fsys
	}
}

// WithEncoding sets the text encoding of stored files by IANA name.
// Empty means UTF-8.
func WithEncoding(name string) LocalOption {
	return func(p *LocalProvider) {
		enc, err := lookupEncoding(name)
		if err != nil {
			p.initErr = err
			return
		}
		p.encName = name
		p.enc = enc
	}
}

// WithFileMode sets the permission bits of newly written files.
func WithFileMode(perm os.FileMode) LocalOption {
	return func(p *LocalProvider) {
		p.perm = perm
	}
}

// NewLocalProvider creates a provider rooted at basePath. Relative document
// paths are resolved against it; an empty basePath leaves them untouched.
func NewLocalProvider(basePath string, opts ...LocalOption) (*LocalProvider, error) {
	p := &LocalProvider{
		fs:       afero.NewOsFs(),
		basePath: basePath,
		encName:  "utf-8",
		enc:      unicode.UTF8,
		perm:     0644,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.initErr != nil {
		return nil, p.initErr
	}
	return p, nil
}

func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, apperrors.NewInvalid("storage.encoding", name, err.Error())
	}
	if enc == nil {
		return nil, apperrors.NewInvalid("storage.encoding", name, "encoding is not supported")
	}
	return enc, nil
}

func (p *LocalProvider) resolve(path string) string {
	if p.basePath == "" || filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(p.basePath, path)
}

// ReadText reads the entire file, decoding it from the configured encoding.
// A leading byte order mark selects UTF-8 or UTF-16 regardless of it.
func (p *LocalProvider) ReadText(path string) (string, error) {
	fullPath := p.resolve(path)

	file, err := p.fs.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apperrors.NewNotFound(path).WithInnerError(err)
		}
		return "", apperrors.NewIO("read", path, err)
	}
	defer file.Close()

	decoder := unicode.BOMOverride(p.enc.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(file, decoder))
	if err != nil {
		return "", apperrors.NewIO("read", path, err)
	}
	return string(data), nil
}

// WriteText replaces the file at path with content, creating parent
// directories as needed.
func (p *LocalProvider) WriteText(path, content string) (err error) {
	fullPath := p.resolve(path)
	dir := filepath.Dir(fullPath)

	if err := p.fs.MkdirAll(dir, 0755); err != nil {
		return apperrors.NewIO("write", path, err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(fullPath)+"."+uuid.NewString()+".tmp")
	file, err := p.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, p.perm)
	if err != nil {
		return apperrors.NewIO("write", path, err)
	}
	defer func() {
		if err != nil {
			_ = p.fs.Remove(tmpPath)
		}
	}()

	if err := p.writeEncoded(file, content); err != nil {
		_ = file.Close()
		return apperrors.NewIO("write", path, err)
	}
	if err := file.Close(); err != nil {
		return apperrors.NewIO("write", path, err)
	}
	if err := p.fs.Rename(tmpPath, fullPath); err != nil {
		return apperrors.NewIO("write", path, err)
	}
	return nil
}

func (p *LocalProvider) writeEncoded(file afero.File, content string) error {
	w := transform.NewWriter(file, p.enc.NewEncoder())
	if _, err := io.WriteString(w, content); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return file.Sync()
}

// Exists reports whether a document is stored at path.
func (p *LocalProvider) Exists(path string) (bool, error) {
	ok, err := afero.Exists(p.fs, p.resolve(path))
	if err != nil {
		return false, apperrors.NewIO("stat", path, err)
	}
	return ok, nil
}

// Encoding returns the configured encoding name.
func (p *LocalProvider) Encoding() string {
	return p.encName
}

func (p *LocalProvider) Name() string {
	return DriverLocal
}

var _ Provider = (*LocalProvider)(nil)
