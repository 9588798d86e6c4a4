// Package documents хранит отрисованные документы счетов.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrNotFound = errors.New("document not found")

type Store interface {
	Put(ctx context.Context, key string, content []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
	Exists(ctx context.Context, ref string) (bool, error)
}

var unsafeSegment = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Key строит ключ user/order/invoice-code/version. Каждая версия пишется один раз.
func Key(userID int, orderID int64, invoiceCode string, version int64) string {
	code := unsafeSegment.ReplaceAllString(invoiceCode, "_")
	code = strings.Trim(code, ".")
	if code == "" {
		code = "invoice"
	}
	return fmt.Sprintf("%d/%d/%s/%d.txt", userID, orderID, code, version)
}

type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create documents dir: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Put записывает документ, если версии с таким ключом ещё нет, и возвращает ссылку на него.
func (s *FileStore) Put(_ context.Context, key string, content []byte) (string, error) {
	path, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return key, nil
	}
	if err != nil {
		return "", err
	}
	if _, err = file.Write(content); err != nil {
		file.Close()
		return "", err
	}
	return key, file.Close()
}

func (s *FileStore) Get(_ context.Context, ref string) ([]byte, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return content, err
}

func (s *FileStore) Exists(_ context.Context, ref string) (bool, error) {
	path, err := s.resolve(ref)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *FileStore) resolve(ref string) (string, error) {
	clean := filepath.Clean("/" + ref)
	if clean == "/" {
		return "", fmt.Errorf("invalid document reference %q", ref)
	}
	return filepath.Join(s.root, clean), nil
}
