// Package session состояние входа aqctl между запусками.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"smartcity-air/internal/models"
)

// ErrNoSession сессия не сохранена
var ErrNoSession = errors.New("session: not logged in")

// Context токен и пользователь текущего входа
type Context struct {
	Token    string      `json:"token"`
	User     models.User `json:"user"`
	Remember bool        `json:"remember"`
}

// Authenticated есть ли токен
func (c Context) Authenticated() bool {
	return c.Token != ""
}

// Store хранилище сессии
type Store interface {
	Load() (Context, error)
	Save(Context) error
	Clear() error
}

// FileStore сессия в JSON-файле с правами 0600
type FileStore struct {
	path string
}

// NewFileStore хранилище по пути path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path путь к файлу
func (s *FileStore) Path() string {
	return s.path
}

// Load читает сессию, ErrNoSession если файла нет или он пуст
func (s *FileStore) Load() (Context, error) {
	var c Context
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return c, ErrNoSession
	}
	if err != nil {
		return c, fmt.Errorf("failed to read session: %w", err)
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return Context{}, fmt.Errorf("failed to decode session: %w", err)
	}
	if !c.Authenticated() {
		return c, ErrNoSession
	}
	return c, nil
}

// Save записывает сессию атомарно через временный файл
func (s *FileStore) Save(c Context) error {
	raw, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace session: %w", err)
	}
	return nil
}

// Clear удаляет сессию, отсутствие файла не ошибка
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
