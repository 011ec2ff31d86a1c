package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

// FilePersistence implements SessionPersistence using file system storage
type FilePersistence struct {
	sessionsDir string
	codec       codec
}

// NewFilePersistence creates a new file-based session persistence layer.
// configManager may be nil; it only resolves config ids.
func NewFilePersistence(sessionsDir string, configManager service.ConfigManager) (*FilePersistence, error) {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	return &FilePersistence{
		sessionsDir: sessionsDir,
		codec:       codec{configManager: configManager},
	}, nil
}

// Save persists a session to a JSON file, replacing it atomically
func (fp *FilePersistence) Save(session *service.Session) error {
	jsonData, err := fp.codec.encode(session)
	if err != nil {
		return err
	}

	filePath := fp.getFilePath(session.ID)
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	return nil
}

// Load retrieves a session from a JSON file
func (fp *FilePersistence) Load(id string) (*service.Session, error) {
	jsonData, err := os.ReadFile(fp.getFilePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	return fp.codec.decode(jsonData)
}

// Delete removes a session file
func (fp *FilePersistence) Delete(id string) error {
	if !fp.Exists(id) {
		return ErrSessionNotFound
	}

	if err := os.Remove(fp.getFilePath(id)); err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}

	return nil
}

// ListAll returns all persisted session IDs
func (fp *FilePersistence) ListAll() ([]string, error) {
	entries, err := os.ReadDir(fp.sessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var sessionIDs []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasSuffix(name, ".json") {
			sessionIDs = append(sessionIDs, strings.TrimSuffix(name, ".json"))
		}
	}

	return sessionIDs, nil
}

// Exists checks if a session file exists
func (fp *FilePersistence) Exists(id string) bool {
	_, err := os.Stat(fp.getFilePath(id))
	return err == nil
}

func (fp *FilePersistence) getFilePath(id string) string {
	return filepath.Join(fp.sessionsDir, fmt.Sprintf("%s.json", strings.ToLower(id)))
}
