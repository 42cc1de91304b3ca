package persistence

import (
	"annolist/internal/models"
	"annolist/internal/persistence/interfaces"
	"annolist/internal/providers"
	"annolist/internal/services"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

type FileManager struct {
	service    services.AnnotationServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.AnnotationServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

// SaveToFile writes all panel options next to fileName and renames the
// result into place, so a crash never leaves a truncated snapshot.
func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := f.service.Snapshot()

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func (f *FileManager) Close() {
	if c, ok := f.compressor.(interface{ Close() }); ok {
		c.Close()
	}
}

// LoadFromFile restores panel options. A missing file is a fresh start.
// An uncompressed JSON snapshot (hand-edited or seeded by provisioning) is
// accepted as well.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	jsonData, err := f.compressor.Decompress(data)
	if err != nil {
		if !json.Valid(data) {
			return fmt.Errorf("snapshot %s: %w", fileName, err)
		}
		f.logger.Warnf(providers.TypeApp, "Snapshot %s is not compressed, reading as plain JSON", fileName)
		jsonData = data
	}

	var snapshot models.PanelSnapshot
	if err := json.Unmarshal(jsonData, &snapshot); err != nil {
		return fmt.Errorf("snapshot %s: %w", fileName, err)
	}
	if snapshot.Version > models.SnapshotVersion {
		return fmt.Errorf("snapshot %s: version %d is newer than supported %d", fileName, snapshot.Version, models.SnapshotVersion)
	}

	f.service.Restore(&snapshot)
	return nil
}
