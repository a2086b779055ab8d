// Package journal persists the validation report history to a compressed
// file and restores it at startup.
package journal

import (
	"errors"
	json "github.com/goccy/go-json"
	"leadsync/internal/journal/interfaces"
	"leadsync/internal/models"
	"leadsync/internal/providers"
	"leadsync/internal/services"
	"os"
	"path/filepath"
)

const journalVersion = 1

// Snapshot is the on-disk layout.
type Snapshot struct {
	Version  int                                   `json:"version"`
	Projects map[string][]*models.ValidationReport `json:"projects"`
}

type FileManager struct {
	service    services.ReportServiceInterface
	compressor interfaces.CompressorInterface
	logger     providers.Logger
}

func NewFileManager(compressor interfaces.CompressorInterface, service services.ReportServiceInterface, logger providers.Logger) *FileManager {
	return &FileManager{
		compressor: compressor,
		service:    service,
		logger:     logger,
	}
}

func (f *FileManager) SaveToFile(fileName string) error {
	snapshot := Snapshot{
		Version:  journalVersion,
		Projects: f.service.GetSnapshot(),
	}

	jsonData, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	data, err := f.compressor.Compress(jsonData)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(fileName); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
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
	f.compressor.Close()
}

// LoadFromFile restores the journal. A missing file is an empty journal.
func (f *FileManager) LoadFromFile(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	decompressedData, err := f.compressor.Decompress(data)
	if err != nil {
		return err
	}

	var snapshot Snapshot
	if err := json.Unmarshal(decompressedData, &snapshot); err == nil && snapshot.Version > 0 {
		if snapshot.Version > journalVersion {
			return errors.New("journal was written by a newer version")
		}
		f.service.PutSnapshot(snapshot.Projects)
		f.logger.Infof(providers.TypeApp, "Restored validation reports of %d projects", len(snapshot.Projects))
		return nil
	}

	// unversioned journals are a bare project -> reports map
	f.logger.Warnf(providers.TypeApp, "Unversioned journal found, trying to migrate")
	var legacy map[string][]*models.ValidationReport
	if err := json.Unmarshal(decompressedData, &legacy); err != nil {
		f.logger.Warnf(providers.TypeApp, "Journal migration failed")
		return err
	}
	f.service.PutSnapshot(legacy)
	f.logger.Warnf(providers.TypeApp, "Journal migration successful")
	return nil
}
