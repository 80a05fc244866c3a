package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xhad/relay/internal/models"
	"github.com/xhad/relay/pkg/splitter"
)

var (
	// ErrUnsupportedFormat marks a file extension outside the supported set.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrSourceNotFound marks a missing file or directory path.
	ErrSourceNotFound = errors.New("source not found")
)

type LoaderConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

// Loader parses raw documents into provenance-tagged chunks ready for
// indexing. It owns no index state; callers hand the chunks to the
// document index themselves.
type Loader struct {
	config   LoaderConfig
	splitter splitter.Splitter
	logger   *zap.Logger
}

func NewWithConfig(config LoaderConfig, logger *zap.Logger) Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return Loader{
		config: config,
		splitter: splitter.NewWithConfig(splitter.SplitterConfig{
			ChunkSize:    config.ChunkSize,
			ChunkOverlap: config.ChunkOverlap,
		}),
		logger: logger,
	}
}

// LoadFile parses a single document and splits it into chunks.
func (l *Loader) LoadFile(path string) ([]models.Chunk, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrSourceNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	extract, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	text, err := extract(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	pieces := l.splitter.Split(text)

	chunks := make([]models.Chunk, 0, len(pieces))
	for i, piece := range pieces {
		chunks = append(chunks, models.Chunk{
			Text:        piece,
			Source:      path,
			Filename:    filepath.Base(path),
			FileType:    ext,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
		})
	}

	l.logger.Info("loaded document",
		zap.String("file", filepath.Base(path)),
		zap.Int("chunks", len(chunks)))

	return chunks, nil
}

// LoadDirectory parses every file in a directory. A file that fails to
// parse is logged and skipped so the rest of the batch proceeds.
func (l *Loader) LoadDirectory(dir string) ([]models.Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, dir)
	}

	var chunks []models.Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		fileChunks, err := l.LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			l.logger.Warn("skipping file",
				zap.String("file", entry.Name()),
				zap.Error(err))
			continue
		}
		chunks = append(chunks, fileChunks...)
	}

	l.logger.Info("loaded directory",
		zap.String("dir", dir),
		zap.Int("chunks", len(chunks)))

	return chunks, nil
}

// SupportedFormats lists the accepted file extensions.
func (l *Loader) SupportedFormats() []string {
	formats := make([]string, 0, len(extractors))
	for ext := range extractors {
		formats = append(formats, ext)
	}
	return formats
}
