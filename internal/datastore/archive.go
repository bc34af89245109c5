package datastore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aleister1102/sitewatch/internal/common"
	"github.com/aleister1102/sitewatch/internal/common/contextutils"
	"github.com/aleister1102/sitewatch/internal/models"
	"github.com/aleister1102/sitewatch/internal/urlhandler"

	"github.com/google/uuid"
	"github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
)

// ParquetArchive writes evicted updates to per-site parquet files so the
// bounded hot history does not silently destroy older snapshots.
type ParquetArchive struct {
	baseDir     string
	compression string
	logger      zerolog.Logger
}

// NewParquetArchive creates an archive rooted at baseDir.
func NewParquetArchive(baseDir string, logger zerolog.Logger) (*ParquetArchive, error) {
	if baseDir == "" {
		return nil, common.NewValidationError("base_dir", baseDir, "archive directory cannot be empty")
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, common.WrapError(err, "failed to create archive directory "+baseDir)
	}

	return &ParquetArchive{
		baseDir:     baseDir,
		compression: "zstd",
		logger:      logger.With().Str("component", "ParquetArchive").Logger(),
	}, nil
}

// ArchiveEvicted writes one parquet file per eviction batch under a
// site-specific directory.
func (pa *ParquetArchive) ArchiveEvicted(ctx context.Context, site *models.Site, evicted []models.Update) error {
	if len(evicted) == 0 {
		return nil
	}

	if result := contextutils.CheckCancellationWithLog(ctx, pa.logger, "archive evicted updates"); result.Cancelled {
		return result.Error
	}

	filePath, err := pa.prepareOutputFile(site.URL)
	if err != nil {
		return err
	}

	records := pa.transformRecords(site, evicted)

	written, err := pa.writeToParquetFile(filePath, records)
	if err != nil {
		return err
	}

	pa.logger.Info().
		Str("file_path", filePath).
		Int("records_written", written).
		Int64("site_id", site.ID).
		Msg("Archived evicted updates to parquet file")

	return nil
}

// prepareOutputFile builds the per-site output path for one eviction batch.
func (pa *ParquetArchive) prepareOutputFile(siteURL string) (string, error) {
	sanitized := urlhandler.SanitizeFilename(siteURL)
	siteDir := filepath.Join(pa.baseDir, sanitized)
	if err := os.MkdirAll(siteDir, 0755); err != nil {
		return "", common.WrapError(err, "failed to create site archive directory: "+siteDir)
	}

	// Batches can land within the same millisecond, so the timestamp
	// alone is not a safe file name.
	fileName := fmt.Sprintf("updates_%d_%s.parquet", time.Now().UnixMilli(), uuid.NewString()[:8])
	return filepath.Join(siteDir, fileName), nil
}

// transformRecords converts evicted updates to the parquet row layout.
func (pa *ParquetArchive) transformRecords(site *models.Site, evicted []models.Update) []models.ArchivedUpdate {
	records := make([]models.ArchivedUpdate, 0, len(evicted))
	for _, u := range evicted {
		records = append(records, models.ArchivedUpdate{
			SiteID:       u.SiteID,
			URL:          site.URL,
			UpdateID:     u.ID,
			Timestamp:    u.Timestamp,
			ContentHash:  u.ContentHash,
			Content:      u.Content,
			LinesAdded:   int32(u.LinesAdded),
			LinesRemoved: int32(u.LinesRemoved),
		})
	}
	return records
}

// writeToParquetFile writes the records to a new parquet file.
func (pa *ParquetArchive) writeToParquetFile(filePath string, records []models.ArchivedUpdate) (int, error) {
	file, err := os.Create(filePath)
	if err != nil {
		return 0, common.WrapError(err, "failed to create parquet file: "+filePath)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[models.ArchivedUpdate](file, pa.compressionOption())
	defer writer.Close()

	written, err := writer.Write(records)
	if err != nil {
		return 0, common.WrapError(err, "failed to write evicted updates to parquet file")
	}

	return written, nil
}

// compressionOption returns the parquet compression for the configured codec.
func (pa *ParquetArchive) compressionOption() parquet.WriterOption {
	switch pa.compression {
	case "gzip":
		return parquet.Compression(&parquet.Gzip)
	case "snappy":
		return parquet.Compression(&parquet.Snappy)
	default:
		return parquet.Compression(&parquet.Zstd)
	}
}
