package dumpstore

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// GCSArchiverConfig holds configuration specific to the GCS archiver.
type GCSArchiverConfig struct {
	BucketName   string
	ObjectPrefix string
}

// GCSArchiver writes batches of dump records to Google Cloud Storage for long
// term audit. Records are grouped by route id and each group becomes one
// compressed JSONL object.
type GCSArchiver struct {
	client GCSClient
	config GCSArchiverConfig
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewGCSArchiver creates an archiver writing to the configured bucket.
func NewGCSArchiver(client GCSClient, cfg GCSArchiverConfig, logger zerolog.Logger) (*GCSArchiver, error) {
	if client == nil {
		return nil, errors.New("GCS client cannot be nil")
	}
	if cfg.BucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	return &GCSArchiver{
		client: client,
		config: cfg,
		logger: logger.With().Str("component", "GCSArchiver").Logger(),
	}, nil
}

// Archive groups the records by route id and uploads each group to its own
// object in parallel. Records without an exchange id are skipped.
func (a *GCSArchiver) Archive(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	grouped := make(map[string][]*Record)
	for _, record := range records {
		if record == nil || record.ExchangeID == "" {
			continue
		}
		key := record.RouteID
		if key == "" {
			key = "unrouted"
		}
		grouped[key] = append(grouped[key], record)
	}
	if len(grouped) == 0 {
		return nil
	}

	var uploadWg sync.WaitGroup
	errs := make(chan error, len(grouped))

	for key, group := range grouped {
		uploadWg.Add(1)
		a.wg.Add(1)

		go func(routeKey string, toUpload []*Record) {
			defer uploadWg.Done()
			defer a.wg.Done()
			if err := a.archiveGroup(ctx, routeKey, toUpload); err != nil {
				errs <- err
			}
		}(key, group)
	}

	uploadWg.Wait()
	close(errs)

	var combinedErr error
	for err := range errs {
		if combinedErr == nil {
			combinedErr = err
		} else {
			combinedErr = fmt.Errorf("%v; %w", combinedErr, err)
		}
	}
	return combinedErr
}

// archiveGroup streams one group of records into a compressed GCS object.
func (a *GCSArchiver) archiveGroup(ctx context.Context, routeKey string, records []*Record) error {
	objectName := path.Join(a.config.ObjectPrefix, routeKey, fmt.Sprintf("%s.jsonl.gz", uuid.NewString()))
	a.logger.Info().Str("object_name", objectName).Int("record_count", len(records)).Msg("Starting dump archive upload.")

	objHandle := a.client.Bucket(a.config.BucketName).Object(objectName)
	gcsWriter := objHandle.NewWriter(ctx)
	pr, pw := io.Pipe()

	go func() {
		var err error
		defer func() { _ = pw.CloseWithError(err) }()
		gz := gzip.NewWriter(pw)
		defer func() { _ = gz.Close() }()
		enc := json.NewEncoder(gz)
		for _, record := range records {
			if err = enc.Encode(record); err != nil {
				err = fmt.Errorf("json encoding failed for %s: %w", objectName, err)
				return
			}
		}
	}()

	bytesWritten, pipeReadErr := io.Copy(gcsWriter, pr)
	closeErr := gcsWriter.Close()

	if pipeReadErr != nil {
		return fmt.Errorf("failed to stream dumps to GCS object %s: %w", objectName, pipeReadErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close GCS object writer for %s: %w", objectName, closeErr)
	}

	a.logger.Info().
		Str("object_name", objectName).
		Int64("bytes_written", bytesWritten).
		Msg("Successfully archived dump batch to GCS.")
	return nil
}

// Close waits for any in-flight uploads to complete.
func (a *GCSArchiver) Close() error {
	a.logger.Info().Msg("Waiting for pending dump archives to complete...")
	a.wg.Wait()
	a.logger.Info().Msg("All dump archives completed.")
	return nil
}
