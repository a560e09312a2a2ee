package storage

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/ficscrape/ao3fetch/internal/metadata"
	"github.com/ficscrape/ao3fetch/pkg/failure"
	"github.com/ficscrape/ao3fetch/pkg/fileutil"
	"github.com/ficscrape/ao3fetch/pkg/hashutil"
)

/*
Responsibilities
- Persist transient-failure response bodies for post-mortem inspection
- Record artifact paths and content hashes in metadata

Output Characteristics
- Single fixed filename, overwritten on each transient failure
- Overwrite-safe reruns

Debug artifacts never feed back into the fetch pipeline.
*/

const debugFileName = "debug.html"

type DebugSink interface {
	WriteDebugBody(sourceUrl string, body []byte) failure.ClassifiedError
}

type LocalDebugSink struct {
	metadataSink metadata.MetadataSink
	outputDir    string
}

func NewLocalDebugSink(
	metadataSink metadata.MetadataSink,
	outputDir string,
) LocalDebugSink {
	return LocalDebugSink{
		metadataSink: metadataSink,
		outputDir:    outputDir,
	}
}

// WriteDebugBody persists the body of a transient-failure response to
// <outputDir>/debug.html, replacing any previous artifact.
func (s *LocalDebugSink) WriteDebugBody(sourceUrl string, body []byte) failure.ClassifiedError {
	storageErr := s.write(body)
	if storageErr != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalDebugSink.WriteDebugBody",
			mapStorageErrorToMetadataCause(storageErr),
			storageErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrURL, sourceUrl),
				metadata.NewAttr(metadata.AttrPath, storageErr.Path),
			},
		)
		return storageErr
	}

	fullPath := filepath.Join(s.outputDir, debugFileName)
	contentHash, hashErr := hashutil.HashBytes(body, hashutil.HashAlgoBLAKE3)
	if hashErr != nil {
		contentHash = ""
	}
	s.metadataSink.RecordArtifact(
		metadata.ArtifactDebugBody,
		fullPath,
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, sourceUrl),
			metadata.NewAttr(metadata.AttrHash, contentHash),
		},
	)
	return nil
}

func (s *LocalDebugSink) write(body []byte) *StorageError {
	if err := fileutil.WriteOverwrite(s.outputDir, debugFileName, body); err != nil {
		var fileErr *fileutil.FileError
		if errors.As(err, &fileErr) && fileErr.Cause == fileutil.ErrCausePathError {
			return &StorageError{
				Message:   err.Error(),
				Retryable: false,
				Cause:     ErrCausePathError,
				Path:      s.outputDir,
			}
		}
		return &StorageError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      filepath.Join(s.outputDir, debugFileName),
		}
	}
	return nil
}
