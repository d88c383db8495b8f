// FILE: internal/service/ingest_service.go
package service

import (
	"context"
	"fmt"
	"log"
	"path"
	"strings"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/pkg/events"
	"github.com/thetahealth/mirobody-sub003/pkg/fetch"
	"github.com/thetahealth/mirobody-sub003/pkg/fileparse"
	pktNats "github.com/thetahealth/mirobody-sub003/pkg/nats"
	"github.com/thetahealth/mirobody-sub003/pkg/objstore"
	"github.com/thetahealth/mirobody-sub003/pkg/sanitize"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const ingestDir = "/uploads"

type IIngestService interface {
	// UploadFiles processes a batch of inbound descriptors: resolve binary,
	// hash, consult the parse cache, parse on miss, then batch-upload the
	// text into the session workspace. Files fail individually; the batch
	// never aborts because one file did.
	UploadFiles(ctx context.Context, req *dto.IngestFilesRequest) (*dto.IngestFilesResponse, error)
}

type ingestService struct {
	workspaceService IWorkspaceService
	fileCacheService IFileCacheService
	storage          objstore.Client
	downloader       *fetch.Downloader
	parser           fileparse.Parser
	eventPublisher   *pktNats.Publisher
	validate         *validator.Validate
}

func NewIngestService(
	workspaceService IWorkspaceService,
	fileCacheService IFileCacheService,
	storage objstore.Client,
	downloader *fetch.Downloader,
	parser fileparse.Parser,
	eventPublisher *pktNats.Publisher,
) IIngestService {
	return &ingestService{
		workspaceService: workspaceService,
		fileCacheService: fileCacheService,
		storage:          storage,
		downloader:       downloader,
		parser:           parser,
		eventPublisher:   eventPublisher,
		validate:         validator.New(),
	}
}

// resolvedFile is the fan-out result for one descriptor: either resolved
// bytes plus their hash, or the error that stopped it.
type resolvedFile struct {
	name    string
	ext     string
	fileKey string
	url     string
	size    int64
	data    []byte
	hash    string
	err     error
}

func (c *ingestService) UploadFiles(ctx context.Context, req *dto.IngestFilesRequest) (*dto.IngestFilesResponse, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}

	batchId := uuid.NewString()
	ctx, span := otel.Tracer("ingest").Start(ctx, "ingest.upload_files")
	span.SetAttributes(
		attribute.String("batch.id", batchId),
		attribute.Int("batch.files", len(req.Files)),
	)
	defer span.End()

	// Phase 1: resolve and hash every file concurrently. Failures stay in
	// their slot; a bad file must not sink its siblings.
	slots := make([]resolvedFile, len(req.Files))
	g, gctx := errgroup.WithContext(ctx)
	for i, file := range req.Files {
		i, file := i, file
		g.Go(func() error {
			slots[i] = c.resolveFile(gctx, file, req.PreloadedContent)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Phase 2: group by content hash so identical payloads are parsed once.
	failed := make([]dto.IngestFileError, 0)
	hashOrder := make([]string, 0, len(slots))
	byHash := make(map[string][]int)
	for i, slot := range slots {
		if slot.err != nil {
			failed = append(failed, dto.IngestFileError{FileName: slot.name, Error: slot.err.Error()})
			continue
		}
		if _, seen := byHash[slot.hash]; !seen {
			hashOrder = append(hashOrder, slot.hash)
		}
		byHash[slot.hash] = append(byHash[slot.hash], i)
	}

	uploads := make([]dto.ParsedUpload, 0, len(slots))
	for _, hash := range hashOrder {
		group := byHash[hash]
		first := slots[group[0]]

		var text, method, model string
		var durationMs int64
		fromCache := false

		cached, err := c.fileCacheService.GetCachedFile(ctx, hash)
		if err != nil {
			log.Printf("[WARN] Parse cache lookup failed for %s: %v", hash, err)
		}
		if cached != nil {
			text = cached.Content
			method = cached.ParseMethod
			model = cached.ParseModel
			durationMs = cached.ParseDuration
			fromCache = true
		} else {
			start := time.Now()
			res, err := c.parser.Parse(ctx, first.data, first.name, first.ext)
			if err != nil {
				for _, idx := range group {
					failed = append(failed, dto.IngestFileError{
						FileName: slots[idx].name,
						Error:    fmt.Sprintf("parse failed: %v", err),
					})
				}
				continue
			}
			text = res.Text
			method = res.Method
			model = res.Model
			durationMs = time.Since(start).Milliseconds()
		}

		for n, idx := range group {
			slot := slots[idx]
			// Every file referencing this content bumps the cache row: a
			// fresh parse saves for each file, a hit saves for each file
			// beyond the one the lookup already counted.
			if !fromCache || n > 0 {
				saveReq := &dto.SaveCachedFileRequest{
					ContentHash:   hash,
					Content:       text,
					FileType:      fileparse.TypeLabel(slot.ext),
					FileExtension: slot.ext,
					OriginalSize:  slot.size,
					ParseMethod:   method,
					ParseModel:    model,
					ParseDuration: durationMs,
					SourceKey:     slot.fileKey,
				}
				if err := c.fileCacheService.SaveCachedFile(ctx, saveReq); err != nil {
					log.Printf("[WARN] Failed to save parse cache for %s: %v", hash, err)
				}
			}

			uploads = append(uploads, dto.ParsedUpload{
				Path:          path.Join(ingestDir, sanitize.Filename(slot.name)),
				Text:          sanitize.Text(text),
				FileKey:       slot.fileKey,
				Url:           slot.url,
				ContentHash:   hash,
				FileType:      fileparse.TypeLabel(slot.ext),
				FileExtension: slot.ext,
				Metadata: map[string]interface{}{
					"original_size":     slot.size,
					"parse_method":      method,
					"parse_model":       model,
					"parse_duration_ms": durationMs,
					"from_cache":        fromCache,
					"ingested_at":       time.Now().UTC().Format(time.RFC3339),
				},
			})
		}
	}

	// Phase 3: one batch upload for everything that survived.
	uploadedPaths := make([]string, 0, len(uploads))
	uploadedNames := make([]string, 0, len(uploads))
	if len(uploads) > 0 {
		workspace := c.workspaceService.Workspace(req.SessionId, req.UserId)
		responses, err := workspace.UploadParsed(ctx, uploads)
		if err != nil {
			return nil, err
		}
		for i, resp := range responses {
			if resp.Error != "" {
				failed = append(failed, dto.IngestFileError{FileName: uploads[i].Path, Error: resp.Error})
				continue
			}
			uploadedPaths = append(uploadedPaths, resp.Path)
			uploadedNames = append(uploadedNames, path.Base(resp.Path))
		}
	}

	span.SetAttributes(
		attribute.Int("batch.uploaded", len(uploadedPaths)),
		attribute.Int("batch.failed", len(failed)),
	)

	if c.eventPublisher != nil && len(uploadedPaths) > 0 {
		evt := events.BaseEvent{
			Type: events.TypeFilesIngested,
			Data: map[string]interface{}{
				"batch_id":   batchId,
				"session_id": req.SessionId,
				"user_id":    req.UserId,
				"paths":      uploadedPaths,
				"failed":     len(failed),
			},
			OccurredAt: time.Now(),
		}
		// Notification is auxiliary, the upload already happened.
		if err := c.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish %s event: %v", events.TypeFilesIngested, err)
		}
	}

	return &dto.IngestFilesResponse{
		UploadedPaths: uploadedPaths,
		Message:       uploadSummary(uploadedNames, uploadedPaths),
		Failed:        failed,
	}, nil
}

func (c *ingestService) resolveFile(ctx context.Context, file dto.InboundFile, preloaded map[string][]byte) resolvedFile {
	name := file.FileName
	if name == "" && file.FileKey != "" {
		name = path.Base(file.FileKey)
	}
	if name == "" || name == "." || name == "/" {
		name = "unknown_file"
	}

	slot := resolvedFile{
		name:    name,
		ext:     fileparse.ExtensionOf(name),
		fileKey: file.FileKey,
		url:     file.Url,
	}

	var data []byte
	switch {
	case file.FileKey != "" && preloaded[file.FileKey] != nil:
		data = preloaded[file.FileKey]
	case preloaded[name] != nil:
		data = preloaded[name]
	case file.FileKey != "":
		fetched, err := c.storage.Get(ctx, file.FileKey)
		if err != nil && file.Url != "" {
			fetched, err = c.downloader.Download(ctx, file.Url)
		}
		if err != nil {
			slot.err = err
			return slot
		}
		data = fetched
	case file.Url != "":
		fetched, err := c.downloader.Download(ctx, file.Url)
		if err != nil {
			slot.err = err
			return slot
		}
		data = fetched
	default:
		slot.err = fmt.Errorf("no content available for %s", name)
		return slot
	}

	if len(data) == 0 {
		slot.err = fmt.Errorf("empty content for %s", name)
		return slot
	}

	slot.data = data
	slot.size = int64(len(data))
	slot.hash = utils.ContentHash(data)
	return slot
}

func uploadSummary(names, paths []string) string {
	if len(paths) == 0 {
		return "No files were uploaded"
	}
	if len(paths) == 1 {
		return fmt.Sprintf("📎 Uploaded: %s → %s\n\nUse read_file(%q) to read the file", names[0], paths[0], paths[0])
	}

	items := make([]string, 0, len(paths))
	for i := range paths {
		items = append(items, fmt.Sprintf("%d. %s → %s", i+1, names[i], paths[i]))
	}
	return fmt.Sprintf("📎 Uploaded %d files:\n%s\n\nExample: read_file(%q)", len(paths), strings.Join(items, "\n"), paths[0])
}
