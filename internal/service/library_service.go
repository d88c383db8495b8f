// FILE: internal/service/library_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/pkg/objstore"

	"github.com/redis/go-redis/v9"
)

const (
	libraryDateLayout   = "2006-01-02"
	libraryAbstractLen  = 80
	libraryListMaxLimit = 200
	libraryListCacheTTL = 60 * time.Second
)

type ILibraryService interface {
	// ListFiles pages the user's upload library, newest first, one entry per
	// distinct file_key. Query failures degrade to an empty page.
	ListFiles(ctx context.Context, req *dto.ListLibraryFilesRequest) (*dto.ListLibraryFilesResponse, error)
	// FetchByKeys pulls library files into a session workspace as
	// unmaterialized references.
	FetchByKeys(ctx context.Context, sessionId, userId string, fileKeys []string) (*dto.FetchFilesResponse, error)
	FetchByUrls(ctx context.Context, sessionId, userId string, urls []string) (*dto.FetchFilesResponse, error)
}

type libraryService struct {
	uowFactory       unitofwork.RepositoryFactory
	workspaceService IWorkspaceService
	storage          objstore.Client
	rdb              *redis.Client
}

func NewLibraryService(
	uowFactory unitofwork.RepositoryFactory,
	workspaceService IWorkspaceService,
	storage objstore.Client,
	rdb *redis.Client,
) ILibraryService {
	return &libraryService{
		uowFactory:       uowFactory,
		workspaceService: workspaceService,
		storage:          storage,
		rdb:              rdb,
	}
}

func (c *libraryService) ListFiles(ctx context.Context, req *dto.ListLibraryFilesRequest) (*dto.ListLibraryFilesResponse, error) {
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}
	limit := req.Limit
	if limit < 1 {
		limit = 1
	}
	if limit > libraryListMaxLimit {
		limit = libraryListMaxLimit
	}

	cacheKey := fmt.Sprintf("library:files:%s:%d:%d:%s:%s", req.UserId, offset, limit, req.StartDate, req.EndDate)
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var cached dto.ListLibraryFilesResponse
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		}
	}

	specs := []specification.Specification{
		specification.ByQueryUserId{UserId: req.UserId},
		specification.NotDeleted{},
	}
	if between := dateRange(req.StartDate, req.EndDate); between != nil {
		specs = append(specs, *between)
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	total, err := uow.LibraryFileRepository().CountDistinct(ctx, specs...)
	if err != nil {
		log.Printf("[ERROR] Library count failed for user %s: %v", req.UserId, err)
		return emptyLibraryPage(offset, limit), nil
	}

	rows, err := uow.LibraryFileRepository().ListDistinct(ctx,
		append(specs, specification.Pagination{Limit: limit, Offset: offset})...)
	if err != nil {
		log.Printf("[ERROR] Library listing failed for user %s: %v", req.UserId, err)
		return emptyLibraryPage(offset, limit), nil
	}

	files := make([]dto.LibraryFileInfo, 0, len(rows))
	for _, row := range rows {
		date := "Unknown"
		if row.UpdatedAt != nil {
			date = row.UpdatedAt.Format(libraryDateLayout)
		} else if !row.CreatedAt.IsZero() {
			date = row.CreatedAt.Format(libraryDateLayout)
		}
		files = append(files, dto.LibraryFileInfo{
			FileKey:  row.FileKey,
			Date:     date,
			FileType: row.FileType,
			Abstract: row.Abstract(libraryAbstractLen),
			Filename: row.FileName,
		})
	}

	resp := &dto.ListLibraryFilesResponse{
		Files:   files,
		Total:   total,
		Offset:  offset,
		Limit:   limit,
		HasMore: int64(offset+limit) < total,
	}

	if c.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := c.rdb.Set(ctx, cacheKey, data, libraryListCacheTTL).Err(); err != nil {
				log.Printf("[WARN] Failed to cache library listing: %v", err)
			}
		}
	}
	return resp, nil
}

// dateRange parses YYYY-MM-DD bounds, widening each by one day to absorb
// timezone skew. Unparseable dates drop the whole filter.
func dateRange(startDate, endDate string) *specification.UpdatedBetween {
	if startDate == "" && endDate == "" {
		return nil
	}
	between := specification.UpdatedBetween{}
	if startDate != "" {
		t, err := time.Parse(libraryDateLayout, startDate)
		if err != nil {
			return nil
		}
		start := t.AddDate(0, 0, -1)
		between.Start = &start
	}
	if endDate != "" {
		t, err := time.Parse(libraryDateLayout, endDate)
		if err != nil {
			return nil
		}
		end := t.AddDate(0, 0, 1)
		between.End = &end
	}
	return &between
}

func emptyLibraryPage(offset, limit int) *dto.ListLibraryFilesResponse {
	return &dto.ListLibraryFilesResponse{
		Files:  []dto.LibraryFileInfo{},
		Offset: offset,
		Limit:  limit,
	}
}

func (c *libraryService) FetchByKeys(ctx context.Context, sessionId, userId string, fileKeys []string) (*dto.FetchFilesResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	workspace := c.workspaceService.Workspace(sessionId, userId)

	resp := &dto.FetchFilesResponse{
		Success: []dto.FetchFileSuccess{},
		Failed:  []dto.FetchFileFailure{},
	}
	for _, fileKey := range fileKeys {
		row, err := uow.LibraryFileRepository().FindNewestByKey(ctx, fileKey)
		if err != nil {
			resp.Failed = append(resp.Failed, dto.FetchFileFailure{FileKey: fileKey, Error: err.Error()})
			continue
		}
		if row == nil {
			resp.Failed = append(resp.Failed, dto.FetchFileFailure{FileKey: fileKey, Error: "file_key not found"})
			continue
		}

		// Best-effort fallback locator for when the storage key expires.
		url, err := c.storage.SignedURL(ctx, fileKey)
		if err != nil {
			url = ""
		}

		result, err := workspace.AddReference(ctx, "", fileKey, url)
		if err != nil {
			resp.Failed = append(resp.Failed, dto.FetchFileFailure{FileKey: fileKey, Error: err.Error()})
			continue
		}
		resp.Success = append(resp.Success, dto.FetchFileSuccess{FileKey: fileKey, Path: result.Path})
	}
	return resp, nil
}

func (c *libraryService) FetchByUrls(ctx context.Context, sessionId, userId string, urls []string) (*dto.FetchFilesResponse, error) {
	workspace := c.workspaceService.Workspace(sessionId, userId)

	resp := &dto.FetchFilesResponse{
		Success: []dto.FetchFileSuccess{},
		Failed:  []dto.FetchFileFailure{},
	}
	for _, url := range urls {
		result, err := workspace.AddReference(ctx, "", "", url)
		if err != nil {
			resp.Failed = append(resp.Failed, dto.FetchFileFailure{Url: url, Error: err.Error()})
			continue
		}
		resp.Success = append(resp.Success, dto.FetchFileSuccess{Url: url, Path: result.Path})
	}
	return resp, nil
}
