// FILE: internal/service/workspace_service.go
package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/memory"
	"github.com/thetahealth/mirobody-sub003/pkg/fetch"
	"github.com/thetahealth/mirobody-sub003/pkg/fileparse"
	"github.com/thetahealth/mirobody-sub003/pkg/objstore"
	"github.com/thetahealth/mirobody-sub003/pkg/sanitize"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// WorkspaceDomain is the namespace domain segment under which session file
// records live.
const WorkspaceDomain = "files"

const (
	// defaultReadLimit caps how many lines a read returns when the caller
	// passes no limit; maxReadLineChars truncates individual lines.
	defaultReadLimit  = 2000
	maxReadLineChars  = 2000
	defaultUploadsDir = "/workspace/global_files"
)

type IWorkspaceService interface {
	// Workspace returns the per-session facade. Callers create one instance
	// per request context; the core assumes a single logical writer per
	// (session, user) and does not serialize concurrent edits itself.
	Workspace(sessionId, userId string) IWorkspace
}

// IWorkspace is the flat virtual file system of one session. Paths are
// plain keys; directories exist only as path prefixes.
type IWorkspace interface {
	List(ctx context.Context, pathPrefix string) ([]*dto.FileInfo, error)
	// Read returns formatted numbered lines, downloading and parsing lazily.
	// Missing files and failed downloads come back as diagnostic strings, not
	// errors, so the caller always has something to show for a path.
	Read(ctx context.Context, filePath string, offset, limit int) (string, error)
	// Write is creation-only: an existing record is a conflict, never an
	// implicit overwrite.
	Write(ctx context.Context, filePath, text string) (*dto.WriteResult, error)
	Edit(ctx context.Context, filePath, oldStr, newStr string, replaceAll bool) (*dto.EditResult, error)
	Glob(ctx context.Context, pattern, pathPrefix string) ([]*dto.FileInfo, error)
	// Grep never downloads or parses: unmaterialized records are skipped.
	Grep(ctx context.Context, pattern, pathPrefix, globPattern string) *dto.GrepResult
	UploadBinary(ctx context.Context, uploads []dto.FileUpload) ([]*dto.FileUploadResponse, error)
	UploadParsed(ctx context.Context, uploads []dto.ParsedUpload) ([]*dto.FileUploadResponse, error)
	Download(ctx context.Context, paths []string) ([]*dto.FileDownloadResponse, error)
	// AddReference records a not-yet-downloaded binary source under dir and
	// returns the collision-free path it was given.
	AddReference(ctx context.Context, dir, fileKey, url string) (*dto.AddReferenceResult, error)
	Stats(ctx context.Context) (*dto.WorkspaceStatsResponse, error)
	Purge(ctx context.Context) (int64, error)
}

type workspaceService struct {
	store      IStoreService
	fileCache  IFileCacheService
	records    *memory.RecordCache
	storage    objstore.Client
	downloader *fetch.Downloader
	parser     fileparse.Parser
}

func NewWorkspaceService(
	store IStoreService,
	fileCache IFileCacheService,
	records *memory.RecordCache,
	storage objstore.Client,
	downloader *fetch.Downloader,
	parser fileparse.Parser,
) IWorkspaceService {
	return &workspaceService{
		store:      store,
		fileCache:  fileCache,
		records:    records,
		storage:    storage,
		downloader: downloader,
		parser:     parser,
	}
}

func (c *workspaceService) Workspace(sessionId, userId string) IWorkspace {
	return &sessionWorkspace{
		workspaceService: c,
		namespace:        entity.NewNamespace(WorkspaceDomain, sessionId, userId),
		sessionId:        sessionId,
		userId:           userId,
	}
}

type sessionWorkspace struct {
	*workspaceService
	namespace entity.Namespace
	sessionId string
	userId    string
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// getRecord consults the hot cache before the store. The cache is a pure
// memoization layer; treating it as empty is always correct.
func (w *sessionWorkspace) getRecord(ctx context.Context, filePath string) (*entity.FileRecord, error) {
	if rec, ok := w.records.Get(w.namespace, filePath); ok {
		return rec, nil
	}

	item, err := w.store.Get(ctx, w.namespace, filePath)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	rec, err := entity.FileRecordFromValue(item.Value)
	if err != nil {
		return nil, err
	}
	w.records.Set(w.namespace, filePath, rec)
	return rec, nil
}

func (w *sessionWorkspace) putRecord(ctx context.Context, filePath string, rec *entity.FileRecord) error {
	value, err := rec.ToValue()
	if err != nil {
		return err
	}
	if err := w.store.Put(ctx, w.namespace, filePath, value); err != nil {
		// Never leave a stale success entry behind a failed write.
		w.records.Delete(w.namespace, filePath)
		return err
	}
	w.records.Set(w.namespace, filePath, rec)
	return nil
}

func (w *sessionWorkspace) listRecords(ctx context.Context, pathPrefix string) ([]string, []*entity.FileRecord, error) {
	items, err := w.store.List(ctx, w.namespace, pathPrefix)
	if err != nil {
		return nil, nil, err
	}

	paths := make([]string, 0, len(items))
	records := make([]*entity.FileRecord, 0, len(items))
	for _, item := range items {
		rec, err := entity.FileRecordFromValue(item.Value)
		if err != nil {
			continue
		}
		paths = append(paths, item.Key)
		records = append(records, rec)
	}
	return paths, records, nil
}

func (w *sessionWorkspace) List(ctx context.Context, pathPrefix string) ([]*dto.FileInfo, error) {
	paths, records, err := w.listRecords(ctx, pathPrefix)
	if err != nil {
		return nil, err
	}

	infos := make([]*dto.FileInfo, 0, len(paths))
	for i, p := range paths {
		infos = append(infos, &dto.FileInfo{
			Path:       p,
			IsDir:      false,
			Size:       len(records[i].Content),
			ModifiedAt: records[i].ModifiedAt,
		})
	}
	return infos, nil
}

func (w *sessionWorkspace) Read(ctx context.Context, filePath string, offset, limit int) (string, error) {
	rec, err := w.getRecord(ctx, filePath)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return fmt.Sprintf("Error: File '%s' not found", filePath), nil
	}

	if rec.State() == entity.RecordStateReference {
		if err := w.materializeRaw(ctx, filePath, rec); err != nil {
			return fmt.Sprintf("Error: Failed to download '%s'", filePath), nil
		}
	}
	if rec.State() == entity.RecordStateUnparsed {
		if err := w.ensureParsed(ctx, filePath, rec); err != nil {
			return "", err
		}
	}

	return formatContent(rec.Content, offset, limit), nil
}

// materializeRaw pulls a referenced binary into the record, storage key
// first and URL second. The record stays a reference on failure.
func (w *sessionWorkspace) materializeRaw(ctx context.Context, filePath string, rec *entity.FileRecord) error {
	var data []byte
	var source string
	var err error

	switch {
	case rec.FileKey != "":
		data, err = w.storage.Get(ctx, rec.FileKey)
		source = "file_key"
		if err != nil && rec.Url != "" {
			data, err = w.downloader.Download(ctx, rec.Url)
			source = "url"
		}
	case rec.Url != "":
		data, err = w.downloader.Download(ctx, rec.Url)
		source = "url"
	default:
		return fmt.Errorf("record %s has no file_key or url to download", filePath)
	}
	if err != nil {
		return err
	}

	rec.RawContent = base64.StdEncoding.EncodeToString(data)
	rec.ContentHash = utils.ContentHash(data)
	rec.IsReference = false
	rec.ModifiedAt = nowStamp()
	rec.SetMeta("download_source", source)
	rec.SetMeta("downloaded_at", rec.ModifiedAt)
	rec.SetMeta("size_bytes", len(data))
	return w.putRecord(ctx, filePath, rec)
}

// ensureParsed turns inline binary into text lines, consulting the global
// parse cache before doing a real parse. Parse failures become a labeled
// error blob so the path stays readable.
func (w *sessionWorkspace) ensureParsed(ctx context.Context, filePath string, rec *entity.FileRecord) error {
	ctx, span := otel.Tracer("workspace").Start(ctx, "workspace.lazy_parse")
	span.SetAttributes(attribute.String("file.path", filePath))
	defer span.End()

	data, decodeErr := base64.StdEncoding.DecodeString(rec.RawContent)
	now := nowStamp()

	if decodeErr != nil || len(data) == 0 {
		rec.Content = []string{}
		rec.Parsed = true
		rec.ModifiedAt = now
		return w.putRecord(ctx, filePath, rec)
	}

	if rec.ContentHash == "" {
		rec.ContentHash = utils.ContentHash(data)
	}
	ext := rec.FileExtension
	if ext == "" {
		ext = fileparse.ExtensionOf(filePath)
	}

	text, method, model, fromCache, durationMs, err := w.parseContent(ctx, rec, data, filePath, ext)
	if err != nil {
		rec.Content = []string{"Error parsing file: " + err.Error()}
		rec.Parsed = true
		rec.ModifiedAt = now
		rec.SetMeta("parse_method", "error")
		return w.putRecord(ctx, filePath, rec)
	}

	rec.Content = utils.SplitLines(sanitize.Text(text))
	rec.Parsed = true
	rec.ModifiedAt = now
	if rec.FileType == "" {
		rec.FileType = fileparse.TypeLabel(ext)
	}
	if rec.FileExtension == "" {
		rec.FileExtension = ext
	}
	rec.SetMeta("parse_method", method)
	rec.SetMeta("parse_model", model)
	rec.SetMeta("from_cache", fromCache)
	if !fromCache {
		rec.SetMeta("parse_duration_ms", durationMs)
	}
	return w.putRecord(ctx, filePath, rec)
}

func (w *sessionWorkspace) parseContent(ctx context.Context, rec *entity.FileRecord, data []byte, filePath, ext string) (text, method, model string, fromCache bool, durationMs int64, err error) {
	cached, cacheErr := w.fileCache.GetCachedFile(ctx, rec.ContentHash)
	if cacheErr != nil {
		log.Printf("[WARN] Parse cache lookup failed for %s: %v", rec.ContentHash, cacheErr)
	}
	if cached != nil {
		return cached.Content, cached.ParseMethod, cached.ParseModel, true, cached.ParseDuration, nil
	}

	start := time.Now()
	res, err := w.parser.Parse(ctx, data, path.Base(filePath), ext)
	if err != nil {
		return "", "", "", false, 0, err
	}
	durationMs = time.Since(start).Milliseconds()

	saveReq := &dto.SaveCachedFileRequest{
		ContentHash:   rec.ContentHash,
		Content:       res.Text,
		FileType:      fileparse.TypeLabel(ext),
		FileExtension: ext,
		OriginalSize:  int64(len(data)),
		ParseMethod:   res.Method,
		ParseModel:    res.Model,
		ParseDuration: durationMs,
		SourceKey:     rec.FileKey,
	}
	if saveErr := w.fileCache.SaveCachedFile(ctx, saveReq); saveErr != nil {
		// The session still gets its text; only reuse is lost.
		log.Printf("[WARN] Failed to save parse cache for %s: %v", rec.ContentHash, saveErr)
	}

	return res.Text, res.Method, res.Model, false, durationMs, nil
}

func formatContent(lines []string, offset, limit int) string {
	if len(lines) == 0 {
		return "System reminder: File exists but has empty contents"
	}
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultReadLimit
	}
	if offset >= len(lines) {
		return fmt.Sprintf("Error: Line offset %d exceeds file length (%d lines)", offset, len(lines))
	}

	end := offset + limit
	if end > len(lines) {
		end = len(lines)
	}

	window := make([]string, 0, end-offset)
	for _, line := range lines[offset:end] {
		if utf8.RuneCountInString(line) > maxReadLineChars {
			line = string([]rune(line)[:maxReadLineChars])
		}
		window = append(window, line)
	}
	return utils.NumberLines(window, offset+1)
}

func (w *sessionWorkspace) Write(ctx context.Context, filePath, text string) (*dto.WriteResult, error) {
	existing, err := w.getRecord(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &dto.WriteResult{Error: writeConflictMessage(filePath)}, nil
	}

	now := nowStamp()
	ext := fileparse.ExtensionOf(filePath)
	rec := &entity.FileRecord{
		Content:       utils.SplitLines(sanitize.Text(text)),
		FileType:      fileparse.TypeLabel(ext),
		FileExtension: ext,
		Parsed:        true,
		CreatedAt:     now,
		ModifiedAt:    now,
	}

	value, err := rec.ToValue()
	if err != nil {
		return nil, err
	}
	if err := w.store.PutNew(ctx, w.namespace, filePath, value); err != nil {
		w.records.Delete(w.namespace, filePath)
		if errors.Is(err, ErrKeyExists) {
			// Lost a create race after the existence check.
			return &dto.WriteResult{Error: writeConflictMessage(filePath)}, nil
		}
		return nil, err
	}

	w.records.Set(w.namespace, filePath, rec)
	return &dto.WriteResult{Path: filePath}, nil
}

func writeConflictMessage(filePath string) string {
	return fmt.Sprintf("Cannot write to %s because it already exists. Read and then make an edit, or write to a new path.", filePath)
}

func (w *sessionWorkspace) Edit(ctx context.Context, filePath, oldStr, newStr string, replaceAll bool) (*dto.EditResult, error) {
	rec, err := w.getRecord(ctx, filePath)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return &dto.EditResult{Error: fmt.Sprintf("Error: File '%s' not found", filePath)}, nil
	}
	if rec.State() != entity.RecordStateParsed {
		return &dto.EditResult{Error: fmt.Sprintf("Error: File '%s' not loaded. Read it first to cache content.", filePath)}, nil
	}
	if len(rec.Content) == 0 {
		return &dto.EditResult{Error: fmt.Sprintf("Error: File '%s' has no content to edit", filePath)}, nil
	}

	content := utils.JoinLines(rec.Content)
	occurrences := strings.Count(content, oldStr)
	if occurrences == 0 {
		return &dto.EditResult{Error: fmt.Sprintf("Error: String not found in file: '%s'", oldStr)}, nil
	}
	if occurrences > 1 && !replaceAll {
		return &dto.EditResult{Error: fmt.Sprintf(
			"Error: String '%s' appears %d times in file. Use replace_all=True to replace all instances, or provide a more specific string with surrounding context.",
			oldStr, occurrences)}, nil
	}

	replaced := occurrences
	var edited string
	if replaceAll {
		edited = strings.ReplaceAll(content, oldStr, newStr)
	} else {
		edited = strings.Replace(content, oldStr, newStr, 1)
		replaced = 1
	}

	rec.Content = utils.SplitLines(sanitize.Text(edited))
	// The binary payload no longer corresponds to the text.
	rec.RawContent = ""
	rec.ContentHash = ""
	rec.ModifiedAt = nowStamp()
	rec.SetMeta("last_edited_at", rec.ModifiedAt)

	if err := w.putRecord(ctx, filePath, rec); err != nil {
		return nil, err
	}
	return &dto.EditResult{Path: filePath, Occurrences: replaced}, nil
}

func (w *sessionWorkspace) Glob(ctx context.Context, pattern, pathPrefix string) ([]*dto.FileInfo, error) {
	infos, err := w.List(ctx, pathPrefix)
	if err != nil {
		return nil, err
	}

	matched := make([]*dto.FileInfo, 0, len(infos))
	for _, info := range infos {
		if globMatch(pattern, info.Path) {
			matched = append(matched, info)
		}
	}
	return matched, nil
}

// globMatch tests the final path segment against a shell-style pattern,
// case-sensitively. A malformed pattern matches nothing.
func globMatch(pattern, filePath string) bool {
	ok, err := path.Match(pattern, path.Base(filePath))
	return err == nil && ok
}

func (w *sessionWorkspace) Grep(ctx context.Context, pattern, pathPrefix, globPattern string) *dto.GrepResult {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return &dto.GrepResult{Error: fmt.Sprintf("Invalid regex pattern: %v", err)}
	}

	paths, records, err := w.listRecords(ctx, pathPrefix)
	if err != nil {
		return &dto.GrepResult{Error: fmt.Sprintf("Error during search: %v", err)}
	}

	matches := make([]dto.GrepMatch, 0)
	for i, p := range paths {
		rec := records[i]
		// Only materialized text is searched; references stay untouched.
		if rec.State() != entity.RecordStateParsed {
			continue
		}
		if globPattern != "" && !globMatch(globPattern, p) {
			continue
		}
		for n, line := range rec.Content {
			if re.MatchString(line) {
				matches = append(matches, dto.GrepMatch{Path: p, Line: n + 1, Text: line})
			}
		}
	}
	return &dto.GrepResult{Matches: matches}
}

func (w *sessionWorkspace) UploadBinary(ctx context.Context, uploads []dto.FileUpload) ([]*dto.FileUploadResponse, error) {
	responses := make([]*dto.FileUploadResponse, 0, len(uploads))
	for _, upload := range uploads {
		resp := &dto.FileUploadResponse{Path: upload.Path}
		if upload.Path == "" || !strings.HasPrefix(upload.Path, "/") {
			resp.Error = "invalid_path"
			responses = append(responses, resp)
			continue
		}

		now := nowStamp()
		ext := fileparse.ExtensionOf(upload.Path)
		rec := &entity.FileRecord{
			RawContent:    base64.StdEncoding.EncodeToString(upload.Data),
			ContentHash:   utils.ContentHash(upload.Data),
			FileType:      fileparse.TypeLabel(ext),
			FileExtension: ext,
			Parsed:        false,
			CreatedAt:     now,
			ModifiedAt:    now,
		}
		if err := w.putRecord(ctx, upload.Path, rec); err != nil {
			resp.Error = err.Error()
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (w *sessionWorkspace) UploadParsed(ctx context.Context, uploads []dto.ParsedUpload) ([]*dto.FileUploadResponse, error) {
	responses := make([]*dto.FileUploadResponse, 0, len(uploads))
	for _, upload := range uploads {
		resp := &dto.FileUploadResponse{Path: upload.Path}
		if upload.Path == "" || !strings.HasPrefix(upload.Path, "/") {
			resp.Error = "invalid_path"
			responses = append(responses, resp)
			continue
		}

		now := nowStamp()
		ext := upload.FileExtension
		if ext == "" {
			ext = fileparse.ExtensionOf(upload.Path)
		}
		fileType := upload.FileType
		if fileType == "" {
			fileType = fileparse.TypeLabel(ext)
		}
		rec := &entity.FileRecord{
			Content:       utils.SplitLines(sanitize.Text(upload.Text)),
			FileKey:       upload.FileKey,
			Url:           upload.Url,
			ContentHash:   upload.ContentHash,
			FileType:      fileType,
			FileExtension: ext,
			Parsed:        true,
			CreatedAt:     now,
			ModifiedAt:    now,
			Metadata:      upload.Metadata,
		}
		if err := w.putRecord(ctx, upload.Path, rec); err != nil {
			resp.Error = err.Error()
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (w *sessionWorkspace) Download(ctx context.Context, paths []string) ([]*dto.FileDownloadResponse, error) {
	responses := make([]*dto.FileDownloadResponse, 0, len(paths))
	for _, p := range paths {
		resp := &dto.FileDownloadResponse{Path: p}

		rec, err := w.getRecord(ctx, p)
		if err != nil {
			resp.Error = err.Error()
			responses = append(responses, resp)
			continue
		}
		if rec == nil {
			resp.Error = fmt.Sprintf("Error: File '%s' not found", p)
			responses = append(responses, resp)
			continue
		}

		if rec.State() == entity.RecordStateReference {
			if err := w.materializeRaw(ctx, p, rec); err != nil {
				resp.Error = fmt.Sprintf("Error: Failed to download '%s'", p)
				responses = append(responses, resp)
				continue
			}
		}

		switch {
		case rec.RawContent != "":
			data, err := base64.StdEncoding.DecodeString(rec.RawContent)
			if err != nil {
				resp.Error = fmt.Sprintf("Error: %v", err)
			} else {
				resp.Content = data
			}
		case len(rec.Content) > 0:
			resp.Content = []byte(utils.JoinLines(rec.Content))
		default:
			resp.Content = []byte{}
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

func (w *sessionWorkspace) AddReference(ctx context.Context, dir, fileKey, url string) (*dto.AddReferenceResult, error) {
	if fileKey == "" && url == "" {
		return nil, fmt.Errorf("reference needs a file_key or url")
	}
	if dir == "" {
		dir = defaultUploadsDir
	}
	dir = path.Clean(dir)

	name := referenceFilename(fileKey, url)
	target := path.Join(dir, name)

	existing, _, err := w.listRecords(ctx, dir+"/")
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p] = true
	}
	if taken[target] {
		locator := fileKey
		if locator == "" {
			locator = url
		}
		if len(locator) > 8 {
			locator = locator[:8]
		}
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		name = sanitize.Filename(stem + "_" + locator + ext)
		target = path.Join(dir, name)
	}

	now := nowStamp()
	source := "file_key"
	if fileKey == "" {
		source = "url"
	}
	ext := fileparse.ExtensionOf(name)
	rec := &entity.FileRecord{
		Content:       []string{},
		FileKey:       fileKey,
		Url:           url,
		FileType:      fileparse.TypeLabel(ext),
		FileExtension: ext,
		Parsed:        false,
		IsReference:   true,
		CreatedAt:     now,
		ModifiedAt:    now,
		Metadata: map[string]interface{}{
			"source":          source,
			"fetch_timestamp": now,
		},
	}
	if err := w.putRecord(ctx, target, rec); err != nil {
		return nil, err
	}

	return &dto.AddReferenceResult{Path: target, Filename: name}, nil
}

// referenceFilename derives a workspace filename from the storage key or,
// failing that, the URL path. Extension-less URL names get .html since they
// are almost always web pages.
func referenceFilename(fileKey, url string) string {
	var name string
	if fileKey != "" {
		name = path.Base(fileKey)
	} else {
		trimmed := url
		if i := strings.Index(trimmed, "?"); i >= 0 {
			trimmed = trimmed[:i]
		}
		name = path.Base(trimmed)
		if name == "." || name == "/" || name == "" {
			name = "file"
		}
		if path.Ext(name) == "" {
			name += ".html"
		}
	}
	return sanitize.Filename(name)
}

func (w *sessionWorkspace) Stats(ctx context.Context) (*dto.WorkspaceStatsResponse, error) {
	return w.store.Stats(ctx, w.sessionId, w.userId)
}

func (w *sessionWorkspace) Purge(ctx context.Context) (int64, error) {
	deleted, err := w.store.PurgeNamespace(ctx, w.namespace)
	if err != nil {
		return 0, err
	}
	w.records.FlushNamespace(w.namespace)
	return deleted, nil
}
