package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"
	"github.com/thetahealth/mirobody-sub003/internal/repository/memory"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
	"github.com/thetahealth/mirobody-sub003/internal/repository/unitofwork"
	"github.com/thetahealth/mirobody-sub003/pkg/fetch"
	"github.com/thetahealth/mirobody-sub003/pkg/fileparse"

	"gorm.io/gorm"
)

// The fakes below back the service layer with in-memory state so tests can
// drive real service logic without a database. They interpret the same
// specification structs the gorm implementations translate to SQL.

type fakeWorkspaceItemRepository struct {
	mu    sync.Mutex
	items map[string]*entity.WorkspaceItem
	finds int
}

func newFakeWorkspaceItemRepository() *fakeWorkspaceItemRepository {
	return &fakeWorkspaceItemRepository{items: map[string]*entity.WorkspaceItem{}}
}

func itemKey(namespace, key string) string {
	return namespace + "\x00" + key
}

func copyItem(item *entity.WorkspaceItem) *entity.WorkspaceItem {
	cp := *item
	return &cp
}

func (f *fakeWorkspaceItemRepository) Create(ctx context.Context, item *entity.WorkspaceItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(item.Namespace.String(), item.Key)
	if _, exists := f.items[k]; exists {
		return gorm.ErrDuplicatedKey
	}
	f.items[k] = copyItem(item)
	return nil
}

func (f *fakeWorkspaceItemRepository) Upsert(ctx context.Context, item *entity.WorkspaceItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := itemKey(item.Namespace.String(), item.Key)
	now := time.Now()
	if existing, ok := f.items[k]; ok {
		updated := copyItem(item)
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = &now
		f.items[k] = updated
		return nil
	}
	f.items[k] = copyItem(item)
	return nil
}

func (f *fakeWorkspaceItemRepository) Delete(ctx context.Context, namespace, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, itemKey(namespace, key))
	return nil
}

func (f *fakeWorkspaceItemRepository) DeleteByNamespace(ctx context.Context, namespace string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for k, item := range f.items {
		if item.Namespace.String() == namespace {
			delete(f.items, k)
			deleted++
		}
	}
	return deleted, nil
}

func matchItem(item *entity.WorkspaceItem, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByNamespace:
		return item.Namespace.String() == s.Namespace
	case specification.ByNamespacePrefix:
		return strings.HasPrefix(item.Namespace.String(), s.Prefix)
	case specification.ByKey:
		return item.Key == s.Key
	case specification.ByKeyPrefix:
		return strings.HasPrefix(item.Key, s.Prefix)
	case specification.BySessionId:
		return item.SessionId == s.SessionId
	case specification.ByUserId:
		return item.UserId == s.UserId
	default:
		return true
	}
}

func (f *fakeWorkspaceItemRepository) findAll(specs ...specification.Specification) []*entity.WorkspaceItem {
	var result []*entity.WorkspaceItem
	for _, item := range f.items {
		keep := true
		for _, spec := range specs {
			if !matchItem(item, spec) {
				keep = false
				break
			}
		}
		if keep {
			result = append(result, copyItem(item))
		}
	}
	// Deterministic (namespace, key) order, like the SQL implementations.
	sort.Slice(result, func(i, j int) bool {
		ni, nj := result[i].Namespace.String(), result[j].Namespace.String()
		if ni != nj {
			return ni < nj
		}
		return result[i].Key < result[j].Key
	})
	return result
}

func (f *fakeWorkspaceItemRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WorkspaceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	matches := f.findAll(specs...)
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (f *fakeWorkspaceItemRepository) findOneCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.finds
}

func (f *fakeWorkspaceItemRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WorkspaceItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.findAll(specs...), nil
}

func (f *fakeWorkspaceItemRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.findAll(specs...))), nil
}

func (f *fakeWorkspaceItemRepository) ListNamespaces(ctx context.Context, prefix string, limit, offset int) ([]entity.Namespace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	var names []string
	for _, item := range f.items {
		ns := item.Namespace.String()
		if prefix != "" && !strings.HasPrefix(ns, prefix) {
			continue
		}
		if !seen[ns] {
			seen[ns] = true
			names = append(names, ns)
		}
	}
	sort.Strings(names)
	if offset > len(names) {
		offset = len(names)
	}
	names = names[offset:]
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}
	result := make([]entity.Namespace, 0, len(names))
	for _, n := range names {
		result = append(result, entity.ParseNamespace(n))
	}
	return result, nil
}

func (f *fakeWorkspaceItemRepository) Stats(ctx context.Context, sessionId, userId string) (*entity.WorkspaceStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &entity.WorkspaceStats{}
	for _, item := range f.items {
		if item.SessionId != sessionId || item.UserId != userId {
			continue
		}
		stats.FileCount++
		if parsed, _ := item.Value["parsed"].(bool); parsed {
			stats.ParsedCount++
		}
		if raw, err := json.Marshal(item.Value); err == nil {
			stats.TotalSize += int64(len(raw))
		}
	}
	return stats, nil
}

type fakeFileCacheRepository struct {
	mu   sync.Mutex
	rows map[string]*entity.CachedFile
}

func newFakeFileCacheRepository() *fakeFileCacheRepository {
	return &fakeFileCacheRepository{rows: map[string]*entity.CachedFile{}}
}

func (f *fakeFileCacheRepository) Save(ctx context.Context, cached *entity.CachedFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	if existing, ok := f.rows[cached.ContentHash]; ok {
		// Conflict path: bump the counter, leave the content alone.
		existing.ReferenceCount++
		existing.LastAccessedAt = &now
		existing.UpdatedAt = &now
		return nil
	}
	cp := *cached
	f.rows[cached.ContentHash] = &cp
	return nil
}

func (f *fakeFileCacheRepository) FindByHash(ctx context.Context, contentHash string) (*entity.CachedFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[contentHash]
	if !ok {
		return nil, nil
	}
	cp := *row
	return &cp, nil
}

func (f *fakeFileCacheRepository) Touch(ctx context.Context, contentHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[contentHash]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	row.ReferenceCount++
	row.LastAccessedAt = &now
	return nil
}

func (f *fakeFileCacheRepository) DeleteStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var deleted int64
	for hash, row := range f.rows {
		if row.LastAccessedAt != nil && row.LastAccessedAt.Before(cutoff) && row.ReferenceCount < minReferences {
			delete(f.rows, hash)
			deleted++
		}
	}
	return deleted, nil
}

func (f *fakeFileCacheRepository) CountStale(ctx context.Context, cutoff time.Time, minReferences int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, row := range f.rows {
		if row.LastAccessedAt != nil && row.LastAccessedAt.Before(cutoff) && row.ReferenceCount < minReferences {
			count++
		}
	}
	return count, nil
}

func (f *fakeFileCacheRepository) Stats(ctx context.Context) (*entity.CacheStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &entity.CacheStats{}
	for _, row := range f.rows {
		stats.EntryCount++
		stats.TotalChars += row.CharCount
	}
	return stats, nil
}

func (f *fakeFileCacheRepository) referenceCount(hash string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[hash]; ok {
		return row.ReferenceCount
	}
	return 0
}

func (f *fakeFileCacheRepository) content(hash string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[hash]; ok {
		return row.Content
	}
	return ""
}

type fakeLibraryFileRepository struct {
	mu      sync.Mutex
	rows    []*entity.LibraryFile
	listErr error
}

func matchLibraryRow(row *entity.LibraryFile, spec specification.Specification) bool {
	switch s := spec.(type) {
	case specification.ByFileKey:
		return row.FileKey == s.FileKey
	case specification.ByQueryUserId:
		return row.QueryUserId == s.UserId
	case specification.NotDeleted:
		return !row.IsDel
	case specification.UpdatedBetween:
		at := row.CreatedAt
		if row.UpdatedAt != nil {
			at = *row.UpdatedAt
		}
		if s.Start != nil && at.Before(*s.Start) {
			return false
		}
		if s.End != nil && at.After(*s.End) {
			return false
		}
		return true
	default:
		return true
	}
}

func (f *fakeLibraryFileRepository) distinct(specs ...specification.Specification) []*entity.LibraryFile {
	newest := map[string]*entity.LibraryFile{}
	for _, row := range f.rows {
		keep := true
		for _, spec := range specs {
			if _, ok := spec.(specification.Pagination); ok {
				continue
			}
			if !matchLibraryRow(row, spec) {
				keep = false
				break
			}
		}
		if !keep {
			continue
		}
		current, ok := newest[row.FileKey]
		if !ok || rowTime(row).After(rowTime(current)) {
			newest[row.FileKey] = row
		}
	}
	result := make([]*entity.LibraryFile, 0, len(newest))
	for _, row := range newest {
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		return rowTime(result[i]).After(rowTime(result[j]))
	})
	return result
}

func rowTime(row *entity.LibraryFile) time.Time {
	if row.UpdatedAt != nil {
		return *row.UpdatedAt
	}
	return row.CreatedAt
}

func (f *fakeLibraryFileRepository) FindNewestByKey(ctx context.Context, fileKey string) (*entity.LibraryFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var newest *entity.LibraryFile
	for _, row := range f.rows {
		if row.FileKey != fileKey || row.IsDel {
			continue
		}
		if newest == nil || rowTime(row).After(rowTime(newest)) {
			newest = row
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (f *fakeLibraryFileRepository) ListDistinct(ctx context.Context, specs ...specification.Specification) ([]*entity.LibraryFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	result := f.distinct(specs...)
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset > len(result) {
				result = nil
				break
			}
			result = result[p.Offset:]
			if p.Limit > 0 && p.Limit < len(result) {
				result = result[:p.Limit]
			}
		}
	}
	return result, nil
}

func (f *fakeLibraryFileRepository) CountDistinct(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.distinct(specs...))), nil
}

type fakeUnitOfWork struct {
	workspace contract.WorkspaceItemRepository
	fileCache contract.FileCacheRepository
	library   contract.LibraryFileRepository
}

func (f *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (f *fakeUnitOfWork) Commit() error                   { return nil }
func (f *fakeUnitOfWork) Rollback() error                 { return nil }

func (f *fakeUnitOfWork) WorkspaceItemRepository() contract.WorkspaceItemRepository {
	return f.workspace
}

func (f *fakeUnitOfWork) FileCacheRepository() contract.FileCacheRepository {
	return f.fileCache
}

func (f *fakeUnitOfWork) LibraryFileRepository() contract.LibraryFileRepository {
	return f.library
}

type fakeRepositoryFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeRepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return f.uow
}

// fakeObjStore counts calls so tests can assert that operations which must
// not download did not touch storage.
type fakeObjStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	getCalls  int
	signCalls int
}

func newFakeObjStore() *fakeObjStore {
	return &fakeObjStore{objects: map[string][]byte{}}
}

func (f *fakeObjStore) Get(ctx context.Context, fileKey string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	data, ok := f.objects[fileKey]
	if !ok {
		return nil, fmt.Errorf("object %s not found", fileKey)
	}
	return data, nil
}

func (f *fakeObjStore) SignedURL(ctx context.Context, fileKey string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signCalls++
	if _, ok := f.objects[fileKey]; !ok {
		return "", fmt.Errorf("object %s not found", fileKey)
	}
	return "https://signed.example/" + fileKey, nil
}

func (f *fakeObjStore) gets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls
}

// countingTransport serves canned bodies by URL and counts every request.
type countingTransport struct {
	mu        sync.Mutex
	responses map[string][]byte
	calls     int
}

func newCountingTransport() *countingTransport {
	return &countingTransport{responses: map[string][]byte{}}
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.mu.Lock()
	t.calls++
	body, ok := t.responses[req.URL.String()]
	t.mu.Unlock()

	status := http.StatusOK
	if !ok {
		status = http.StatusNotFound
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader(body)),
		Header:     http.Header{},
		Request:    req,
	}, nil
}

func (t *countingTransport) requests() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

type fakeParser struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (p *fakeParser) Parse(ctx context.Context, data []byte, filename, ext string) (*fileparse.Result, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	text := p.text
	if text == "" {
		text = "extracted text of " + filename
	}
	return &fileparse.Result{Text: text, Method: fileparse.MethodPDFLocal}, nil
}

func (p *fakeParser) parseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// serviceFixture wires real services over the in-memory fakes.
type serviceFixture struct {
	workspaceRepo *fakeWorkspaceItemRepository
	cacheRepo     *fakeFileCacheRepository
	libraryRepo   *fakeLibraryFileRepository
	objects       *fakeObjStore
	transport     *countingTransport
	parser        *fakeParser
	records       *memory.RecordCache

	store     IStoreService
	fileCache IFileCacheService
	workspace IWorkspaceService
	ingest    IIngestService
	library   ILibraryService
}

func newServiceFixture(cacheReadEnabled bool) *serviceFixture {
	fx := &serviceFixture{
		workspaceRepo: newFakeWorkspaceItemRepository(),
		cacheRepo:     newFakeFileCacheRepository(),
		libraryRepo:   &fakeLibraryFileRepository{},
		objects:       newFakeObjStore(),
		transport:     newCountingTransport(),
		parser:        &fakeParser{},
		records:       memory.NewRecordCache(5*time.Minute, 100),
	}

	factory := &fakeRepositoryFactory{uow: &fakeUnitOfWork{
		workspace: fx.workspaceRepo,
		fileCache: fx.cacheRepo,
		library:   fx.libraryRepo,
	}}
	downloader := &fetch.Downloader{Client: &http.Client{Transport: fx.transport}}

	fx.store = NewStoreService(factory)
	fx.fileCache = NewFileCacheService(factory, cacheReadEnabled)
	fx.workspace = NewWorkspaceService(fx.store, fx.fileCache, fx.records, fx.objects, downloader, fx.parser)
	fx.ingest = NewIngestService(fx.workspace, fx.fileCache, fx.objects, downloader, fx.parser, nil)
	fx.library = NewLibraryService(factory, fx.workspace, fx.objects, nil)
	return fx
}
