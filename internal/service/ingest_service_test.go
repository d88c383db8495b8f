package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/thetahealth/mirobody-sub003/internal/dto"
	"github.com/thetahealth/mirobody-sub003/pkg/utils"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func ingestRequest(files ...dto.InboundFile) *dto.IngestFilesRequest {
	return &dto.IngestFilesRequest{
		SessionId: "sess-1",
		UserId:    "user-1",
		Files:     files,
	}
}

func TestIngestSharedContentParsedOnce(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"))

	fx := newServiceFixture(true)
	ctx := context.Background()

	shared := []byte("%PDF duplicated attachment")
	unique := []byte("%PDF one of a kind")
	req := ingestRequest(
		dto.InboundFile{FileName: "a.pdf", FileKey: "k/a"},
		dto.InboundFile{FileName: "b.pdf", FileKey: "k/b"},
		dto.InboundFile{FileName: "c.pdf", FileKey: "k/c"},
	)
	req.PreloadedContent = map[string][]byte{
		"k/a": shared,
		"k/b": shared,
		"k/c": unique,
	}

	resp, err := fx.ingest.UploadFiles(ctx, req)
	if err != nil {
		t.Fatalf("UploadFiles failed: %v", err)
	}

	assert.Empty(t, resp.Failed)
	assert.Equal(t, []string{"/uploads/a.pdf", "/uploads/b.pdf", "/uploads/c.pdf"}, resp.UploadedPaths)
	assert.Equal(t, 2, fx.parser.parseCalls(), "identical payloads must share one parse")
	assert.EqualValues(t, 2, fx.cacheRepo.referenceCount(utils.ContentHash(shared)))
	assert.EqualValues(t, 1, fx.cacheRepo.referenceCount(utils.ContentHash(unique)))

	// Both copies carry the same extracted text.
	ws := fx.workspace.Workspace("sess-1", "user-1")
	for _, p := range []string{"/uploads/a.pdf", "/uploads/b.pdf"} {
		content, err := ws.Read(ctx, p, 0, 0)
		assert.NoError(t, err)
		assert.Contains(t, content, "extracted text of a.pdf")
	}
}

func TestIngestCacheHitSkipsParsing(t *testing.T) {
	fx := newServiceFixture(true)
	ctx := context.Background()

	payload := []byte("%PDF previously seen")
	hash := utils.ContentHash(payload)
	err := fx.fileCache.SaveCachedFile(ctx, &dto.SaveCachedFileRequest{
		ContentHash: hash,
		Content:     "text from an earlier session",
		ParseMethod: "pdf_local",
	})
	if err != nil {
		t.Fatalf("SaveCachedFile failed: %v", err)
	}

	req := ingestRequest(dto.InboundFile{FileName: "seen.pdf", FileKey: "k/seen"})
	req.PreloadedContent = map[string][]byte{"k/seen": payload}

	resp, err := fx.ingest.UploadFiles(ctx, req)
	assert.NoError(t, err)
	assert.Empty(t, resp.Failed)
	assert.Zero(t, fx.parser.parseCalls(), "cache hit must not parse")
	assert.EqualValues(t, 2, fx.cacheRepo.referenceCount(hash), "the hit counts as a reference")

	ws := fx.workspace.Workspace("sess-1", "user-1")
	content, _ := ws.Read(ctx, "/uploads/seen.pdf", 0, 0)
	assert.Contains(t, content, "text from an earlier session")
}

func TestIngestFailureIsolation(t *testing.T) {
	fx := newServiceFixture(true)
	ctx := context.Background()
	fx.transport.responses["https://cdn.example.com/good.pdf"] = []byte("%PDF good bytes")

	resp, err := fx.ingest.UploadFiles(ctx, ingestRequest(
		dto.InboundFile{FileName: "good.pdf", Url: "https://cdn.example.com/good.pdf"},
		dto.InboundFile{FileName: "bad.pdf", Url: "https://cdn.example.com/missing.pdf"},
	))
	if err != nil {
		t.Fatalf("UploadFiles failed: %v", err)
	}

	assert.Equal(t, []string{"/uploads/good.pdf"}, resp.UploadedPaths)
	if assert.Len(t, resp.Failed, 1) {
		assert.Equal(t, "bad.pdf", resp.Failed[0].FileName)
		assert.Contains(t, resp.Failed[0].Error, "status 404")
	}
	assert.Equal(t,
		fmt.Sprintf("📎 Uploaded: good.pdf → /uploads/good.pdf\n\nUse read_file(%q) to read the file", "/uploads/good.pdf"),
		resp.Message)
}

func TestIngestEmptyContentFails(t *testing.T) {
	fx := newServiceFixture(true)

	req := ingestRequest(dto.InboundFile{FileName: "hollow.pdf", FileKey: "k/hollow"})
	req.PreloadedContent = map[string][]byte{"k/hollow": {}}

	resp, err := fx.ingest.UploadFiles(context.Background(), req)
	assert.NoError(t, err)
	assert.Empty(t, resp.UploadedPaths)
	if assert.Len(t, resp.Failed, 1) {
		assert.Equal(t, "empty content for hollow.pdf", resp.Failed[0].Error)
	}
	assert.Equal(t, "No files were uploaded", resp.Message)
}

func TestIngestFallsBackToStorage(t *testing.T) {
	fx := newServiceFixture(true)
	ctx := context.Background()
	fx.objects.objects["bucket/direct.pdf"] = []byte("%PDF from storage")

	resp, err := fx.ingest.UploadFiles(ctx, ingestRequest(
		dto.InboundFile{FileKey: "bucket/direct.pdf"},
	))
	assert.NoError(t, err)
	assert.Equal(t, []string{"/uploads/direct.pdf"}, resp.UploadedPaths)
	assert.Equal(t, 1, fx.objects.gets())
	assert.Zero(t, fx.transport.requests())
}

func TestIngestKeyFailureFallsBackToUrl(t *testing.T) {
	fx := newServiceFixture(true)
	ctx := context.Background()
	fx.transport.responses["https://cdn.example.com/mirror.pdf"] = []byte("%PDF from the mirror")

	resp, err := fx.ingest.UploadFiles(ctx, ingestRequest(
		dto.InboundFile{FileName: "mirror.pdf", FileKey: "bucket/gone.pdf", Url: "https://cdn.example.com/mirror.pdf"},
	))
	assert.NoError(t, err)
	assert.Empty(t, resp.Failed)
	assert.Equal(t, []string{"/uploads/mirror.pdf"}, resp.UploadedPaths)
	assert.Equal(t, 1, fx.objects.gets(), "storage key is tried first")
	assert.Equal(t, 1, fx.transport.requests(), "url serves as the fallback")
}

func TestIngestPreloadedByName(t *testing.T) {
	fx := newServiceFixture(true)

	req := ingestRequest(dto.InboundFile{
		FileName: "inline.txt",
		Url:      "https://cdn.example.com/never-fetched.txt",
	})
	req.PreloadedContent = map[string][]byte{"inline.txt": []byte("inline body")}

	resp, err := fx.ingest.UploadFiles(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/uploads/inline.txt"}, resp.UploadedPaths)
	assert.Zero(t, fx.transport.requests(), "preloaded content must short-circuit downloads")
}

func TestIngestValidatesRequest(t *testing.T) {
	fx := newServiceFixture(true)

	_, err := fx.ingest.UploadFiles(context.Background(), &dto.IngestFilesRequest{
		UserId: "user-1",
		Files:  []dto.InboundFile{{FileName: "a.pdf", FileKey: "k/a"}},
	})
	assert.Error(t, err, "missing session_id must fail validation")

	_, err = fx.ingest.UploadFiles(context.Background(), &dto.IngestFilesRequest{
		SessionId: "sess-1",
		UserId:    "user-1",
	})
	assert.Error(t, err, "empty file list must fail validation")
}

func TestIngestMultiFileSummary(t *testing.T) {
	fx := newServiceFixture(true)

	req := ingestRequest(
		dto.InboundFile{FileName: "one.txt", FileKey: "k/1"},
		dto.InboundFile{FileName: "two.txt", FileKey: "k/2"},
	)
	req.PreloadedContent = map[string][]byte{
		"k/1": []byte("first"),
		"k/2": []byte("second"),
	}

	resp, err := fx.ingest.UploadFiles(context.Background(), req)
	assert.NoError(t, err)
	assert.Contains(t, resp.Message, "📎 Uploaded 2 files:")
	assert.Contains(t, resp.Message, "1. one.txt → /uploads/one.txt")
	assert.Contains(t, resp.Message, "2. two.txt → /uploads/two.txt")
	assert.Contains(t, resp.Message, fmt.Sprintf("Example: read_file(%q)", "/uploads/one.txt"))
}
