package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"webrag/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDocRepo implements repository.DocumentRepo in memory and records every
// status transition.
type fakeDocRepo struct {
	docs        map[string]*repository.Document
	transitions []repository.Status
	// updateErrOn makes UpdateStatus fail for one target status.
	updateErrOn repository.Status
	updateErr   error
}

func newFakeDocRepo(docs ...*repository.Document) *fakeDocRepo {
	repo := &fakeDocRepo{docs: make(map[string]*repository.Document)}
	for _, doc := range docs {
		repo.docs[doc.ID] = doc
	}
	return repo
}

func (r *fakeDocRepo) Create(ctx context.Context, url string) (*repository.Document, error) {
	panic("not used by the pipeline")
}

func (r *fakeDocRepo) GetByID(ctx context.Context, id string) (*repository.Document, error) {
	doc, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (r *fakeDocRepo) UpdateStatus(ctx context.Context, id string, status repository.Status) error {
	if r.updateErr != nil && status == r.updateErrOn {
		return r.updateErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Status = status
	doc.ErrorMessage = ""
	r.transitions = append(r.transitions, status)
	return nil
}

func (r *fakeDocRepo) MarkFailed(ctx context.Context, id string, message string) error {
	doc, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	doc.Status = repository.StatusFailed
	doc.ErrorMessage = message
	r.transitions = append(r.transitions, repository.StatusFailed)
	return nil
}

type fakeScraper struct {
	text string
	err  error
	// onFetch lets tests observe state at the moment the scrape happens.
	onFetch func()
}

func (s *fakeScraper) FetchAndExtract(ctx context.Context, url string) (string, error) {
	if s.onFetch != nil {
		s.onFetch()
	}
	return s.text, s.err
}

// fakeEmbedder derives each vector from its input text so positional
// alignment is checkable.
type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) GetEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{float32(len(text))}
	}
	return vectors, nil
}

func (e *fakeEmbedder) Dimension(ctx context.Context) (uint64, error) {
	return 1, nil
}

type fakeVectorRepo struct {
	points    []repository.ChunkPoint
	upsertErr error
}

func (v *fakeVectorRepo) EnsureCollection(ctx context.Context, dimension uint64) error {
	return nil
}

func (v *fakeVectorRepo) Upsert(ctx context.Context, points []repository.ChunkPoint) error {
	if v.upsertErr != nil {
		return v.upsertErr
	}
	v.points = append(v.points, points...)
	return nil
}

func (v *fakeVectorRepo) Search(ctx context.Context, vector []float32, limit uint64) ([]repository.ChunkMatch, error) {
	return nil, nil
}

func pendingDoc(id, url string) *repository.Document {
	return &repository.Document{ID: id, SourceURL: url, Status: repository.StatusPending}
}

func newTestPipeline(t *testing.T, docs repository.DocumentRepo, vectors repository.ChunkVectorRepo,
	scraper Scraper, embedder *fakeEmbedder) *Pipeline {
	t.Helper()
	p, err := NewPipeline(docs, vectors, scraper, embedder, 1000, 100, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestNewPipelineInvalidChunking(t *testing.T) {
	_, err := NewPipeline(newFakeDocRepo(), &fakeVectorRepo{}, &fakeScraper{}, &fakeEmbedder{},
		100, 100, zap.NewNop())
	assert.Error(t, err)
}

func TestPipelineRunSuccess(t *testing.T) {
	const docID = "doc-1"
	const url = "https://example.com/a"
	text := strings.Repeat("a", 900) + strings.Repeat("b", 150)

	docs := newFakeDocRepo(pendingDoc(docID, url))
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: text}, &fakeEmbedder{})

	err := p.Run(context.Background(), docID, url)
	require.NoError(t, err)

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusCompleted, doc.Status)
	assert.Empty(t, doc.ErrorMessage)
	assert.Equal(t, []repository.Status{repository.StatusProcessing, repository.StatusCompleted}, docs.transitions)

	// 1050 chars with size=1000, overlap=100 -> exactly 2 points.
	require.Len(t, vectors.points, 2)
	seenIDs := make(map[string]struct{})
	for _, point := range vectors.points {
		assert.Equal(t, docID, point.DocumentID)
		assert.Equal(t, url, point.URL)
		require.Len(t, point.Vector, 1)
		assert.Equal(t, float32(len(point.Text)), point.Vector[0], "vector must align with its chunk text")
		seenIDs[point.ID] = struct{}{}
	}
	assert.Len(t, seenIDs, 2, "point ids must be unique")
	assert.Equal(t, text[0:1000], vectors.points[0].Text)
	assert.Equal(t, text[900:1050], vectors.points[1].Text)
}

func TestPipelineRunManyChunksAlignment(t *testing.T) {
	const docID = "doc-batches"
	// Long enough to span several embed batches.
	text := strings.Repeat("w", 100*900+500)

	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/long"))
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: text}, &fakeEmbedder{})

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/long"))

	chunks, err := Chunk(text, 1000, 100)
	require.NoError(t, err)
	require.Len(t, vectors.points, len(chunks))
	for i, point := range vectors.points {
		assert.Equal(t, chunks[i], point.Text)
		assert.Equal(t, float32(len(chunks[i])), point.Vector[0])
	}
}

func TestPipelineRunScrapeFailure(t *testing.T) {
	const docID = "doc-2"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/b"))
	vectors := &fakeVectorRepo{}
	scraper := &fakeScraper{err: errors.New("connection refused")}
	p := newTestPipeline(t, docs, vectors, scraper, &fakeEmbedder{})

	err := p.Run(context.Background(), docID, "https://example.com/b")
	require.NoError(t, err, "failures after load are recorded, not propagated")

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "connection refused")
	assert.Contains(t, doc.ErrorMessage, "content extraction")
	assert.Empty(t, vectors.points)
}

func TestPipelineRunEmptyContent(t *testing.T) {
	const docID = "doc-3"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/c"))
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: ""}, &fakeEmbedder{})

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/c"))

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.NotEmpty(t, doc.ErrorMessage)
	assert.Empty(t, vectors.points)
}

func TestPipelineRunEmbedFailure(t *testing.T) {
	const docID = "doc-4"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/d"))
	vectors := &fakeVectorRepo{}
	embedder := &fakeEmbedder{err: errors.New("embedding service unavailable")}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: strings.Repeat("z", 1200)}, embedder)

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/d"))

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "embedding service unavailable")
	assert.Empty(t, vectors.points)
}

func TestPipelineRunUpsertFailure(t *testing.T) {
	const docID = "doc-5"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/e"))
	vectors := &fakeVectorRepo{upsertErr: errors.New("qdrant unavailable")}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: strings.Repeat("z", 1200)}, &fakeEmbedder{})

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/e"))

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "qdrant unavailable")
}

func TestPipelineRunMissingDocument(t *testing.T) {
	docs := newFakeDocRepo()
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: "whatever"}, &fakeEmbedder{})

	err := p.Run(context.Background(), "unknown", "https://example.com/f")
	require.Error(t, err, "a missing document is a precondition violation, not a status transition")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Empty(t, docs.transitions)
	assert.Empty(t, vectors.points)
}

func TestPipelineRunProcessingVisibleBeforeScrape(t *testing.T) {
	const docID = "doc-6"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/g"))
	vectors := &fakeVectorRepo{}

	var statusAtScrape repository.Status
	scraper := &fakeScraper{
		text: strings.Repeat("q", 1500),
		onFetch: func() {
			statusAtScrape = docs.docs[docID].Status
		},
	}
	p := newTestPipeline(t, docs, vectors, scraper, &fakeEmbedder{})

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/g"))
	assert.Equal(t, repository.StatusProcessing, statusAtScrape,
		"PROCESSING must be persisted before network I/O begins")
}

func TestPipelineRunProcessingPersistFailure(t *testing.T) {
	const docID = "doc-8"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/i"))
	docs.updateErrOn = repository.StatusProcessing
	docs.updateErr = errors.New("connection reset by peer")
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: strings.Repeat("q", 1500)}, &fakeEmbedder{})

	err := p.Run(context.Background(), docID, "https://example.com/i")
	require.Error(t, err)

	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "connection reset by peer")
	assert.Empty(t, vectors.points)
}

func TestPipelineRunCompletedPersistFailure(t *testing.T) {
	const docID = "doc-9"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/j"))
	docs.updateErrOn = repository.StatusCompleted
	docs.updateErr = errors.New("connection reset by peer")
	vectors := &fakeVectorRepo{}
	p := newTestPipeline(t, docs, vectors, &fakeScraper{text: strings.Repeat("q", 1500)}, &fakeEmbedder{})

	err := p.Run(context.Background(), docID, "https://example.com/j")
	require.Error(t, err)

	// The row must not stay stuck in PROCESSING with no recorded cause.
	doc := docs.docs[docID]
	assert.Equal(t, repository.StatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "connection reset by peer")
}

func TestPipelineRunSkipsTerminalDocument(t *testing.T) {
	const docID = "doc-7"
	docs := newFakeDocRepo(pendingDoc(docID, "https://example.com/h"))
	vectors := &fakeVectorRepo{}
	scraper := &fakeScraper{err: fmt.Errorf("boom")}
	p := newTestPipeline(t, docs, vectors, scraper, &fakeEmbedder{})

	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/h"))
	require.Equal(t, repository.StatusFailed, docs.docs[docID].Status)
	require.NotEmpty(t, docs.docs[docID].ErrorMessage)

	// A redelivered job must not revisit PROCESSING or touch the index once
	// the document reached a terminal state.
	scraper.err = nil
	scraper.text = strings.Repeat("q", 1500)
	require.NoError(t, p.Run(context.Background(), docID, "https://example.com/h"))
	assert.Equal(t, repository.StatusFailed, docs.docs[docID].Status)
	assert.NotEmpty(t, docs.docs[docID].ErrorMessage)
	assert.Equal(t, []repository.Status{repository.StatusProcessing, repository.StatusFailed}, docs.transitions)
	assert.Empty(t, vectors.points)
}
