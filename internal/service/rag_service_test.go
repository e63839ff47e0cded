package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laptoprag/internal/conversation"
	"laptoprag/internal/domain"
	"laptoprag/internal/embedding/tfidf"
	"laptoprag/internal/generator"
	"laptoprag/internal/retrieval"
	"laptoprag/internal/vectorstore/memory"
)

type fakeLLM struct {
	answer string
	err    error
	humans []string
}

func (f *fakeLLM) Complete(_ context.Context, _, human string, _ int) (string, error) {
	f.humans = append(f.humans, human)
	return f.answer, f.err
}

type staticCatalog []domain.Metadata

func (c staticCatalog) Listings(context.Context) ([]domain.Metadata, error) {
	out := make([]domain.Metadata, len(c))
	copy(out, c)
	return out, nil
}

type failingEmbedder struct{ domain.Embedder }

func (failingEmbedder) Embed(context.Context, string) ([]float64, error) {
	return nil, errors.New("upstream down")
}

type recordingPublisher struct {
	events []string
	err    error
}

func (p *recordingPublisher) Publish(event string, _ any) error {
	p.events = append(p.events, event)
	return p.err
}

var testCatalog = staticCatalog{
	{NameAR: "لينوفو ليجن", NameEN: "Lenovo Legion gaming RTX", Price: 52000, Quantity: 0, InStock: domain.OutOfStock, AdditionalFeatures: "RTX 4060 gaming"},
	{NameAR: "اتش بي فيكتوس", NameEN: "HP Victus gaming", Price: 41000, Quantity: 2, InStock: domain.InStock, AdditionalFeatures: "RTX 3050 gaming"},
	{NameAR: "ديل لاتيتيود", NameEN: "Dell Latitude office", Price: 30000, Quantity: 5, InStock: domain.InStock, AdditionalFeatures: "business"},
}

type fixture struct {
	svc     *RAGServiceImpl
	llm     *fakeLLM
	store   *conversation.Store
	index   *memory.Storage
	pub     *recordingPublisher
	catalog staticCatalog
}

func newFixture(t *testing.T, embedder domain.Embedder) *fixture {
	t.Helper()
	f := &fixture{
		llm:     &fakeLLM{answer: "عندنا HP Victus متوفر"},
		store:   conversation.NewStore(10),
		index:   memory.NewStorage(),
		pub:     &recordingPublisher{},
		catalog: testCatalog,
	}
	if embedder == nil {
		embedder = tfidf.NewEmbedder()
	}
	engine := retrieval.NewEngine(embedder, f.index, retrieval.Options{TopK: 10}, nil, nil)
	gen := generator.New(f.llm, 0, nil, nil)
	f.svc = NewRAGService(engine, gen, f.store, embedder, f.index, f.catalog, f.pub, Options{}, nil)
	return f
}

func TestChat_Success(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, ChatRequest{UserPrompt: "عايز Lenovo Legion gaming RTX", SessionID: "s1"})
	require.NoError(t, err)

	assert.Equal(t, "عايز Lenovo Legion gaming RTX", resp.Question)
	assert.Equal(t, "عندنا HP Victus متوفر", resp.Results)
	require.NotEmpty(t, resp.Documents)
	for _, d := range resp.Documents {
		assert.NotEqual(t, "Lenovo Legion gaming RTX", d.Metadata.NameEN, "out-of-stock nearest neighbor leaked")
	}
	assert.Equal(t, "HP Victus gaming", resp.Documents[0].Metadata.NameEN)

	require.Len(t, resp.History, 2)
	assert.Equal(t, domain.Turn{Role: domain.RoleUser, Content: "عايز Lenovo Legion gaming RTX"}, resp.History[0])
	assert.Equal(t, domain.RoleAssistant, resp.History[1].Role)
	assert.Equal(t, resp.History, f.store.Get("s1"))
	assert.Contains(t, f.pub.events, "chat.answered")
}

func TestChat_SecondTurnSeesHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)

	_, err = f.svc.Chat(ctx, ChatRequest{UserPrompt: "gaming", SessionID: "s1"})
	require.NoError(t, err)
	resp, err := f.svc.Chat(ctx, ChatRequest{UserPrompt: "ارخص حاجة", SessionID: "s1"})
	require.NoError(t, err)

	assert.Len(t, resp.History, 4)
	require.Len(t, f.llm.humans, 2)
	assert.Contains(t, f.llm.humans[1], "user: gaming\nassistant: عندنا HP Victus متوفر")
	assert.Empty(t, f.store.Get("other"))
}

func TestChat_EmbeddingFailureLeavesHistory(t *testing.T) {
	f := newFixture(t, failingEmbedder{tfidf.NewEmbedder()})
	f.store.Append("s1", domain.Turn{Role: domain.RoleUser, Content: "قبل"})
	before := f.store.Get("s1")

	resp, err := f.svc.Chat(context.Background(), ChatRequest{UserPrompt: "hi", SessionID: "s1"})
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, before, f.store.Get("s1"))
	assert.Empty(t, f.llm.humans)
	assert.Empty(t, f.pub.events)
}

func TestChat_GenerationFailureLeavesHistory(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)
	f.llm.err = errors.New("quota")

	_, err = f.svc.Chat(ctx, ChatRequest{UserPrompt: "gaming", SessionID: "s1"})
	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.Empty(t, f.store.Get("s1"))
}

func TestChat_InvalidRequest(t *testing.T) {
	f := newFixture(t, nil)
	for _, req := range []ChatRequest{
		{UserPrompt: "  ", SessionID: "s"},
		{UserPrompt: "hi"},
	} {
		_, err := f.svc.Chat(context.Background(), req)
		assert.ErrorIs(t, err, domain.ErrRequestParse)
	}
}

func TestChat_EmptyIndexStillAnswers(t *testing.T) {
	f := newFixture(t, nil)
	// Prepare without seeding so the index stays empty.
	require.NoError(t, f.svc.embedder.Prepare([]string{"hp victus"}))

	resp, err := f.svc.Chat(context.Background(), ChatRequest{UserPrompt: "hp", SessionID: "s"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Documents)
	assert.Empty(t, resp.Documents)
}

func TestChat_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)
	f.pub.err = errors.New("nats down")

	_, err = f.svc.Chat(ctx, ChatRequest{UserPrompt: "gaming", SessionID: "s"})
	assert.NoError(t, err)
}

func TestChat_UnknownTermsReturnNoDocuments(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, ChatRequest{UserPrompt: "zzzqqq", SessionID: "s"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Documents)
	assert.Empty(t, resp.Documents)
	require.Len(t, f.llm.humans, 1)
	assert.Contains(t, f.llm.humans[0], "السياق: \n")
}

func TestChat_MessageKeptVerbatim(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.svc.Seed(ctx)
	require.NoError(t, err)

	resp, err := f.svc.Chat(ctx, ChatRequest{UserPrompt: "  gaming laptop  ", SessionID: "s"})
	require.NoError(t, err)
	assert.Equal(t, "  gaming laptop  ", resp.Question)
	assert.Equal(t, "  gaming laptop  ", resp.History[0].Content)
	assert.Contains(t, f.llm.humans[0], "سؤال العميل الحالي:   gaming laptop  \n")
}
