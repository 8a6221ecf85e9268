package orchestrator

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/artifact"
	"proposal-intake-be/pkg/document"
	"proposal-intake-be/pkg/lock"
	"proposal-intake-be/pkg/proposal/synthesis"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory ConversationStore.
type memStore struct {
	mu        sync.Mutex
	convs     map[uuid.UUID]*entity.Conversation
	updateErr error
	updates   int
}

func newMemStore(conv *entity.Conversation) *memStore {
	return &memStore{convs: map[uuid.UUID]*entity.Conversation{conv.Id: conv}}
}

func (s *memStore) Load(_ context.Context, id uuid.UUID) (*entity.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) UpdateMetadata(_ context.Context, id uuid.UUID, mutate func(*entity.ConversationMetadata)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	c, ok := s.convs[id]
	if !ok {
		return errors.New("not found")
	}
	mutate(&c.Metadata)
	s.updates++
	return nil
}

func (s *memStore) meta(id uuid.UUID) entity.ConversationMetadata {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs[id].Metadata
}

type fakeSynth struct {
	calls int32
	text  string
	delay time.Duration
}

func (f *fakeSynth) Synthesize(ctx context.Context, transcript []synthesis.Turn) synthesis.Draft {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return synthesis.Draft{Text: f.text}
}

type fakeRenderer struct {
	render    func(text string, w io.Writer) error
	emergency func(n document.EmergencyNotice, w io.Writer) error
	renders   int32
}

func (f *fakeRenderer) Render(text string, w io.Writer) error {
	atomic.AddInt32(&f.renders, 1)
	if f.render != nil {
		return f.render(text, w)
	}
	_, err := w.Write([]byte("%PDF-full " + text))
	return err
}

func (f *fakeRenderer) RenderEmergency(n document.EmergencyNotice, w io.Writer) error {
	if f.emergency != nil {
		return f.emergency(n, w)
	}
	_, err := w.Write([]byte("%PDF-emergency " + n.ClientName))
	return err
}

type fixture struct {
	id        uuid.UUID
	store     *memStore
	synth     *fakeSynth
	renderer  *fakeRenderer
	artifacts *artifact.FileStore
	locker    *lock.KeyedMutex
	orch      *Orchestrator
	states    []State
	statesMu  sync.Mutex
}

func newFixture(t *testing.T, meta entity.ConversationMetadata) *fixture {
	t.Helper()
	artifacts, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)

	id := uuid.New()
	conv := &entity.Conversation{
		Id:       id,
		UserId:   uuid.New(),
		Metadata: meta,
		Messages: []*entity.ConversationMessage{
			{Role: "assistant", Content: "Company?"},
			{Role: "user", Content: "Acme Dairy"},
		},
	}

	f := &fixture{
		id:        id,
		store:     newMemStore(conv),
		synth:     &fakeSynth{text: "# Proposal\nBody"},
		renderer:  &fakeRenderer{},
		artifacts: artifacts,
		locker:    lock.NewKeyedMutex(),
	}
	f.orch = New(Deps{
		Store:       f.store,
		Synthesizer: f.synth,
		Renderer:    f.renderer,
		Artifacts:   f.artifacts,
		Locker:      f.locker,
		Logger:      logger.NewNopLogger(),
	},
		WithBranding("Acme Water", "info@acme.example"),
		WithObserver(func(_ uuid.UUID, s State, _ error) {
			f.statesMu.Lock()
			f.states = append(f.states, s)
			f.statesMu.Unlock()
		}),
	)
	return f
}

func completeMeta() entity.ConversationMetadata {
	m := entity.NewConversationMetadata()
	m.ClientName = "Acme Dairy"
	m.SelectedSector = "Food & Beverage"
	m.IsComplete = true
	return m
}

func strPtr(s string) *string { return &s }

func TestGenerate_IsIdempotent(t *testing.T) {
	f := newFixture(t, completeMeta())
	ctx := context.Background()

	first, err := f.orch.Generate(ctx, f.id)
	require.NoError(t, err)
	second, err := f.orch.Generate(ctx, f.id)
	require.NoError(t, err)

	assert.Equal(t, first.ArtifactRef, second.ArtifactRef)
	assert.Equal(t, TierFull, first.Tier)
	assert.Equal(t, TierExisting, second.Tier)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.synth.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.renderer.renders))

	meta := f.store.meta(f.id)
	assert.True(t, meta.HasProposal)
	assert.True(t, meta.IsComplete)
	assert.Equal(t, first.ArtifactRef, meta.ArtifactRef())
	assert.Equal(t, "# Proposal\nBody", meta.ProposalTextValue())
	assert.NotNil(t, meta.ProposalGeneratedAt)
	assert.False(t, meta.ProposalEmergencyIssue)

	assert.Equal(t, []State{
		StateNoArtifact, StateSynthesizing, StateRendering, StateReady,
		StateNoArtifact, StateReady,
	}, f.states)
}

func TestGenerate_ReusesStoredProposalText(t *testing.T) {
	meta := completeMeta()
	meta.ProposalText = strPtr("# Stored")
	f := newFixture(t, meta)

	var rendered string
	f.renderer.render = func(text string, w io.Writer) error {
		rendered = text
		_, err := w.Write([]byte("%PDF"))
		return err
	}

	res, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, TierFull, res.Tier)
	assert.Equal(t, "# Stored", rendered)
	assert.Zero(t, atomic.LoadInt32(&f.synth.calls))
}

func TestGenerate_PersistsTextBeforeRendering(t *testing.T) {
	f := newFixture(t, completeMeta())
	var seen string
	f.renderer.render = func(text string, w io.Writer) error {
		meta := f.store.meta(f.id)
		seen = meta.ProposalTextValue()
		return errors.New("layout crashed")
	}

	_, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, "# Proposal\nBody", seen)
}

func TestGenerate_RenderFailureFallsBackToEmergency(t *testing.T) {
	tests := []struct {
		name   string
		render func(string, io.Writer) error
	}{
		{"render error", func(string, io.Writer) error {
			return document.NewRenderError(document.Internal, errors.New("degenerate table"))
		}},
		{"render panic", func(string, io.Writer) error { panic("nil font") }},
		{"zero-byte output", func(string, io.Writer) error { return nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, completeMeta())
			f.renderer.render = tt.render

			res, err := f.orch.Generate(context.Background(), f.id)

			require.NoError(t, err)
			assert.Equal(t, TierEmergency, res.Tier)
			assert.Greater(t, res.Size, int64(0))

			size, err := f.artifacts.Stat(context.Background(), res.ArtifactRef)
			require.NoError(t, err)
			assert.Greater(t, size, int64(0))

			meta := f.store.meta(f.id)
			assert.True(t, meta.HasProposal)
			assert.True(t, meta.ProposalEmergencyIssue)
			assert.Contains(t, f.states, StateFailedRecoverable)
		})
	}
}

func TestGenerate_EmergencyNoticeCarriesClientFacts(t *testing.T) {
	f := newFixture(t, completeMeta())
	f.renderer.render = func(string, io.Writer) error { return errors.New("fail") }
	var notice document.EmergencyNotice
	f.renderer.emergency = func(n document.EmergencyNotice, w io.Writer) error {
		notice = n
		_, err := w.Write([]byte("%PDF"))
		return err
	}

	_, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, "Acme Dairy", notice.ClientName)
	assert.Equal(t, "Food & Beverage", notice.Sector)
	assert.Equal(t, "Acme Water", notice.CompanyName)
	assert.Equal(t, "info@acme.example", notice.ContactLine)
	assert.False(t, notice.Date.IsZero())
}

func TestGenerate_BothTiersFail(t *testing.T) {
	f := newFixture(t, completeMeta())
	f.renderer.render = func(string, io.Writer) error { return errors.New("full failed") }
	f.renderer.emergency = func(document.EmergencyNotice, io.Writer) error { return nil }

	res, err := f.orch.Generate(context.Background(), f.id)

	assert.Nil(t, res)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrArtifactUnavailable)
	assert.Contains(t, err.Error(), "empty_output")

	meta := f.store.meta(f.id)
	assert.True(t, meta.IsComplete)
	assert.False(t, meta.HasProposal, "a zero-byte artifact must never be reported")
	assert.Nil(t, meta.ArtifactPath)
	assert.NotEmpty(t, meta.LastGenerationError)
	assert.Equal(t, "# Proposal\nBody", meta.ProposalTextValue())
}

func TestGenerate_RetryAfterTotalFailureDoesNotResynthesize(t *testing.T) {
	f := newFixture(t, completeMeta())
	f.renderer.render = func(string, io.Writer) error { return errors.New("down") }
	f.renderer.emergency = func(document.EmergencyNotice, io.Writer) error { return errors.New("down") }

	_, err := f.orch.Generate(context.Background(), f.id)
	require.ErrorIs(t, err, ErrArtifactUnavailable)

	f.renderer.render = nil
	f.renderer.emergency = nil
	res, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, TierFull, res.Tier)
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.synth.calls))
}

func TestGenerate_ExistingArtifactRepairsFlags(t *testing.T) {
	f := newFixture(t, completeMeta())
	ref, _, err := f.artifacts.Write(context.Background(), "old.pdf", func(w io.Writer) error {
		_, err := w.Write([]byte("%PDF-old"))
		return err
	})
	require.NoError(t, err)
	f.store.convs[f.id].Metadata.ArtifactPath = &ref
	f.store.convs[f.id].Metadata.HasProposal = false

	res, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, TierExisting, res.Tier)
	assert.Equal(t, ref, res.ArtifactRef)
	assert.True(t, f.store.meta(f.id).HasProposal)
	assert.Zero(t, atomic.LoadInt32(&f.synth.calls))
}

func TestGenerate_StaleArtifactIsRegenerated(t *testing.T) {
	meta := completeMeta()
	meta.HasProposal = true
	meta.ArtifactPath = strPtr("missing.pdf")
	meta.ProposalText = strPtr("# Stored")
	f := newFixture(t, meta)

	res, err := f.orch.Generate(context.Background(), f.id)

	require.NoError(t, err)
	assert.Equal(t, TierFull, res.Tier)
	assert.NotEqual(t, "missing.pdf", res.ArtifactRef)
	assert.Zero(t, atomic.LoadInt32(&f.synth.calls))
}

func TestGenerate_PersistenceErrorSurfaces(t *testing.T) {
	f := newFixture(t, completeMeta())
	f.store.updateErr = errors.New("db down")

	res, err := f.orch.Generate(context.Background(), f.id)

	assert.Nil(t, res)
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "save proposal text", pe.Op)
	assert.Zero(t, atomic.LoadInt32(&f.renderer.renders))
}

func TestGenerate_LoadFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t, completeMeta())

	_, err := f.orch.Generate(context.Background(), uuid.New())

	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
}

func TestGenerate_ConcurrentCallsSynthesizeOnce(t *testing.T) {
	f := newFixture(t, completeMeta())
	f.synth.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	results := make([]*Result, 4)
	errs := make([]error, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = f.orch.Generate(context.Background(), f.id)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].ArtifactRef, results[i].ArtifactRef)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.synth.calls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.renderer.renders))
}

func TestGenerate_SurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t, completeMeta())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := f.orch.Generate(ctx, f.id)

	require.NoError(t, err)
	assert.Equal(t, TierFull, res.Tier)
	assert.True(t, f.store.meta(f.id).HasProposal)
}

func TestGenerate_LockTimeout(t *testing.T) {
	f := newFixture(t, completeMeta())
	release, err := f.locker.Acquire(context.Background(), f.id.String())
	require.NoError(t, err)
	defer release()

	orch := New(Deps{
		Store:       f.store,
		Synthesizer: f.synth,
		Renderer:    f.renderer,
		Artifacts:   f.artifacts,
		Locker:      f.locker,
	}, WithLockWait(20*time.Millisecond))

	_, err = orch.Generate(context.Background(), f.id)

	assert.ErrorIs(t, err, ErrGenerationInProgress)
	assert.Zero(t, atomic.LoadInt32(&f.synth.calls))
}

func TestTranscript_KeepsUserAndAssistantTurns(t *testing.T) {
	turns := Transcript([]*entity.ConversationMessage{
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "hi"},
		nil,
		{Role: "assistant", Content: "hello"},
	})

	require.Len(t, turns, 2)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "hello", turns[1].Text)
}
