package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/repository/contract"
	"proposal-intake-be/internal/repository/specification"
	"proposal-intake-be/internal/repository/unitofwork"
	"proposal-intake-be/pkg/llm"
	"proposal-intake-be/pkg/proposal/orchestrator"

	"github.com/google/uuid"
)

// memDB backs the fake unit of work. Specifications are interpreted by type.
type memDB struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*entity.Conversation
	messages      []*entity.ConversationMessage
	failCreateMsg error
}

func newMemDB() *memDB {
	return &memDB{conversations: make(map[uuid.UUID]*entity.Conversation)}
}

func (db *memDB) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUoW{db: db}
}

func (db *memDB) conversation(id uuid.UUID) *entity.Conversation {
	db.mu.Lock()
	defer db.mu.Unlock()
	c, ok := db.conversations[id]
	if !ok {
		return nil
	}
	return cloneConversation(c)
}

func (db *memDB) messagesOf(id uuid.UUID) []*entity.ConversationMessage {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*entity.ConversationMessage
	for _, m := range db.messages {
		if m.ConversationId == id {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

func cloneConversation(c *entity.Conversation) *entity.Conversation {
	cp := *c
	cp.Messages = nil
	data := make(map[string]string, len(c.Metadata.CollectedData))
	for k, v := range c.Metadata.CollectedData {
		data[k] = v
	}
	cp.Metadata.CollectedData = data
	cp.Metadata.QuestionnairePath = append([]string(nil), c.Metadata.QuestionnairePath...)
	return &cp
}

type memUoW struct {
	db *memDB
}

func (u *memUoW) Begin(ctx context.Context) error { return nil }
func (u *memUoW) Commit() error                   { return nil }
func (u *memUoW) Rollback() error                 { return nil }

func (u *memUoW) ConversationRepository() contract.ConversationRepository {
	return &memConversationRepo{db: u.db}
}

func (u *memUoW) ConversationMessageRepository() contract.ConversationMessageRepository {
	return &memMessageRepo{db: u.db}
}

type memConversationRepo struct {
	db *memDB
}

func (r *memConversationRepo) Create(ctx context.Context, c *entity.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.conversations[c.Id] = cloneConversation(c)
	return nil
}

func (r *memConversationRepo) UpdateMetadata(ctx context.Context, id uuid.UUID, meta entity.ConversationMetadata) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.conversations[id]
	if !ok {
		return errors.New("record not found")
	}
	c.Metadata = meta
	r.db.conversations[id] = cloneConversation(c)
	return nil
}

func (r *memConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.conversations, id)
	return nil
}

func (r *memConversationRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *memConversationRepo) FindOneForUpdate(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	return r.FindOne(ctx, specification.ByID{ID: id})
}

func (r *memConversationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	withMessages := false
	var out []*entity.Conversation
	r.db.mu.Lock()
	for _, c := range r.db.conversations {
		if matchesConversation(c, specs) {
			out = append(out, cloneConversation(c))
		}
	}
	r.db.mu.Unlock()
	for _, s := range specs {
		if _, ok := s.(specification.WithMessages); ok {
			withMessages = true
		}
	}
	if withMessages {
		for _, c := range out {
			c.Messages = r.db.messagesOf(c.Id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesConversation(c *entity.Conversation, specs []specification.Specification) bool {
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			if c.Id != spec.ID {
				return false
			}
		case specification.ByUserID:
			if c.UserId != spec.UserID {
				return false
			}
		}
	}
	return true
}

type memMessageRepo struct {
	db *memDB
}

func (r *memMessageRepo) Create(ctx context.Context, m *entity.ConversationMessage) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCreateMsg != nil {
		return r.db.failCreateMsg
	}
	cp := *m
	r.db.messages = append(r.db.messages, &cp)
	return nil
}

func (r *memMessageRepo) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	kept := r.db.messages[:0]
	for _, m := range r.db.messages {
		if m.ConversationId != conversationId {
			kept = append(kept, m)
		}
	}
	r.db.messages = kept
	return nil
}

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	history [][]llm.Message
	options []llm.Options
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, history)
	f.options = append(f.options, llm.ApplyOptions(opts...))
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, opts...)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

// fakeProposals records a ready artifact in the store like the orchestrator would.
type fakeProposals struct {
	mu        sync.Mutex
	store     orchestrator.ConversationStore
	artifacts *fakeArtifacts
	err       error
	calls     int
	status    *entity.GenerationTask
	forgotten []uuid.UUID
}

func (f *fakeProposals) Generate(ctx context.Context, id uuid.UUID, attempt int) (*orchestrator.Result, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	f.mu.Unlock()
	if err != nil {
		_ = f.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
			m.IsComplete = true
			m.HasProposal = false
		})
		return nil, err
	}

	ref := "proposals/proposal_" + id.String() + ".pdf"
	tier := orchestrator.TierFull
	if _, ok := f.artifacts.files[ref]; ok {
		tier = orchestrator.TierExisting
	} else {
		f.artifacts.files[ref] = []byte("%PDF-1.3 proposal")
	}
	if err := f.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
		m.ArtifactPath = &ref
		m.IsComplete = true
		m.HasProposal = true
	}); err != nil {
		return nil, err
	}
	return &orchestrator.Result{ArtifactRef: ref, Size: int64(len(f.artifacts.files[ref])), Tier: tier}, nil
}

func (f *fakeProposals) Status(id uuid.UUID) (*entity.GenerationTask, bool) {
	if f.status == nil {
		return nil, false
	}
	return f.status, true
}

func (f *fakeProposals) Forget(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, id)
}

func (f *fakeProposals) Deliver(ctx context.Context, id uuid.UUID, ref string) error {
	return nil
}

func (f *fakeProposals) generateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeArtifacts struct {
	files     map[string][]byte
	removeErr error
	removed   []string
}

func newFakeArtifacts() *fakeArtifacts {
	return &fakeArtifacts{files: make(map[string][]byte)}
}

func (f *fakeArtifacts) Open(ctx context.Context, ref string) (io.ReadCloser, int64, error) {
	data, ok := f.files[ref]
	if !ok {
		return nil, 0, errors.New("artifact: not found")
	}
	return io.NopCloser(bytes.NewReader(data)), int64(len(data)), nil
}

func (f *fakeArtifacts) Stat(ctx context.Context, ref string) (int64, error) {
	data, ok := f.files[ref]
	if !ok {
		return 0, errors.New("artifact: not found")
	}
	return int64(len(data)), nil
}

func (f *fakeArtifacts) Remove(ctx context.Context, ref string) error {
	f.removed = append(f.removed, ref)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.files, ref)
	return nil
}
