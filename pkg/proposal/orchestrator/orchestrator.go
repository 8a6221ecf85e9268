package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"proposal-intake-be/internal/entity"
	"proposal-intake-be/internal/pkg/logger"
	"proposal-intake-be/pkg/document"
	"proposal-intake-be/pkg/lock"
	"proposal-intake-be/pkg/proposal/synthesis"

	"github.com/google/uuid"
)

type State string

const (
	StateNoArtifact        State = "NO_ARTIFACT"
	StateSynthesizing      State = "SYNTHESIZING"
	StateRendering         State = "RENDERING"
	StateReady             State = "READY"
	StateFailedRecoverable State = "FAILED_RECOVERABLE"
)

// Tier tells which path produced the returned artifact.
type Tier string

const (
	TierExisting  Tier = "existing"
	TierFull      Tier = "full"
	TierEmergency Tier = "emergency"
)

type Result struct {
	ArtifactRef string
	Size        int64
	Tier        Tier
}

// ConversationStore loads a conversation and applies metadata changes atomically.
type ConversationStore interface {
	Load(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	UpdateMetadata(ctx context.Context, id uuid.UUID, mutate func(*entity.ConversationMetadata)) error
}

type Synthesizer interface {
	Synthesize(ctx context.Context, transcript []synthesis.Turn) synthesis.Draft
}

type Renderer interface {
	Render(markupText string, w io.Writer) error
	RenderEmergency(notice document.EmergencyNotice, w io.Writer) error
}

type ArtifactStore interface {
	Write(ctx context.Context, name string, fill func(io.Writer) error) (string, int64, error)
	Stat(ctx context.Context, ref string) (int64, error)
	Remove(ctx context.Context, ref string) error
}

// Observer is told about every state transition, e.g. to feed a status tracker.
type Observer func(id uuid.UUID, state State, err error)

type Option func(*Orchestrator)

func WithObserver(fn Observer) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

// WithLockWait bounds how long a caller waits for another generation of the
// same conversation to finish.
func WithLockWait(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.lockWait = d
		}
	}
}

func WithBranding(companyName, contactLine string) Option {
	return func(o *Orchestrator) {
		o.companyName = companyName
		o.contactLine = contactLine
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Orchestrator) {
		o.clock = clock
	}
}

type Deps struct {
	Store       ConversationStore
	Synthesizer Synthesizer
	Renderer    Renderer
	Artifacts   ArtifactStore
	Locker      lock.Locker
	Logger      logger.ILogger
}

// Orchestrator drives synthesis and rendering for one conversation at a time
// and records the outcome in the conversation metadata.
type Orchestrator struct {
	store     ConversationStore
	synth     Synthesizer
	renderer  Renderer
	artifacts ArtifactStore
	locker    lock.Locker
	logger    logger.ILogger

	observer    Observer
	lockWait    time.Duration
	companyName string
	contactLine string
	clock       func() time.Time
}

func New(deps Deps, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     deps.Store,
		synth:     deps.Synthesizer,
		renderer:  deps.Renderer,
		artifacts: deps.Artifacts,
		locker:    deps.Locker,
		logger:    deps.Logger,
		lockWait:  10 * time.Minute,
		clock:     time.Now,
	}
	if o.locker == nil {
		o.locker = lock.NewKeyedMutex()
	}
	if o.logger == nil {
		o.logger = logger.NewNopLogger()
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate returns the conversation's proposal document, producing it if needed.
// The work is detached from ctx cancellation so a paid generation call is
// never thrown away because the client went away.
func (o *Orchestrator) Generate(ctx context.Context, id uuid.UUID) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	lockCtx, cancel := context.WithTimeout(ctx, o.lockWait)
	release, err := o.locker.Acquire(lockCtx, id.String())
	cancel()
	if err != nil {
		if errors.Is(err, lock.ErrLockTimeout) {
			return nil, ErrGenerationInProgress
		}
		return nil, fmt.Errorf("acquire generation lock: %w", err)
	}
	defer release()

	return o.generateLocked(ctx, id)
}

func (o *Orchestrator) generateLocked(ctx context.Context, id uuid.UUID) (*Result, error) {
	conv, err := o.store.Load(ctx, id)
	if err != nil {
		return nil, &PersistenceError{Op: "load conversation", Err: err}
	}
	meta := conv.Metadata
	o.transition(id, StateNoArtifact, nil)

	if res, ok := o.existingArtifact(ctx, id, &meta); ok {
		if !meta.HasProposal || !meta.IsComplete {
			if err := o.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
				m.HasProposal = true
				m.IsComplete = true
			}); err != nil {
				return nil, &PersistenceError{Op: "mark existing artifact", Err: err}
			}
		}
		o.transition(id, StateReady, nil)
		return res, nil
	}

	// No valid artifact from here on, so has_proposal must not stay true.
	clearArtifact := meta.HasProposal || meta.ArtifactRef() != ""

	text := meta.ProposalTextValue()
	if strings.TrimSpace(text) == "" {
		o.transition(id, StateSynthesizing, nil)
		draft := o.synth.Synthesize(ctx, Transcript(conv.Messages))
		text = draft.Text
		attempt := o.clock()
		if err := o.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
			saved := text
			m.ProposalText = &saved
			m.LastGenerationAttempt = &attempt
			if clearArtifact {
				m.ArtifactPath = nil
				m.HasProposal = false
			}
		}); err != nil {
			return nil, &PersistenceError{Op: "save proposal text", Err: err}
		}
	} else {
		o.logger.Info("ORCHESTRATOR", "Reusing stored proposal text", map[string]interface{}{
			"conversation_id": id.String(),
			"chars":           len(text),
		})
		if clearArtifact {
			if err := o.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
				m.ArtifactPath = nil
				m.HasProposal = false
			}); err != nil {
				return nil, &PersistenceError{Op: "clear stale artifact", Err: err}
			}
		}
	}

	o.transition(id, StateRendering, nil)
	res, fullErr := o.renderTier(ctx, fmt.Sprintf("proposal_%s.pdf", id), TierFull, func(w io.Writer) error {
		return o.renderer.Render(text, w)
	})
	if fullErr != nil {
		o.transition(id, StateFailedRecoverable, fullErr)

		notice := o.emergencyNotice(meta)
		var emergencyErr error
		res, emergencyErr = o.renderTier(ctx, fmt.Sprintf("proposal_emergency_%s.pdf", id), TierEmergency, func(w io.Writer) error {
			return o.renderer.RenderEmergency(notice, w)
		})
		if emergencyErr != nil {
			return nil, o.recordFailure(ctx, id, errors.Join(fullErr, emergencyErr))
		}
	}

	generatedAt := o.clock()
	if err := o.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
		ref := res.ArtifactRef
		m.ArtifactPath = &ref
		m.HasProposal = true
		m.IsComplete = true
		m.LastGenerationError = ""
		m.ProposalGeneratedAt = &generatedAt
		m.ProposalEmergencyIssue = res.Tier == TierEmergency
	}); err != nil {
		// the reference was never recorded, so the file is unreachable
		_ = o.artifacts.Remove(ctx, res.ArtifactRef)
		return nil, &PersistenceError{Op: "save artifact reference", Err: err}
	}

	o.logger.Info("ORCHESTRATOR", "Proposal document ready", map[string]interface{}{
		"conversation_id": id.String(),
		"artifact":        res.ArtifactRef,
		"bytes":           res.Size,
		"tier":            string(res.Tier),
	})
	o.transition(id, StateReady, nil)
	return res, nil
}

// existingArtifact is the idempotency check: a recorded, non-empty artifact wins.
func (o *Orchestrator) existingArtifact(ctx context.Context, id uuid.UUID, meta *entity.ConversationMetadata) (*Result, bool) {
	ref := meta.ArtifactRef()
	if ref == "" {
		return nil, false
	}
	size, err := o.artifacts.Stat(ctx, ref)
	if err == nil && size > 0 {
		return &Result{ArtifactRef: ref, Size: size, Tier: TierExisting}, true
	}
	details := map[string]interface{}{
		"conversation_id": id.String(),
		"artifact":        ref,
		"bytes":           size,
	}
	if err != nil {
		details["error"] = err.Error()
	}
	o.logger.Warn("ORCHESTRATOR", "Recorded artifact is missing or empty", details)
	return nil, false
}

func (o *Orchestrator) renderTier(ctx context.Context, name string, tier Tier, render func(io.Writer) error) (*Result, error) {
	var renderErr error
	ref, size, err := o.artifacts.Write(ctx, name, func(w io.Writer) (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = document.NewRenderError(document.Internal, fmt.Errorf("panic: %v", rec))
			}
			renderErr = err
		}()
		return render(w)
	})
	if renderErr != nil {
		var re *document.RenderError
		if errors.As(renderErr, &re) {
			return nil, renderErr
		}
		return nil, document.NewRenderError(document.Internal, renderErr)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "write artifact", Err: err}
	}
	if size == 0 {
		_ = o.artifacts.Remove(ctx, ref)
		return nil, document.NewRenderError(document.EmptyOutput, fmt.Errorf("%s tier produced an empty artifact", tier))
	}
	return &Result{ArtifactRef: ref, Size: size, Tier: tier}, nil
}

// recordFailure leaves the conversation complete but without a proposal, so
// any later access retries.
func (o *Orchestrator) recordFailure(ctx context.Context, id uuid.UUID, cause error) error {
	o.logger.Error("ORCHESTRATOR", "Both render tiers failed", map[string]interface{}{
		"conversation_id": id.String(),
		"error":           cause.Error(),
	})
	if err := o.store.UpdateMetadata(ctx, id, func(m *entity.ConversationMetadata) {
		m.IsComplete = true
		m.HasProposal = false
		m.ArtifactPath = nil
		m.LastGenerationError = cause.Error()
	}); err != nil {
		return &PersistenceError{Op: "record generation failure", Err: err}
	}
	o.transition(id, StateFailedRecoverable, cause)
	return fmt.Errorf("%w: %w", ErrArtifactUnavailable, cause)
}

func (o *Orchestrator) emergencyNotice(meta entity.ConversationMetadata) document.EmergencyNotice {
	return document.EmergencyNotice{
		CompanyName: o.companyName,
		ClientName:  meta.DisplayName(),
		Sector:      meta.SelectedSector,
		Date:        o.clock(),
		ContactLine: o.contactLine,
	}
}

func (o *Orchestrator) transition(id uuid.UUID, state State, err error) {
	details := map[string]interface{}{
		"conversation_id": id.String(),
		"state":           string(state),
	}
	if err != nil {
		details["error"] = err.Error()
	}
	o.logger.Debug("ORCHESTRATOR", "State transition", details)
	if o.observer != nil {
		o.observer(id, state, err)
	}
}

// Transcript keeps the user and assistant turns in order.
func Transcript(messages []*entity.ConversationMessage) []synthesis.Turn {
	turns := make([]synthesis.Turn, 0, len(messages))
	for _, m := range messages {
		if m == nil {
			continue
		}
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		turns = append(turns, synthesis.Turn{Role: m.Role, Text: m.Content, CreatedAt: m.CreatedAt})
	}
	return turns
}
