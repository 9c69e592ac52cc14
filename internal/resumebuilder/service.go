// Package resumebuilder is the HTTP-facing wizard service: it binds browser
// sessions to wizard machines, runs extraction for uploads, and turns a
// completed wizard into a stored LaTeX resume.
package resumebuilder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"resume-builder/internal/extract"
	"resume-builder/internal/form"
	"resume-builder/internal/generation"
	"resume-builder/internal/prompt"
	"resume-builder/internal/resumefile"
	"resume-builder/internal/shared/metrics"
	"resume-builder/internal/shared/storage/object"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/submissions"
	"resume-builder/internal/templates"
	"resume-builder/internal/validation"
	"resume-builder/internal/wizard"
)

// DefaultExtractTimeout bounds one background extraction.
const DefaultExtractTimeout = 30 * time.Second

// Service implements the wizard operations for mounted sessions.
type Service struct {
	Registry       *wizard.Registry
	Handoff        *wizard.Handoff
	Store          object.ObjectStore
	Generator      generation.Generator
	Submissions    *submissions.Service
	ExtractTimeout time.Duration

	inflight sync.WaitGroup
}

// Upload describes a stored resume whose text is being extracted.
type Upload struct {
	FileID     string
	StorageKey string
	Kind       resumefile.Kind
	// Done is closed once the extraction result has been applied or discarded.
	Done <-chan struct{}
}

// Transition is the outcome of a step change.
type Transition struct {
	From   form.Step
	To     form.Step
	Result validation.Result
	View   wizard.View
}

// Mount starts a wizard for sessionID, restoring a pending handoff snapshot.
func (s *Service) Mount(ctx context.Context, sessionID string, isAuthenticated bool) (wizard.View, bool, error) {
	restored, err := s.Registry.Mount(ctx, sessionID)
	if err != nil {
		return wizard.View{}, false, err
	}
	view, err := s.View(sessionID, isAuthenticated)
	return view, restored, err
}

// View returns the session's state and derived UI.
func (s *Service) View(sessionID string, isAuthenticated bool) (wizard.View, error) {
	var view wizard.View
	err := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		view = m.Derive(isAuthenticated)
		return nil
	})
	return view, err
}

// UploadResume admits and stores a resume, selects it, and starts text
// extraction in the background. The previous file, if any, is replaced and
// its pending extraction becomes stale.
func (s *Service) UploadResume(ctx context.Context, sessionID, ownerID, name string, size int64, r io.Reader) (Upload, error) {
	kind, err := resumefile.Admit(name, size)
	if err != nil {
		return Upload{}, err
	}
	if err := wizard.ValidateSessionID(sessionID); err != nil {
		return Upload{}, err
	}
	if ownerID == "" {
		ownerID = "session:" + sessionID
	}
	if _, err := s.Registry.Get(sessionID); err != nil {
		return Upload{}, err
	}

	key, storedSize, _, err := s.Store.Save(ctx, ownerID, name, r)
	if err != nil {
		return Upload{}, fmt.Errorf("store resume session=%s: %w", sessionID, err)
	}
	if storedSize > resumefile.MaxSizeBytes {
		s.discardUpload(sessionID, key)
		return Upload{}, resumefile.ErrTooLarge
	}

	file := &resumefile.ResumeFile{
		ID:        uuid.NewString(),
		Kind:      kind,
		Name:      name,
		SizeBytes: storedSize,
	}
	err = s.Registry.With(sessionID, func(m *wizard.Machine) error {
		m.UpdateResumeFile(file)
		m.BeginExtraction(file.ID)
		return nil
	})
	if err != nil {
		s.discardUpload(sessionID, key)
		return Upload{}, err
	}

	done := make(chan struct{})
	s.inflight.Add(1)
	go s.runExtraction(sessionID, file.ID, key, kind, done)
	return Upload{FileID: file.ID, StorageKey: key, Kind: kind, Done: done}, nil
}

// discardUpload deletes an object saved for an upload that was then rejected.
func (s *Service) discardUpload(sessionID, key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("wizard.upload_cleanup_failed", map[string]any{
			"session": sessionID,
			"key":     key,
			"err":     err,
		})
	}
}

func (s *Service) runExtraction(sessionID, fileID, key string, kind resumefile.Kind, done chan<- struct{}) {
	defer s.inflight.Done()
	defer close(done)

	timeout := s.ExtractTimeout
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	text, err := extract.FromStore(ctx, s.Store, key, kind)
	metrics.ObserveExtractionDurationMs(metrics.SinceMillis(start))

	fields := map[string]any{
		"session": sessionID,
		"file_id": fileID,
		"kind":    string(kind),
	}
	if err != nil {
		var extractErr *extract.ExtractionError
		if !errors.As(err, &extractErr) {
			// Storage or timeout failures still surface as a readable message.
			err = &extract.ExtractionError{Kind: kind, Err: err}
		}
		metrics.IncExtractionFailed()
		fields["err"] = err
		telemetry.Warn("wizard.extraction_failed", fields)
	}

	applied := false
	withErr := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		applied = m.CompleteExtraction(fileID, text, err)
		return nil
	})
	switch {
	case withErr != nil || !applied:
		metrics.IncExtractionStale()
		telemetry.Info("wizard.extraction_discarded", fields)
	case err == nil:
		metrics.IncExtractionCompleted()
	}
}

// Wait blocks until every background extraction has finished or ctx ends.
func (s *Service) Wait(ctx context.Context) error {
	ch := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(ch)
	}()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RemoveResume deselects the current resume file.
func (s *Service) RemoveResume(sessionID string, isAuthenticated bool) (wizard.View, error) {
	return s.mutate(sessionID, isAuthenticated, func(m *wizard.Machine) error {
		m.UpdateResumeFile(nil)
		return nil
	})
}

func (s *Service) SetJobDescription(sessionID, text string, isAuthenticated bool) (wizard.View, error) {
	return s.mutate(sessionID, isAuthenticated, func(m *wizard.Machine) error {
		m.UpdateJobDescription(text)
		return nil
	})
}

func (s *Service) SetJobRole(sessionID, role string, isAuthenticated bool) (wizard.View, error) {
	return s.mutate(sessionID, isAuthenticated, func(m *wizard.Machine) error {
		m.UpdateJobRole(role)
		return nil
	})
}

// ToggleTemplate selects t, or clears it when t is already selected. Only
// templates offered for the current file kind can be selected.
func (s *Service) ToggleTemplate(sessionID string, t templates.Template, isAuthenticated bool) (wizard.View, error) {
	return s.mutate(sessionID, isAuthenticated, func(m *wizard.Machine) error {
		st := m.State()
		if st.Template != t && !templates.IsAllowed(st.Kind(), t) {
			return fmt.Errorf("%w: %s", ErrTemplateUnavailable, t)
		}
		m.SelectTemplate(t)
		return nil
	})
}

// SetPersonalization stores the personalization prompt. Guests cannot edit it.
func (s *Service) SetPersonalization(sessionID, text string, isAuthenticated bool) (wizard.View, error) {
	if !isAuthenticated {
		return wizard.View{}, ErrLoginRequired
	}
	return s.mutate(sessionID, isAuthenticated, func(m *wizard.Machine) error {
		m.UpdatePersonalizationPrompt(text)
		return nil
	})
}

// Next validates the current step and advances on success.
func (s *Service) Next(sessionID string, isAuthenticated bool) (Transition, error) {
	var tr Transition
	err := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		tr.From = m.State().CurrentStep
		tr.Result = m.NextStep(isAuthenticated)
		tr.View = m.Derive(isAuthenticated)
		tr.To = tr.View.State.CurrentStep
		return nil
	})
	if err != nil {
		return Transition{}, err
	}
	if tr.Result.IsValid {
		metrics.IncStepAdvanced()
	} else {
		metrics.IncStepRejected()
	}
	return tr, nil
}

// Prev steps back, never below the first step.
func (s *Service) Prev(sessionID string, isAuthenticated bool) (Transition, error) {
	var tr Transition
	err := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		tr.From = m.State().CurrentStep
		m.PrevStep()
		tr.Result = validation.Result{IsValid: true, Errors: map[string]string{}}
		tr.View = m.Derive(isAuthenticated)
		tr.To = tr.View.State.CurrentStep
		return nil
	})
	return tr, err
}

// Suspend saves the session into the handoff slot and unmounts it.
func (s *Service) Suspend(ctx context.Context, sessionID string) error {
	return s.Registry.Suspend(ctx, sessionID)
}

// Prompt assembles the generation prompt for the session's current state.
func (s *Service) Prompt(sessionID string, isAuthenticated bool) (string, error) {
	st, err := s.Registry.Get(sessionID)
	if err != nil {
		return "", err
	}
	return buildPrompt(st, isAuthenticated)
}

// Submit validates every step, builds the prompt, generates LaTeX, and stores it.
func (s *Service) Submit(ctx context.Context, sessionID, ownerID string, isAuthenticated bool) (submissions.Submission, error) {
	var (
		st         form.State
		extracting bool
	)
	err := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		st = m.State()
		extracting = m.Extracting()
		return nil
	})
	if err != nil {
		return submissions.Submission{}, err
	}
	if extracting {
		return submissions.Submission{}, ErrExtractionPending
	}
	if res := validation.All(st, isAuthenticated); !res.IsValid {
		return submissions.Submission{}, &ValidationError{Result: res}
	}

	text, err := buildPrompt(st, isAuthenticated)
	if err != nil {
		return submissions.Submission{}, err
	}

	gen := s.Generator
	if gen == nil {
		gen = generation.Placeholder{}
	}
	latex, err := gen.Generate(ctx, generation.Request{
		Prompt:         text,
		JobDescription: st.JobDescription,
		ResumeText:     st.ExtractedText(),
	})
	if err != nil {
		return submissions.Submission{}, fmt.Errorf("%w: session=%s: %w", ErrGenerationFailed, sessionID, err)
	}

	if ownerID == "" {
		ownerID = "session:" + sessionID
	}
	sub, err := s.Submissions.Submit(ctx, submissions.Input{
		OwnerID:   ownerID,
		LatexCode: latex,
		Template:  string(st.Template),
		JobRole:   st.JobRole,
	})
	if err != nil {
		if errors.Is(err, submissions.ErrInvalidInput) || errors.Is(err, submissions.ErrTooLarge) {
			return submissions.Submission{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
		}
		return submissions.Submission{}, fmt.Errorf("%w: session=%s: %w", ErrSubmissionFailed, sessionID, err)
	}
	metrics.IncSubmission()

	if s.Handoff != nil {
		if err := s.Handoff.Clear(ctx, sessionID); err != nil {
			telemetry.Warn("wizard.handoff_clear_failed", map[string]any{"session": sessionID, "err": err})
		}
	}
	return sub, nil
}

func buildPrompt(st form.State, isAuthenticated bool) (string, error) {
	if !isAuthenticated {
		st.PersonalizationPrompt = ""
	}
	text, err := prompt.Build(st)
	if err != nil {
		return "", err
	}
	metrics.IncPromptBuilt()
	return text, nil
}

func (s *Service) mutate(sessionID string, isAuthenticated bool, fn func(*wizard.Machine) error) (wizard.View, error) {
	var view wizard.View
	err := s.Registry.With(sessionID, func(m *wizard.Machine) error {
		if err := fn(m); err != nil {
			return err
		}
		view = m.Derive(isAuthenticated)
		return nil
	})
	return view, err
}
