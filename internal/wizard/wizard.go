package wizard

import (
	"context"
	"fmt"
	"strings"
)

// Confirmation prompts.
const (
	PromptResubmit = "Resubmitting this step will clear the results of later steps. Continue?"
	PromptLeave    = "Leaving now will discard your progress. Continue?"
	PromptRestart  = "Start a new scan? Your current results stay in your history."
)

// Backend performs the generation calls. *Client implements it over HTTP.
type Backend interface {
	ExtractKeywords(ctx context.Context, jobDescription, company, jobTitle string) (keywords []string, scanID string, err error)
	EnhanceResume(ctx context.Context, resume, jobDescription, scanID string) ([]BulletGroup, error)
	DraftCoverLetter(ctx context.Context, resume, jobDescription, scanID string) (string, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Wizard drives the five-step toolbox flow. It is not safe for concurrent use.
type Wizard struct {
	state   State
	backend Backend
	confirm Confirmer
}

// New returns a wizard at step 1. A nil confirmer declines everything.
func New(backend Backend, confirm Confirmer) *Wizard {
	if confirm == nil {
		confirm = ConfirmFunc(func(string) bool { return false })
	}
	return &Wizard{state: initialState(), backend: backend, confirm: confirm}
}

// State returns a copy of the current state.
func (w *Wizard) State() State {
	return w.state.clone()
}

// SetJob records the step 1 inputs.
func (w *Wizard) SetJob(jobDescription, company, jobTitle string) {
	w.state.JobDescription = jobDescription
	w.state.Company = company
	w.state.JobTitle = jobTitle
}

// SetResume records the step 3 input.
func (w *Wizard) SetResume(resume string) {
	w.state.Resume = resume
}

// Next advances one step, raising the watermark when moving past it.
func (w *Wizard) Next() error {
	if !w.state.Active {
		return ErrInactive
	}
	if w.state.Step >= LastStep {
		return fmt.Errorf("%w: next from step %d", ErrIllegalTransition, w.state.Step)
	}
	if w.state.Step >= w.state.Watermark {
		w.state.Watermark = w.state.Step + 1
	}
	w.state.Step++
	return nil
}

// Prev goes back one step.
func (w *Wizard) Prev() error {
	if !w.state.Active {
		return ErrInactive
	}
	if w.state.Step <= FirstStep {
		return fmt.Errorf("%w: prev from step %d", ErrIllegalTransition, w.state.Step)
	}
	w.state.Step--
	return nil
}

// JumpTo revisits any step up to the watermark.
func (w *Wizard) JumpTo(step int) error {
	if !w.state.Active {
		return ErrInactive
	}
	if step < FirstStep || step > w.state.Watermark {
		return fmt.Errorf("%w: jump to %d with watermark %d", ErrIllegalTransition, step, w.state.Watermark)
	}
	w.state.Step = step
	return nil
}

// Finish moves from the last step to the terminal state.
func (w *Wizard) Finish() error {
	if !w.state.Active {
		return ErrInactive
	}
	if w.state.Step != LastStep {
		return fmt.Errorf("%w: finish from step %d", ErrIllegalTransition, w.state.Step)
	}
	w.state.Step = DoneStep
	w.state.Active = false
	return nil
}

// Reset returns every field to its initial value.
func (w *Wizard) Reset() {
	w.state = initialState()
}

// Leave asks before discarding an in-progress run.
func (w *Wizard) Leave() error {
	if w.state.Active && w.state.Step > FirstStep && !w.confirm.Confirm(PromptLeave) {
		return ErrAbandonCancelled
	}
	w.Reset()
	return nil
}

// Submit performs the current step's side effect and advances. Backend
// failures leave the step unchanged.
func (w *Wizard) Submit(ctx context.Context) error {
	if !w.state.Active {
		return ErrInactive
	}
	step := w.state.Step

	if step == LastStep {
		if !w.confirm.Confirm(PromptRestart) {
			return ErrRestartCancelled
		}
		w.Reset()
		return nil
	}

	if producesOutput(step) && w.state.Watermark > step {
		if !w.confirm.Confirm(PromptResubmit) {
			return ErrSubmissionDiscarded
		}
		w.state.clearAfter(step)
		w.state.Watermark = step
	}

	switch step {
	case 1:
		if strings.TrimSpace(w.state.JobDescription) == "" {
			return fmt.Errorf("%w: job description", ErrMissingInput)
		}
		keywords, scanID, err := w.backend.ExtractKeywords(ctx, w.state.JobDescription, w.state.Company, w.state.JobTitle)
		if err != nil {
			return err
		}
		w.state.Keywords = keywords
		w.state.ScanID = scanID
	case 3:
		if strings.TrimSpace(w.state.Resume) == "" {
			return fmt.Errorf("%w: resume", ErrMissingInput)
		}
		bullets, err := w.backend.EnhanceResume(ctx, w.state.Resume, w.state.JobDescription, w.state.ScanID)
		if err != nil {
			return err
		}
		w.state.Bullets = bullets
		w.state.CoverLetter = ""
	case 4:
		letter, err := w.backend.DraftCoverLetter(ctx, w.state.Resume, w.state.JobDescription, w.state.ScanID)
		if err != nil {
			return err
		}
		w.state.CoverLetter = letter
	}
	return w.Next()
}

func producesOutput(step int) bool {
	return step == 1 || step == 3 || step == 4
}
