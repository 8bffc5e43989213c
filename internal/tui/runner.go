package tui

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"consular/internal/apiclient"
	"consular/internal/domain"
	"consular/internal/wizard"
	"consular/pkg/errors"
	"consular/pkg/logger"
)

// BackCommand typed into any text prompt returns to the previous step.
const BackCommand = ":back"

const backOption = "<< Back"

// GoBackPrompt follows a refused consent; confirm prompts have no back option.
const GoBackPrompt = "Go back to the previous step?"

var errBack = stderrors.New("back")

var secretFields = map[domain.FieldID]bool{
	domain.FieldCardNumber: true,
	domain.FieldCardCVV:    true,
}

var fieldHelp = map[domain.FieldID]string{
	domain.FieldDateOfBirth:               "Format YYYY-MM-DD",
	domain.FieldPreviousPassportIssueDate: "Format YYYY-MM-DD",
	domain.FieldCardExpiry:                "Format MM/YY",
	domain.FieldPhoto:                     "Path to a JPG, PNG or PDF file",
	domain.FieldNationalIDCopy:            "Path to a JPG, PNG or PDF file",
	domain.FieldPreviousPassportCopy:      "Path to a JPG, PNG or PDF file",
}

// Runner prompts for every active field of the current step, then advances, until
// the application is submitted or the user aborts.
type Runner struct {
	driver    PromptDriver
	session   *wizard.Session
	submitter wizard.Submitter
	logger    logger.Logger
}

func NewRunner(driver PromptDriver, session *wizard.Session, sub wizard.Submitter, log logger.Logger) *Runner {
	if log == nil {
		log = logger.NewNop()
	}
	return &Runner{driver: driver, session: session, submitter: sub, logger: log}
}

// Run returns the receipt of the accepted application.
func (r *Runner) Run(ctx context.Context) (*domain.SubmissionReceipt, error) {
	for r.session.State() != wizard.StateSubmitted {
		step := r.session.Position()
		if err := r.driver.Info(ctx, fmt.Sprintf("\nStep %d of %d: %s", step, wizard.LastStep, wizard.StepTitle(step))); err != nil {
			return nil, err
		}

		err := r.promptStep(ctx, step)
		if stderrors.Is(err, errBack) {
			if _, err := r.session.Retreat(); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		if step < wizard.LastStep {
			if _, res, err := r.session.Advance(); err != nil {
				return nil, err
			} else if !res.Valid {
				if err := r.showErrors(ctx, res.Errors); err != nil {
					return nil, err
				}
			}
			continue
		}

		done, err := r.submit(ctx)
		if err != nil || done {
			return r.session.Receipt(), err
		}
	}
	return r.session.Receipt(), nil
}

// promptStep asks each active field in display order. Activity is re-read after
// every answer since choices such as the payment method reveal further fields.
func (r *Runner) promptStep(ctx context.Context, step int) error {
	for i := 0; ; i++ {
		fields := r.session.CurrentFields()
		if i >= len(fields) {
			return nil
		}
		f := fields[i]
		if !f.Active {
			continue
		}
		if err := r.promptField(ctx, step, f); err != nil {
			return err
		}
	}
}

// promptField repeats until the field validates.
func (r *Runner) promptField(ctx context.Context, step int, f wizard.FieldInfo) error {
	for {
		value, err := r.ask(ctx, step, f)
		if err != nil {
			return err
		}

		msg, err := r.session.OnFieldChange(f.ID, value)
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		if err := r.driver.Info(ctx, "  ! "+msg); err != nil {
			return err
		}
		if f.ID.Kind() == domain.KindFlag && step > wizard.FirstStep {
			back, err := r.driver.Confirm(ctx, ConfirmConfig{Message: GoBackPrompt})
			if err != nil {
				return err
			}
			if back {
				return errBack
			}
		}
	}
}

func (r *Runner) ask(ctx context.Context, step int, f wizard.FieldInfo) (domain.FieldValue, error) {
	current := r.session.Value(f.ID)

	switch {
	case f.ID.Kind() == domain.KindFlag:
		ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: f.Label, Default: current.Flag})
		return domain.Flag(ok), err

	case len(f.Choices) > 0:
		options := append([]string(nil), f.Choices...)
		if step > wizard.FirstStep {
			options = append(options, backOption)
		}
		def := indexOf(f.Choices, current.Text)
		if def < 0 {
			def = 0
		}
		idx, err := r.driver.Select(ctx, SelectConfig{Message: f.Label, Options: options, DefaultIndex: def})
		if err != nil {
			return domain.FieldValue{}, err
		}
		if idx < 0 || idx >= len(f.Choices) {
			return domain.FieldValue{}, errBack
		}
		return domain.Text(f.Choices[idx]), nil

	case f.ID.Kind() == domain.KindFile:
		for {
			def := ""
			if current.File != nil {
				def = current.File.Name
			}
			path, err := r.driver.Input(ctx, InputConfig{Message: f.Label, Help: fieldHelp[f.ID], Default: def})
			if err != nil {
				return domain.FieldValue{}, err
			}
			path = strings.TrimSpace(path)
			if path == BackCommand {
				return domain.FieldValue{}, errBack
			}
			if current.File != nil && path == current.File.Name {
				return current, nil
			}
			ref, err := domain.NewFileRefFromPath(path)
			if err != nil {
				if err := r.driver.Info(ctx, "  ! Cannot read "+path); err != nil {
					return domain.FieldValue{}, err
				}
				continue
			}
			return domain.File(ref), nil
		}

	default:
		cfg := InputConfig{Message: f.Label, Help: fieldHelp[f.ID], Default: current.Text}
		var (
			text string
			err  error
		)
		if secretFields[f.ID] {
			text, err = r.driver.Password(ctx, cfg)
		} else {
			text, err = r.driver.Input(ctx, cfg)
		}
		if err != nil {
			return domain.FieldValue{}, err
		}
		if strings.TrimSpace(text) == BackCommand {
			return domain.FieldValue{}, errBack
		}
		return domain.Text(text), nil
	}
}

// submit reports whether the run is over.
func (r *Runner) submit(ctx context.Context) (bool, error) {
	if fee := r.session.Snapshot().Fee; fee != nil {
		msg := fmt.Sprintf("Fee due: %s %s, processing takes about %d working days",
			fee.Amount.StringFixed(2), fee.Currency, fee.ProcessingDays)
		if err := r.driver.Info(ctx, msg); err != nil {
			return false, err
		}
	}

	ok, err := r.driver.Confirm(ctx, ConfirmConfig{Message: "Submit the application?", Default: true})
	if err != nil {
		return false, err
	}
	if !ok {
		_, err := r.session.Retreat()
		return false, err
	}

	outcome, err := r.session.Submit(ctx, r.submitter)
	switch {
	case err == nil:
		r.logger.Info("Application submitted from terminal", map[string]interface{}{
			"session_id": r.session.ID().String(),
			"reference":  outcome.Receipt.ReferenceNumber,
		})
		return true, r.driver.Info(ctx, "Application submitted. Reference: "+outcome.Receipt.ReferenceNumber)

	case stderrors.Is(err, errors.ErrStepInvalid):
		return false, r.showErrors(ctx, outcome.Validation.Errors)

	case stderrors.Is(err, errors.ErrSubmissionFailed) && outcome.Failure != nil:
		message := outcome.Failure.Message
		if message == "" {
			message = apiclient.MessageFor(outcome.Failure.Code)
		}
		if err := r.driver.Info(ctx, "  ! "+message); err != nil {
			return false, err
		}
		retry, cerr := r.driver.Confirm(ctx, ConfirmConfig{Message: "Try again?", Default: true})
		if cerr != nil {
			return false, cerr
		}
		if !retry {
			return true, err
		}
		return false, nil

	default:
		return false, err
	}
}

func (r *Runner) showErrors(ctx context.Context, errs wizard.ErrorMap) error {
	ids := make([]string, 0, len(errs))
	for id := range errs {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	for _, id := range ids {
		if err := r.driver.Info(ctx, fmt.Sprintf("  ! %s: %s", id, errs[domain.FieldID(id)])); err != nil {
			return err
		}
	}
	return nil
}
