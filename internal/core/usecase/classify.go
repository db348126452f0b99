package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
	"github.com/kirillkom/document-classifier-client/internal/core/refresh"
	"github.com/kirillkom/document-classifier-client/internal/core/validate"
)

// AllowedExtensions are the file types the classification service accepts.
var AllowedExtensions = []string{".txt", ".docx", ".pdf"}

type ClassifyOutcome string

const (
	ClassifySkippedNoFile ClassifyOutcome = "skipped_no_file"
	ClassifySkippedBusy   ClassifyOutcome = "skipped_busy"
	ClassifyDone          ClassifyOutcome = "done"
	ClassifyFailed        ClassifyOutcome = "failed"
)

// ClassifyWorkflow coordinates a single in-flight upload. A request made
// while one is running is dropped, not queued.
type ClassifyWorkflow struct {
	api       ports.ClassifierService
	validator *validate.Validator[domain.DocumentRecord]
	token     *refresh.Token
	notifier  ports.Notifier
	observer  ports.ClassifyObserver
	logger    *slog.Logger

	mu        sync.Mutex
	pending   *domain.PendingFile
	selection uint64
	busy      bool
	result    *domain.ClassificationResult
}

// NewClassifyWorkflow builds the workflow. validator checks the upload
// response; nil falls back to the semantic rule alone.
func NewClassifyWorkflow(
	api ports.ClassifierService,
	validator *validate.Validator[domain.DocumentRecord],
	token *refresh.Token,
	notifier ports.Notifier,
	observer ports.ClassifyObserver,
	logger *slog.Logger,
) *ClassifyWorkflow {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validate.New("upload response", nil, validate.UploadResponseRule)
	}
	return &ClassifyWorkflow{
		api:       api,
		validator: validator,
		token:     token,
		notifier:  notifier,
		observer:  observer,
		logger:    logger.With("component", "classify"),
	}
}

// SelectFile replaces the pending file and clears the previous result.
func (w *ClassifyWorkflow) SelectFile(file domain.PendingFile) error {
	if err := w.checkFile(file); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.selectLocked(file)
	return nil
}

// Classify uploads the pending file. It does nothing when no file is
// selected or an upload is already running.
func (w *ClassifyWorkflow) Classify(ctx context.Context) (ClassifyOutcome, error) {
	w.mu.Lock()
	if w.pending == nil {
		w.mu.Unlock()
		return ClassifySkippedNoFile, nil
	}
	if w.busy {
		w.mu.Unlock()
		return ClassifySkippedBusy, nil
	}
	w.busy = true
	file := *w.pending
	selection := w.selection
	w.mu.Unlock()

	return w.run(ctx, file, selection)
}

// ClassifyFile selects file and uploads it in one step. While an upload is
// running the call is dropped and the running upload keeps its selection.
func (w *ClassifyWorkflow) ClassifyFile(ctx context.Context, file domain.PendingFile) (ClassifyOutcome, error) {
	if err := w.checkFile(file); err != nil {
		return ClassifyFailed, err
	}

	w.mu.Lock()
	if w.busy {
		w.mu.Unlock()
		w.logger.Info("classify_skipped_busy", "filename", file.Name)
		return ClassifySkippedBusy, nil
	}
	w.selectLocked(file)
	w.busy = true
	selection := w.selection
	w.mu.Unlock()

	return w.run(ctx, file, selection)
}

func (w *ClassifyWorkflow) checkFile(file domain.PendingFile) error {
	if err := checkExtension(file.Name); err != nil {
		if w.notifier != nil {
			w.notifier.Error(domain.UserMessage(err), err)
		}
		return err
	}
	if file.Open == nil {
		return domain.WrapError(domain.ErrValidation, "select file", errors.New("file has no content"))
	}
	return nil
}

func (w *ClassifyWorkflow) selectLocked(file domain.PendingFile) {
	w.pending = &file
	w.selection++
	w.result = nil
}

// run performs an upload the caller has already marked busy.
func (w *ClassifyWorkflow) run(ctx context.Context, file domain.PendingFile, selection uint64) (outcome ClassifyOutcome, err error) {
	defer func() {
		w.mu.Lock()
		w.busy = false
		w.mu.Unlock()
	}()

	if w.observer != nil {
		w.observer.StartClassify()
		defer func() { w.observer.FinishClassify(err) }()
	}

	result, err := w.upload(ctx, file)
	if err != nil {
		if !errors.Is(err, context.Canceled) && w.notifier != nil {
			w.notifier.Error(domain.UserMessage(err), err)
		}
		w.logger.Warn("classify_failed", "filename", file.Name, "error", err)
		return ClassifyFailed, err
	}

	// The server stored the document either way, so dependent views refresh
	// even if the user has moved on to another file.
	value := w.token.Increment()

	w.mu.Lock()
	current := w.selection == selection
	if current {
		w.result = &result
	}
	w.mu.Unlock()

	w.logger.Info("classify_done",
		"filename", file.Name,
		"category", result.Category,
		"refresh_token", value,
		"stale_selection", !current,
	)
	if w.notifier != nil {
		w.notifier.Success(fmt.Sprintf("%s classified as %s", filepath.Base(file.Name), result.Category))
	}
	return ClassifyDone, nil
}

func (w *ClassifyWorkflow) Result() (domain.ClassificationResult, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.result == nil {
		return domain.ClassificationResult{}, false
	}
	return *w.result, true
}

func (w *ClassifyWorkflow) Pending() (domain.PendingFile, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending == nil {
		return domain.PendingFile{}, false
	}
	return *w.pending, true
}

func (w *ClassifyWorkflow) Busy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.busy
}

func (w *ClassifyWorkflow) upload(ctx context.Context, file domain.PendingFile) (domain.ClassificationResult, error) {
	body, err := file.Open()
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer body.Close()

	raw, err := w.api.UploadDocument(ctx, file.Name, body)
	if err != nil {
		return domain.ClassificationResult{}, err
	}
	doc, err := w.validator.One(raw)
	if err != nil {
		return domain.ClassificationResult{}, err
	}

	scores := make(map[string]float64, len(doc.AllScores))
	for label, score := range doc.AllScores {
		scores[label] = score
	}
	return domain.ClassificationResult{
		Category:  doc.Classification,
		AllScores: scores,
		Document:  doc,
	}, nil
}

func checkExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}
	return domain.WrapError(domain.ErrUnsupportedFile, "select file", fmt.Errorf("%q has extension %q", name, ext))
}
