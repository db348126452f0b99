package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/ports"
)

// DownloadService resolves a time-limited download link for a stored
// document. It is a one-shot action: failures are toasted, never retried.
type DownloadService struct {
	api      ports.ClassifierService
	notifier ports.Notifier
	logger   *slog.Logger
}

func NewDownloadService(api ports.ClassifierService, notifier ports.Notifier, logger *slog.Logger) *DownloadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DownloadService{
		api:      api,
		notifier: notifier,
		logger:   logger.With("component", "download"),
	}
}

func (s *DownloadService) Link(ctx context.Context, id domain.DocumentID) (string, error) {
	if strings.TrimSpace(id.String()) == "" {
		return "", domain.WrapError(domain.ErrValidation, "download document", errors.New("document id is required"))
	}

	link, err := s.api.DownloadURL(ctx, id)
	if err != nil {
		s.logger.Warn("download_link_failed", "document_id", id, "error", err)
		if s.notifier != nil && !errors.Is(err, context.Canceled) {
			s.notifier.Error("Download failed. "+domain.UserMessage(err), err)
		}
		return "", err
	}
	return link, nil
}
