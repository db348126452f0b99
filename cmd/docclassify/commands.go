package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	httpadapter "github.com/kirillkom/document-classifier-client/internal/adapters/http"
	"github.com/kirillkom/document-classifier-client/internal/core/domain"
	"github.com/kirillkom/document-classifier-client/internal/core/usecase"
	"github.com/kirillkom/document-classifier-client/internal/infrastructure/storage/localfs"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dashboard API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			if port == "" {
				port = app.Config.DashboardPort
			}

			runErr := make(chan error, 1)
			go func() { runErr <- app.Run(ctx) }()

			if err := app.Dashboard.Refresh(ctx); err != nil {
				slog.Warn("initial_refresh_failed", "error", err)
			}

			router := httpadapter.NewRouter(app.Dashboard, app.Toaster, httpadapter.Options{
				CORSOrigins: app.Config.CORSOrigins,
				Metrics:     app.Metrics,
				Logger:      slog.Default(),
			})
			server := &http.Server{
				Addr:              ":" + port,
				Handler:           router.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("dashboard_listening", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case <-ctx.Done():
			case err := <-serveErr:
				if err != nil {
					return fmt.Errorf("dashboard server: %w", err)
				}
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				slog.Error("dashboard_shutdown_failed", "error", err)
			}
			return <-runErr
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "dashboard port (overrides DASHBOARD_PORT)")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Upload a .txt, .docx or .pdf file and show its category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			// Without a catalog only the scored categories are listed.
			categories, _ := app.Dashboard.Categories.Load(ctx)

			fmt.Fprintf(cmd.OutOrStdout(), "Classifying %s (%d bytes)...\n", info.Name(), info.Size())
			workflow := app.Dashboard.Classify
			if _, err := workflow.ClassifyFile(ctx, domain.PendingFile{
				Name: filepath.Base(path),
				Size: info.Size(),
				Open: func() (io.ReadCloser, error) { return os.Open(path) },
			}); err != nil {
				return errors.New(domain.UserMessage(err))
			}
			result, ok := workflow.Result()
			if !ok {
				return errors.New("no classification result")
			}
			renderResult(cmd.OutOrStdout(), result, usecase.RankScores(categories, result.AllScores))
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previously classified documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			history := app.Dashboard.History
			// The first fetch learns how many pages exist.
			if err := history.Refresh(ctx); err != nil {
				return viewError(history.State().Message, err)
			}
			if page != 1 {
				if err := history.RequestPage(ctx, page); err != nil {
					if domain.IsKind(err, domain.ErrPageOutOfRange) {
						return fmt.Errorf("%s (pages 1-%d)", domain.UserMessage(err), history.Page().TotalPages)
					}
					return viewError(history.State().Message, err)
				}
			}
			renderHistory(cmd.OutOrStdout(), history.Page(), history.State().Payload.Documents)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page to show")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show classification statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			stats := app.Dashboard.Stats
			if err := stats.Refresh(ctx); err != nil {
				return viewError(stats.State().Message, err)
			}
			renderStats(cmd.OutOrStdout(), stats.Summary())
			return nil
		},
	}
}

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories the service can assign",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			categories, err := app.Dashboard.Categories.Load(ctx)
			if err != nil {
				return errors.New(domain.UserMessage(err))
			}
			for _, category := range categories {
				fmt.Fprintln(cmd.OutOrStdout(), category)
			}
			return nil
		},
	}
}

func downloadCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "download [document-id]",
		Short: "Print a temporary download link for a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			link, err := app.Dashboard.Downloads.Link(ctx, domain.DocumentID(args[0]))
			if err != nil {
				return errors.New(domain.UserMessage(err))
			}
			if outputDir == "" {
				fmt.Fprintln(cmd.OutOrStdout(), link)
				return nil
			}

			storage, err := localfs.New(outputDir)
			if err != nil {
				return err
			}
			path, err := saveLink(ctx, http.DefaultClient, storage, link, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "save the document into this directory instead of printing the link")
	return cmd
}

// saveLink fetches a signed link and stores the body under the link's file
// name, or under fallback when the link path has none.
func saveLink(ctx context.Context, client *http.Client, storage *localfs.Storage, link, fallback string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("download document: status %d", resp.StatusCode)
	}

	name := fallback
	if base := path.Base(req.URL.Path); base != "." && base != "/" {
		name = base
	}
	return storage.Save(ctx, name, resp.Body)
}

// viewError prefers the message the failed view shows and falls back to the
// error itself, e.g. after Ctrl-C.
func viewError(message string, err error) error {
	if message = strings.TrimSpace(message); message != "" {
		return errors.New(message)
	}
	return errors.New(domain.UserMessage(err))
}
