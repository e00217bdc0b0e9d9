// Package storage holds the Google Drive and Sheets adapters behind
// the artifact and row-sink ports.
package storage

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/vcdesk/deckeval/internal/ports"
)

const markdownMIME = "text/markdown"

// DriveStore publishes Markdown reports into one Drive folder.
// Publishing the same name twice updates the existing file, so reruns
// never accumulate copies.
type DriveStore struct {
	service  *drive.Service
	folderID string
}

var _ ports.ArtifactStore = (*DriveStore)(nil)

// NewDriveStore builds a store over the folder identified by folderID.
// credentialsJSON is a service account key; empty falls back to
// application default credentials.
func NewDriveStore(ctx context.Context, folderID string, credentialsJSON []byte) (*DriveStore, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder ID is required")
	}

	var opts []option.ClientOption
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating drive service: %w", err)
	}
	return &DriveStore{service: service, folderID: folderID}, nil
}

// PublishReport uploads the report, replacing any file of the same
// name already in the folder.
func (s *DriveStore) PublishReport(ctx context.Context, name, markdown string) (string, string, error) {
	existingID, err := s.findByName(ctx, name)
	if err != nil {
		return "", "", err
	}

	if existingID != "" {
		updated, err := s.service.Files.Update(existingID, &drive.File{}).
			Media(strings.NewReader(markdown)).
			Fields("id", "webViewLink").
			SupportsAllDrives(true).
			Context(ctx).Do()
		if err != nil {
			return "", "", fmt.Errorf("updating report %s: %w", name, err)
		}
		return updated.Id, updated.WebViewLink, nil
	}

	created, err := s.service.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{s.folderID},
		MimeType: markdownMIME,
	}).
		Media(strings.NewReader(markdown)).
		Fields("id", "webViewLink").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("creating report %s: %w", name, err)
	}
	return created.Id, created.WebViewLink, nil
}

func (s *DriveStore) findByName(ctx context.Context, name string) (string, error) {
	query := fmt.Sprintf("'%s' in parents and trashed = false and name = '%s' and mimeType = '%s'",
		s.folderID, escapeQuery(name), markdownMIME)

	resp, err := s.service.Files.List().
		Q(query).
		Fields("files(id,name)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("listing reports named %s: %w", name, err)
	}
	if len(resp.Files) == 0 {
		return "", nil
	}
	return resp.Files[0].Id, nil
}

// escapeQuery escapes single quotes and backslashes for Drive query
// string literals.
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}
