package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/blueprinthub/gateway/internal/model"
)

// Artifact is the store's view of one project artifact: the persisted
// extracted text plus the object key of its source image, if any.
type Artifact struct {
	ArtifactID  string
	ProjectID   string
	Title       string
	TextContent string
	ObjectKey   string
	MimeType    string
}

// Authorize reports whether the caller may act on the project: either the
// bearer token matches the project's owner token, or the share token is
// valid and unexpired. An unknown project is a denial, not an error.
func (s *Store) Authorize(ctx context.Context, projectID, bearerToken, shareToken string) (bool, error) {
	var ownerToken string
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT owner_token FROM projects WHERE project_id = ?`), projectID).
		Scan(&ownerToken)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load project: %w", err)
	}

	if bearerToken != "" && bearerToken == ownerToken {
		return true, nil
	}

	if shareToken != "" {
		now := time.Now().UTC().Format(time.RFC3339Nano)
		var count int
		err := s.db.QueryRowContext(ctx, s.rebind(`
			SELECT COUNT(1) FROM share_tokens
			WHERE token = ? AND project_id = ? AND (expires_at IS NULL OR expires_at > ?)`),
			shareToken, projectID, now).Scan(&count)
		if err != nil {
			return false, fmt.Errorf("check share token: %w", err)
		}
		return count > 0, nil
	}

	return false, nil
}

// ArtifactsByID loads the requested artifacts of a project, keyed by id.
// Missing ids are simply absent from the result; the caller decides how to
// report them.
func (s *Store) ArtifactsByID(ctx context.Context, projectID string, ids []string) (map[string]Artifact, error) {
	out := make(map[string]Artifact, len(ids))
	for _, id := range ids {
		var a Artifact
		err := s.db.QueryRowContext(ctx, s.rebind(`
			SELECT artifact_id, project_id, title, text_content, object_key, mime_type
			FROM artifacts WHERE artifact_id = ? AND project_id = ?`),
			id, projectID).
			Scan(&a.ArtifactID, &a.ProjectID, &a.Title, &a.TextContent, &a.ObjectKey, &a.MimeType)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load artifact %s: %w", id, err)
		}
		out[id] = a
	}
	return out, nil
}

// UpdateArtifactText writes extracted text back to an artifact.
func (s *Store) UpdateArtifactText(ctx context.Context, artifactID, text string) error {
	res, err := s.db.ExecContext(ctx,
		s.rebind(`UPDATE artifacts SET text_content = ?, updated_at = ? WHERE artifact_id = ?`),
		text, time.Now().UTC().Format(time.RFC3339Nano), artifactID)
	if err != nil {
		return fmt.Errorf("update artifact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &model.NotFoundError{Resource: "artifact", ID: artifactID}
	}
	return nil
}
