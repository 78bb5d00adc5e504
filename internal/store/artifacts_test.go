package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/blueprinthub/gateway/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	db.SetMaxOpenConns(1)

	ddl := `
CREATE TABLE projects (
  project_id  TEXT PRIMARY KEY,
  name        TEXT NOT NULL,
  owner_token TEXT NOT NULL,
  created_at  TEXT NOT NULL
);
CREATE TABLE share_tokens (
  token      TEXT PRIMARY KEY,
  project_id TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
  expires_at TEXT
);
CREATE TABLE artifacts (
  artifact_id  TEXT PRIMARY KEY,
  project_id   TEXT NOT NULL REFERENCES projects(project_id) ON DELETE CASCADE,
  title        TEXT NOT NULL DEFAULT '',
  text_content TEXT NOT NULL DEFAULT '',
  object_key   TEXT NOT NULL DEFAULT '',
  mime_type    TEXT NOT NULL DEFAULT '',
  updated_at   TEXT NOT NULL
);
`
	if _, err := db.Exec(ddl); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	seed := `
INSERT INTO projects(project_id, name, owner_token, created_at)
VALUES ('p1', 'Atlas', 'owner-secret', '2026-01-01T00:00:00Z');
INSERT INTO share_tokens(token, project_id, expires_at)
VALUES ('share-live', 'p1', NULL),
       ('share-dead', 'p1', '2020-01-01T00:00:00Z');
INSERT INTO artifacts(artifact_id, project_id, title, text_content, object_key, mime_type, updated_at)
VALUES ('a1', 'p1', 'Floor plan', 'old text', 'images/a1.png', 'image/png', '2026-01-01T00:00:00Z');
`
	if _, err := db.Exec(seed); err != nil {
		t.Fatalf("seed data: %v", err)
	}

	return &Store{db: db, driver: "sqlite"}
}

func TestAuthorize(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name                      string
		project, bearer, share    string
		want                      bool
	}{
		{"owner token grants", "p1", "owner-secret", "", true},
		{"wrong bearer denied", "p1", "wrong", "", false},
		{"live share token grants", "p1", "", "share-live", true},
		{"expired share token denied", "p1", "", "share-dead", false},
		{"unknown project denied", "ghost", "owner-secret", "share-live", false},
		{"no credentials denied", "p1", "", "", false},
	}
	for _, tc := range cases {
		got, err := s.Authorize(ctx, tc.project, tc.bearer, tc.share)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestArtifactsByIDSkipsMissing(t *testing.T) {
	s := setupTestStore(t)

	got, err := s.ArtifactsByID(context.Background(), "p1", []string{"a1", "missing"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one artifact, got %d", len(got))
	}
	a := got["a1"]
	if a.TextContent != "old text" || a.ObjectKey != "images/a1.png" {
		t.Fatalf("unexpected artifact: %+v", a)
	}
}

func TestUpdateArtifactText(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	if err := s.UpdateArtifactText(ctx, "a1", "new text"); err != nil {
		t.Fatalf("update: %v", err)
	}
	var text, updated string
	if err := s.db.QueryRow(`SELECT text_content, updated_at FROM artifacts WHERE artifact_id='a1'`).Scan(&text, &updated); err != nil {
		t.Fatalf("query: %v", err)
	}
	if text != "new text" {
		t.Fatalf("text not updated: %q", text)
	}
	if _, err := time.Parse(time.RFC3339Nano, updated); err != nil {
		t.Fatalf("updated_at not a timestamp: %q", updated)
	}

	err := s.UpdateArtifactText(ctx, "missing", "x")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}
