package kb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// Store is the local sqlite-backed primary knowledge base.
//
// WAL is enabled to support concurrent reads while an importer writes; the
// pipeline itself only reads.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	p := filepath.Clean(strings.TrimSpace(path))
	if p == "" {
		return nil, errors.New("missing db path")
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS projects (
  slug TEXT PRIMARY KEY,
  title TEXT NOT NULL DEFAULT '',
  client TEXT NOT NULL DEFAULT '',
  timeframe TEXT NOT NULL DEFAULT '',
  role_title TEXT NOT NULL DEFAULT '',
  summary_short TEXT NOT NULL DEFAULT '',
  summary_long TEXT NOT NULL DEFAULT '',
  skills_json TEXT NOT NULL DEFAULT '[]',
  links_json TEXT NOT NULL DEFAULT '[]'
);
CREATE TABLE IF NOT EXISTS project_sections (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  project_slug TEXT NOT NULL,
  section_type TEXT NOT NULL,
  content TEXT NOT NULL DEFAULT '',
  key_points_json TEXT NOT NULL DEFAULT '[]',
  metrics_json TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS idx_project_sections_slug ON project_sections(project_slug);
CREATE TABLE IF NOT EXISTS media (
  id TEXT PRIMARY KEY,
  project_slug TEXT,
  type TEXT NOT NULL DEFAULT 'image',
  role TEXT NOT NULL DEFAULT 'inline',
  alt TEXT NOT NULL DEFAULT '',
  caption TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL DEFAULT '',
  storage_bucket TEXT NOT NULL DEFAULT '',
  storage_path TEXT NOT NULL DEFAULT '',
  width INTEGER NOT NULL DEFAULT 0,
  height INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_media_project_slug ON media(project_slug);
CREATE TABLE IF NOT EXISTS profile (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  headline TEXT NOT NULL DEFAULT '',
  summary_short TEXT NOT NULL DEFAULT '',
  summary_long TEXT NOT NULL DEFAULT '',
  skills_json TEXT NOT NULL DEFAULT '[]',
  tools_json TEXT NOT NULL DEFAULT '[]',
  values_json TEXT NOT NULL DEFAULT '[]',
  contact_json TEXT NOT NULL DEFAULT '{}'
);
`)
	return err
}

// ProjectRow mirrors the projects table.
type ProjectRow struct {
	Slug         string
	Title        string
	Client       string
	Timeframe    string
	RoleTitle    string
	SummaryShort string
	SummaryLong  string
	Skills       []string
	Links        []Link
}

// SectionRow mirrors the project_sections table.
type SectionRow struct {
	ProjectSlug string
	SectionType string
	Content     string
	KeyPoints   []string
	Metrics     []string
}

func (s *Store) ListProjects(ctx context.Context) ([]ProjectRow, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not open")
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT slug, title, client, timeframe, role_title, summary_short, summary_long, skills_json, links_json
FROM projects ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProjectRow
	for rows.Next() {
		var r ProjectRow
		var skillsJSON, linksJSON string
		if err := rows.Scan(&r.Slug, &r.Title, &r.Client, &r.Timeframe, &r.RoleTitle, &r.SummaryShort, &r.SummaryLong, &skillsJSON, &linksJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(skillsJSON), &r.Skills)
		_ = json.Unmarshal([]byte(linksJSON), &r.Links)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, slug string) (*ProjectRow, []SectionRow, []MediaRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil, nil, errors.New("store not open")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, nil, nil, errors.New("missing slug")
	}

	var r ProjectRow
	var skillsJSON, linksJSON string
	err := s.db.QueryRowContext(ctx, `
SELECT slug, title, client, timeframe, role_title, summary_short, summary_long, skills_json, links_json
FROM projects WHERE slug = ?`, slug).
		Scan(&r.Slug, &r.Title, &r.Client, &r.Timeframe, &r.RoleTitle, &r.SummaryShort, &r.SummaryLong, &skillsJSON, &linksJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil, nil
	}
	if err != nil {
		return nil, nil, nil, err
	}
	_ = json.Unmarshal([]byte(skillsJSON), &r.Skills)
	_ = json.Unmarshal([]byte(linksJSON), &r.Links)

	sections, err := s.listSections(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}
	media, err := s.mediaByProject(ctx, slug)
	if err != nil {
		return nil, nil, nil, err
	}
	return &r, sections, media, nil
}

func (s *Store) listSections(ctx context.Context, slug string) ([]SectionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT project_slug, section_type, content, key_points_json, metrics_json
FROM project_sections WHERE project_slug = ? ORDER BY id`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SectionRow
	for rows.Next() {
		var r SectionRow
		var kpJSON, metricsJSON string
		if err := rows.Scan(&r.ProjectSlug, &r.SectionType, &r.Content, &kpJSON, &metricsJSON); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(kpJSON), &r.KeyPoints)
		_ = json.Unmarshal([]byte(metricsJSON), &r.Metrics)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListMedia(ctx context.Context) ([]MediaRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not open")
	}
	return s.queryMedia(ctx, `
SELECT id, COALESCE(project_slug, ''), type, role, alt, caption, url, storage_bucket, storage_path, width, height
FROM media ORDER BY id`)
}

func (s *Store) mediaByProject(ctx context.Context, slug string) ([]MediaRecord, error) {
	return s.queryMedia(ctx, `
SELECT id, COALESCE(project_slug, ''), type, role, alt, caption, url, storage_bucket, storage_path, width, height
FROM media WHERE project_slug = ? ORDER BY id`, slug)
}

// MediaByIDs fetches the given media records; unknown ids are simply absent
// from the result.
func (s *Store) MediaByIDs(ctx context.Context, ids []string) ([]MediaRecord, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not open")
	}
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, 0, len(ids))
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		placeholders = append(placeholders, "?")
		args = append(args, id)
	}
	if len(args) == 0 {
		return nil, nil
	}
	q := fmt.Sprintf(`
SELECT id, COALESCE(project_slug, ''), type, role, alt, caption, url, storage_bucket, storage_path, width, height
FROM media WHERE id IN (%s) ORDER BY id`, strings.Join(placeholders, ","))
	return s.queryMedia(ctx, q, args...)
}

func (s *Store) queryMedia(ctx context.Context, query string, args ...any) ([]MediaRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MediaRecord
	for rows.Next() {
		var m MediaRecord
		var mType, mRole string
		if err := rows.Scan(&m.ID, &m.ProjectSlug, &mType, &mRole, &m.Alt, &m.Caption, &m.URL, &m.StorageBucket, &m.StoragePath, &m.Width, &m.Height); err != nil {
			return nil, err
		}
		m.Type = MediaType(mType)
		m.Role = MediaRole(mRole)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) GetProfile(ctx context.Context) (*Identity, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store not open")
	}
	var id Identity
	var skillsJSON, toolsJSON, valuesJSON, contactJSON string
	err := s.db.QueryRowContext(ctx, `
SELECT headline, summary_short, summary_long, skills_json, tools_json, values_json, contact_json
FROM profile WHERE id = 1`).
		Scan(&id.Headline, &id.SummaryShort, &id.SummaryLong, &skillsJSON, &toolsJSON, &valuesJSON, &contactJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(skillsJSON), &id.Skills)
	_ = json.Unmarshal([]byte(toolsJSON), &id.Tools)
	_ = json.Unmarshal([]byte(valuesJSON), &id.Values)
	var contact Contact
	if json.Unmarshal([]byte(contactJSON), &contact) == nil && (contact.Email != "" || contact.Website != "") {
		id.Contact = &contact
	}
	return &id, nil
}

// Seed helpers used by importers and tests.

func (s *Store) UpsertProject(ctx context.Context, r ProjectRow) error {
	if s == nil || s.db == nil {
		return errors.New("store not open")
	}
	skillsJSON, _ := json.Marshal(r.Skills)
	linksJSON, _ := json.Marshal(r.Links)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO projects (slug, title, client, timeframe, role_title, summary_short, summary_long, skills_json, links_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
  title=excluded.title, client=excluded.client, timeframe=excluded.timeframe,
  role_title=excluded.role_title, summary_short=excluded.summary_short,
  summary_long=excluded.summary_long, skills_json=excluded.skills_json, links_json=excluded.links_json`,
		r.Slug, r.Title, r.Client, r.Timeframe, r.RoleTitle, r.SummaryShort, r.SummaryLong, string(skillsJSON), string(linksJSON))
	return err
}

func (s *Store) InsertSection(ctx context.Context, r SectionRow) error {
	if s == nil || s.db == nil {
		return errors.New("store not open")
	}
	kpJSON, _ := json.Marshal(r.KeyPoints)
	metricsJSON, _ := json.Marshal(r.Metrics)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO project_sections (project_slug, section_type, content, key_points_json, metrics_json)
VALUES (?, ?, ?, ?, ?)`,
		r.ProjectSlug, r.SectionType, r.Content, string(kpJSON), string(metricsJSON))
	return err
}

func (s *Store) UpsertMedia(ctx context.Context, m MediaRecord) error {
	if s == nil || s.db == nil {
		return errors.New("store not open")
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO media (id, project_slug, type, role, alt, caption, url, storage_bucket, storage_path, width, height)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  project_slug=excluded.project_slug, type=excluded.type, role=excluded.role,
  alt=excluded.alt, caption=excluded.caption, url=excluded.url,
  storage_bucket=excluded.storage_bucket, storage_path=excluded.storage_path,
  width=excluded.width, height=excluded.height`,
		m.ID, m.ProjectSlug, string(m.Type), string(m.Role), m.Alt, m.Caption, m.URL, m.StorageBucket, m.StoragePath, m.Width, m.Height)
	return err
}

func (s *Store) UpsertProfile(ctx context.Context, id Identity) error {
	if s == nil || s.db == nil {
		return errors.New("store not open")
	}
	skillsJSON, _ := json.Marshal(id.Skills)
	toolsJSON, _ := json.Marshal(id.Tools)
	valuesJSON, _ := json.Marshal(id.Values)
	contact := Contact{}
	if id.Contact != nil {
		contact = *id.Contact
	}
	contactJSON, _ := json.Marshal(contact)
	_, err := s.db.ExecContext(ctx, `
INSERT INTO profile (id, headline, summary_short, summary_long, skills_json, tools_json, values_json, contact_json)
VALUES (1, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  headline=excluded.headline, summary_short=excluded.summary_short,
  summary_long=excluded.summary_long, skills_json=excluded.skills_json,
  tools_json=excluded.tools_json, values_json=excluded.values_json, contact_json=excluded.contact_json`,
		id.Headline, id.SummaryShort, id.SummaryLong, string(skillsJSON), string(toolsJSON), string(valuesJSON), string(contactJSON))
	return err
}
