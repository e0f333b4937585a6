package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kalambet/giftgenius/internal/profile"
)

// --- Sessions ---

func (s *Store) CreateSession(sess Session) error {
	pj, err := json.Marshal(sess.Profile)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.UpdatedAt.IsZero() {
		sess.UpdatedAt = sess.CreatedAt
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, created_at, updated_at, model, profile_json)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.CreatedAt.UTC().Format(time.RFC3339Nano), sess.UpdatedAt.UTC().Format(time.RFC3339Nano),
		sess.Model, string(pj),
	)
	return err
}

func (s *Store) GetSession(id string) (Session, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, updated_at, model, profile_json
		FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return Session{}, ErrNotFound
	}
	return sess, err
}

// ListSessions returns the most recently updated sessions first.
func (s *Store) ListSessions(limit int) ([]Session, error) {
	rows, err := s.db.Query(`
		SELECT id, created_at, updated_at, model, profile_json
		FROM sessions ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var sess Session
	var createdAt, updatedAt, pj string
	if err := r.Scan(&sess.ID, &createdAt, &updatedAt, &sess.Model, &pj); err != nil {
		return Session{}, err
	}
	var err error
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return Session{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return Session{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	if err := json.Unmarshal([]byte(pj), &sess.Profile); err != nil {
		return Session{}, fmt.Errorf("decoding profile of session %s: %w", sess.ID, err)
	}
	sess.Profile = sess.Profile.Normalize()
	return sess, nil
}

func (s *Store) UpdateSessionProfile(id string, p profile.Profile) error {
	pj, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	return s.touch(`UPDATE sessions SET profile_json = ?, updated_at = ? WHERE id = ?`, string(pj), now(), id)
}

func (s *Store) UpdateSessionModel(id, model string) error {
	return s.touch(`UPDATE sessions SET model = ?, updated_at = ? WHERE id = ?`, model, now(), id)
}

func (s *Store) DeleteSession(id string) error {
	return s.touch(`DELETE FROM sessions WHERE id = ?`, id)
}

// touch runs a single-row statement and maps zero affected rows to ErrNotFound.
func (s *Store) touch(query string, args ...any) error {
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// --- Gift ideas ---

// PrependGiftIdeas stores a new batch ahead of the session's existing ideas
// and records every two-tag combination the batch used.
func (s *Store) PrependGiftIdeas(sessionID, model string, ideas []profile.GiftIdea) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM sessions WHERE id = ?`, sessionID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	var batch int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(batch), 0) + 1 FROM gift_ideas WHERE session_id = ?`, sessionID).Scan(&batch); err != nil {
		return fmt.Errorf("selecting next batch: %w", err)
	}

	ts := now()
	for i, g := range ideas {
		tags, err := json.Marshal(nonNil(g.TagsUsed))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`
			INSERT INTO gift_ideas (id, session_id, batch, position, emoji, category, title, reasoning, price, tags_used, model, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, sessionID, batch, i, g.Emoji, g.Category, g.Title, g.Reasoning, g.Price, string(tags), model, ts,
		); err != nil {
			return fmt.Errorf("inserting gift idea %s: %w", g.ID, err)
		}
		if len(g.TagsUsed) == 2 {
			if _, err := tx.Exec(`
				INSERT INTO tag_pairs (session_id, a, b, created_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(session_id, a, b) DO NOTHING`,
				sessionID, g.TagsUsed[0], g.TagsUsed[1], ts,
			); err != nil {
				return fmt.Errorf("recording tag pair: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`UPDATE sessions SET updated_at = ? WHERE id = ?`, ts, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// ListGiftIdeas returns the session's ideas, newest batch first.
func (s *Store) ListGiftIdeas(sessionID string, includeDismissed bool) ([]GiftRecord, error) {
	query := `
		SELECT id, session_id, emoji, category, title, reasoning, price, tags_used, model, dismissed, created_at
		FROM gift_ideas WHERE session_id = ?`
	if !includeDismissed {
		query += ` AND dismissed = 0`
	}
	query += ` ORDER BY batch DESC, position ASC`

	rows, err := s.db.Query(query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GiftRecord
	for rows.Next() {
		var g GiftRecord
		var tags, createdAt string
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Emoji, &g.Category, &g.Title, &g.Reasoning, &g.Price,
			&tags, &g.Model, &g.Dismissed, &createdAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(tags), &g.TagsUsed); err != nil {
			return nil, fmt.Errorf("decoding tags_used of %s: %w", g.ID, err)
		}
		if len(g.TagsUsed) == 0 {
			g.TagsUsed = nil
		}
		if g.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// DismissGiftIdea hides an idea from the session's visible history. Its title
// still counts as already suggested.
func (s *Store) DismissGiftIdea(sessionID, giftID string) (GiftRecord, error) {
	if err := s.touch(`UPDATE gift_ideas SET dismissed = 1 WHERE session_id = ? AND id = ?`, sessionID, giftID); err != nil {
		return GiftRecord{}, err
	}
	all, err := s.ListGiftIdeas(sessionID, true)
	if err != nil {
		return GiftRecord{}, err
	}
	for _, g := range all {
		if g.ID == giftID {
			return g, nil
		}
	}
	return GiftRecord{}, ErrNotFound
}

// TagPairs returns the two-tag combinations already used in the session,
// oldest first.
func (s *Store) TagPairs(sessionID string) ([][]string, error) {
	rows, err := s.db.Query(`SELECT a, b FROM tag_pairs WHERE session_id = ? ORDER BY created_at ASC, a ASC, b ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var a, b string
		if err := rows.Scan(&a, &b); err != nil {
			return nil, err
		}
		out = append(out, []string{a, b})
	}
	return out, rows.Err()
}

// --- Tag suggestions ---

// OfferSuggestions records labels shown to the user. Labels already known
// keep their status.
func (s *Store) OfferSuggestions(sessionID string, labels []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	for _, l := range labels {
		if _, err := tx.Exec(`
			INSERT INTO tag_suggestions (session_id, label_key, label, status, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(session_id, label_key) DO NOTHING`,
			sessionID, labelKey(l), l, SuggestionOffered, ts,
		); err != nil {
			return fmt.Errorf("recording suggestion %q: %w", l, err)
		}
	}
	return tx.Commit()
}

// IgnoreOffered turns every pending suggestion of the session into an
// ignored one.
func (s *Store) IgnoreOffered(sessionID string) error {
	_, err := s.db.Exec(`UPDATE tag_suggestions SET status = ?, updated_at = ? WHERE session_id = ? AND status = ?`,
		SuggestionIgnored, now(), sessionID, SuggestionOffered)
	return err
}

// AcceptSuggestion marks label as accepted, inserting it if it was never
// offered.
func (s *Store) AcceptSuggestion(sessionID, label string) error {
	_, err := s.db.Exec(`
		INSERT INTO tag_suggestions (session_id, label_key, label, status, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id, label_key) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		sessionID, labelKey(label), strings.TrimSpace(label), SuggestionAccepted, now(),
	)
	return err
}

// Suggestions returns the labels of the session with the given status.
func (s *Store) Suggestions(sessionID, status string) ([]string, error) {
	rows, err := s.db.Query(`SELECT label FROM tag_suggestions WHERE session_id = ? AND status = ? ORDER BY updated_at ASC, label_key ASC`,
		sessionID, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func labelKey(l string) string {
	return strings.ToLower(strings.TrimSpace(l))
}
