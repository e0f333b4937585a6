package storage

import (
	"testing"

	"github.com/kalambet/giftgenius/internal/profile"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.CreateSession(Session{ID: id, Model: "gemini-1.5-flash", Profile: profile.Default()}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	createSession(t, s1, "persisted")
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
	if _, err := s2.GetSession("persisted"); err != nil {
		t.Errorf("session lost across reopen: %v", err)
	}
}

func TestIndexesExist(t *testing.T) {
	s := openTestStore(t)

	for _, idx := range []string{"idx_sessions_updated", "idx_gift_ideas_session", "idx_tag_suggestions_status"} {
		var count int
		err := s.db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name=?", idx).Scan(&count)
		if err != nil {
			t.Fatalf("querying sqlite_master for %q: %v", idx, err)
		}
		if count != 1 {
			t.Errorf("index %q not found in sqlite_master", idx)
		}
	}
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTestStore(t)

	p := profile.Default()
	p.Interests = []profile.Interest{{ID: "i1", Label: "Jazz", Level: profile.LevelExpert}}
	p.Blacklist = []profile.Tag{{ID: "t1", Label: "Alcool"}}
	if err := s.CreateSession(Session{ID: "s1", Model: "llama-3.1-8b-instant", Profile: p}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Model != "llama-3.1-8b-instant" {
		t.Errorf("Model = %q", got.Model)
	}
	if len(got.Profile.Interests) != 1 || got.Profile.Interests[0].Level != profile.LevelExpert {
		t.Errorf("Interests = %+v", got.Profile.Interests)
	}
	if got.Profile.CalmEnergy != 70 {
		t.Errorf("CalmEnergy = %d, want 70", got.Profile.CalmEnergy)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.GetSession("does-not-exist"); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSessionModel("does-not-exist", "x"); err != ErrNotFound {
		t.Errorf("UpdateSessionModel error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSession("does-not-exist"); err != ErrNotFound {
		t.Errorf("DeleteSession error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSession(t *testing.T) {
	s := openTestStore(t)
	createSession(t, s, "s1")

	p := profile.Default()
	p.Age = 61
	if err := s.UpdateSessionProfile("s1", p); err != nil {
		t.Fatalf("UpdateSessionProfile: %v", err)
	}
	if err := s.UpdateSessionModel("s1", "mixtral-8x7b-32768"); err != nil {
		t.Fatalf("UpdateSessionModel: %v", err)
	}

	got, err := s.GetSession("s1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Profile.Age != 61 || got.Model != "mixtral-8x7b-32768" {
		t.Errorf("got age=%d model=%q", got.Profile.Age, got.Model)
	}
	if !got.UpdatedAt.After(got.CreatedAt) && !got.UpdatedAt.Equal(got.CreatedAt) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", got.UpdatedAt, got.CreatedAt)
	}
}

func TestPrependGiftIdeas(t *testing.T) {
	s := openTestStore(t)
	createSession(t, s, "s1")

	first := []profile.GiftIdea{
		{ID: "g1", Title: "Atelier poterie", TagsUsed: []string{"Poterie", "Calme"}},
		{ID: "g2", Title: "Vinyle rare"},
	}
	second := []profile.GiftIdea{
		{ID: "g3", Title: "Cours de cuisine", TagsUsed: []string{"Cuisine", "Japon"}},
	}
	if err := s.PrependGiftIdeas("s1", "m", first); err != nil {
		t.Fatalf("PrependGiftIdeas: %v", err)
	}
	if err := s.PrependGiftIdeas("s1", "m", second); err != nil {
		t.Fatalf("PrependGiftIdeas: %v", err)
	}

	ideas, err := s.ListGiftIdeas("s1", false)
	if err != nil {
		t.Fatalf("ListGiftIdeas: %v", err)
	}
	wantOrder := []string{"g3", "g1", "g2"}
	if len(ideas) != len(wantOrder) {
		t.Fatalf("got %d ideas, want %d", len(ideas), len(wantOrder))
	}
	for i, id := range wantOrder {
		if ideas[i].ID != id {
			t.Errorf("ideas[%d] = %s, want %s", i, ideas[i].ID, id)
		}
	}
	if ideas[2].TagsUsed != nil {
		t.Errorf("empty tags_used should read back as nil, got %v", ideas[2].TagsUsed)
	}

	pairs, err := s.TagPairs("s1")
	if err != nil {
		t.Fatalf("TagPairs: %v", err)
	}
	if len(pairs) != 2 {
		t.Fatalf("got %d pairs, want 2: %v", len(pairs), pairs)
	}
}

func TestPrependGiftIdeas_UnknownSession(t *testing.T) {
	s := openTestStore(t)
	err := s.PrependGiftIdeas("nope", "m", []profile.GiftIdea{{ID: "g1"}})
	if err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDismissGiftIdea(t *testing.T) {
	s := openTestStore(t)
	createSession(t, s, "s1")
	if err := s.PrependGiftIdeas("s1", "m", []profile.GiftIdea{{ID: "g1", Title: "A"}, {ID: "g2", Title: "B"}}); err != nil {
		t.Fatalf("PrependGiftIdeas: %v", err)
	}

	g, err := s.DismissGiftIdea("s1", "g1")
	if err != nil {
		t.Fatalf("DismissGiftIdea: %v", err)
	}
	if !g.Dismissed || g.Title != "A" {
		t.Errorf("got %+v", g)
	}

	visible, _ := s.ListGiftIdeas("s1", false)
	if len(visible) != 1 || visible[0].ID != "g2" {
		t.Errorf("visible = %+v", visible)
	}
	all, _ := s.ListGiftIdeas("s1", true)
	if len(all) != 2 {
		t.Errorf("all = %d, want 2", len(all))
	}

	if _, err := s.DismissGiftIdea("s1", "missing"); err != ErrNotFound {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	s := openTestStore(t)
	createSession(t, s, "s1")
	if err := s.PrependGiftIdeas("s1", "m", []profile.GiftIdea{{ID: "g1", TagsUsed: []string{"a", "b"}}}); err != nil {
		t.Fatalf("PrependGiftIdeas: %v", err)
	}
	if err := s.OfferSuggestions("s1", []string{"Yoga"}); err != nil {
		t.Fatalf("OfferSuggestions: %v", err)
	}

	if err := s.DeleteSession("s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}

	for _, table := range []string{"gift_ideas", "tag_pairs", "tag_suggestions"} {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows", table, n)
		}
	}
}

func TestSuggestionLifecycle(t *testing.T) {
	s := openTestStore(t)
	createSession(t, s, "s1")

	if err := s.OfferSuggestions("s1", []string{"Yoga", "Escalade"}); err != nil {
		t.Fatalf("OfferSuggestions: %v", err)
	}
	if err := s.AcceptSuggestion("s1", "yoga"); err != nil {
		t.Fatalf("AcceptSuggestion: %v", err)
	}
	if err := s.IgnoreOffered("s1"); err != nil {
		t.Fatalf("IgnoreOffered: %v", err)
	}

	ignored, err := s.Suggestions("s1", SuggestionIgnored)
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(ignored) != 1 || ignored[0] != "Escalade" {
		t.Errorf("ignored = %v, want [Escalade]", ignored)
	}

	accepted, _ := s.Suggestions("s1", SuggestionAccepted)
	if len(accepted) != 1 {
		t.Errorf("accepted = %v", accepted)
	}

	// Re-offering an ignored label keeps it ignored.
	if err := s.OfferSuggestions("s1", []string{"ESCALADE"}); err != nil {
		t.Fatalf("OfferSuggestions: %v", err)
	}
	offered, _ := s.Suggestions("s1", SuggestionOffered)
	if len(offered) != 0 {
		t.Errorf("offered = %v, want none", offered)
	}
}
