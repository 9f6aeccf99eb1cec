package auth

import (
	"testing"
	"time"

	"github.com/shoplite/shoplite/internal/database"
)

func TestGenerateToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		token, err := generateToken()
		if err != nil {
			t.Fatalf("generateToken returned error: %v", err)
		}
		if len(token) != TokenLength {
			t.Fatalf("expected %d-char token, got %d", TokenLength, len(token))
		}
		for _, r := range token {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')) {
				t.Fatalf("token contains non-alphanumeric rune %q", r)
			}
		}
		if seen[token] {
			t.Fatalf("token %q repeated", token)
		}
		seen[token] = true
	}
}

func TestCreateSession_ImmediatelyLive(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if session.ID == 0 {
		t.Fatal("expected store-assigned session id")
	}
	if session.Authorized {
		t.Fatal("new session must be unauthenticated")
	}

	live, err := s.CheckLive(session)
	if err != nil {
		t.Fatalf("CheckLive returned error: %v", err)
	}
	if !live {
		t.Fatal("expected fresh session to be live")
	}
}

func TestCheckLive_TenMinuteBoundary(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 9m59s ago: still live
	if err := db.UpdateSession(
		map[string]any{"last_activity": time.Now().Add(-(9*time.Minute + 59*time.Second))},
		map[string]any{"id": session.ID},
	); err != nil {
		t.Fatalf("UpdateSession returned error: %v", err)
	}
	live, err := s.CheckLive(session)
	if err != nil {
		t.Fatalf("CheckLive returned error: %v", err)
	}
	if !live {
		t.Fatal("expected session at 9m59s to be live")
	}

	// Exactly 10 minutes ago: dead
	if err := db.UpdateSession(
		map[string]any{"last_activity": time.Now().Add(-10 * time.Minute)},
		map[string]any{"id": session.ID},
	); err != nil {
		t.Fatalf("UpdateSession returned error: %v", err)
	}
	live, err = s.CheckLive(session)
	if err != nil {
		t.Fatalf("CheckLive returned error: %v", err)
	}
	if live {
		t.Fatal("expected session at 10m to be dead")
	}
}

func TestCheckLive_MissingRowIsFalseNotError(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if err := db.DeleteWhere("session", map[string]any{"id": session.ID}); err != nil {
		t.Fatalf("DeleteWhere returned error: %v", err)
	}

	live, err := s.CheckLive(session)
	if err != nil {
		t.Fatalf("expected no error for missing row, got %v", err)
	}
	if live {
		t.Fatal("expected missing session to be dead")
	}
}

func TestAuthorize_LinksCustomer(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	c := &database.Customer{Telephone: "5551234", Password: "digest"}
	if err := db.AddCustomer(c); err != nil {
		t.Fatalf("AddCustomer returned error: %v", err)
	}

	if err := s.Authorize(session, c.ID); err != nil {
		t.Fatalf("Authorize returned error: %v", err)
	}

	found, err := s.Find(map[string]any{"id": session.ID, "token": session.Token})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if !found.Authorized {
		t.Fatal("expected session to be authorized")
	}
	if found.Customer == nil || *found.Customer != c.ID {
		t.Fatalf("expected customer link %d, got %v", c.ID, found.Customer)
	}
}

func TestAuthorize_SilentOverwrite(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	first := &database.Customer{Telephone: "5551111", Password: "digest"}
	second := &database.Customer{Telephone: "5552222", Password: "digest"}
	for _, c := range []*database.Customer{first, second} {
		if err := db.AddCustomer(c); err != nil {
			t.Fatalf("AddCustomer returned error: %v", err)
		}
	}

	if err := s.Authorize(session, first.ID); err != nil {
		t.Fatalf("first Authorize returned error: %v", err)
	}
	// Re-authorization to a different party overwrites without complaint
	if err := s.Authorize(session, second.ID); err != nil {
		t.Fatalf("second Authorize returned error: %v", err)
	}

	found, err := s.Find(map[string]any{"id": session.ID})
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if found.Customer == nil || *found.Customer != second.ID {
		t.Fatalf("expected link to customer %d, got %v", second.ID, found.Customer)
	}
}

func TestTouch_RevivesSession(t *testing.T) {
	db := openTestDB(t)
	s := NewSessions(db)

	session, err := s.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := db.UpdateSession(
		map[string]any{"last_activity": time.Now().Add(-30 * time.Minute)},
		map[string]any{"id": session.ID},
	); err != nil {
		t.Fatalf("UpdateSession returned error: %v", err)
	}
	if live, _ := s.CheckLive(session); live {
		t.Fatal("expected stale session to be dead")
	}

	if err := s.Touch(session); err != nil {
		t.Fatalf("Touch returned error: %v", err)
	}
	live, err := s.CheckLive(session)
	if err != nil {
		t.Fatalf("CheckLive returned error: %v", err)
	}
	if !live {
		t.Fatal("expected touched session to be live again")
	}
}
