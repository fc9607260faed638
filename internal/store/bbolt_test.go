package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storyloom/collab/internal/permissions"
)

func tempDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.db")
}

func seedTestStore(t *testing.T) *BBoltStore {
	t.Helper()
	s, err := NewBBoltStore(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	err = s.SeedCatalog(Catalog{
		Books: map[string]BookRecord{
			"b1": {
				ID:      "b1",
				Title:   "The Long Winter",
				OwnerID: "u1",
				Members: map[string]permissions.Role{"u1": permissions.RoleOwner},
			},
		},
		Identities: map[string]IdentityRecord{
			"u2": {UID: "u2", Email: "u2@example.com", DisplayName: "Ada", EmailVerified: true},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}
	return s
}

func TestSeedCatalog_SkipsExisting(t *testing.T) {
	s := seedTestStore(t)

	err := s.SeedCatalog(Catalog{Books: map[string]BookRecord{
		"b1": {ID: "b1", Title: "Overwritten", OwnerID: "u9"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	books, err := s.GetAllBooks(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if books["b1"].Title != "The Long Winter" {
		t.Fatalf("seed must not overwrite, got title %q", books["b1"].Title)
	}
}

func TestLookupIdentity(t *testing.T) {
	s := seedTestStore(t)

	rec, err := s.LookupIdentity(context.Background(), "u2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil || rec.Email != "u2@example.com" || !rec.EmailVerified {
		t.Fatalf("unexpected identity: %+v", rec)
	}

	rec, err = s.LookupIdentity(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Fatal("expected nil for unknown identity")
	}
}

func TestUpdate_RollsBackOnError(t *testing.T) {
	s := seedTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		inv := &InviteRecord{ID: InviteKey("b1", "u2"), BookID: "b1", InviteeUID: "u2", Status: StatusPending}
		if err := tx.PutInvite(inv); err != nil {
			return err
		}
		if err := tx.AdjustUnreadCount("u2", 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		inv, err := tx.GetInvite(InviteKey("b1", "u2"))
		if err != nil {
			return err
		}
		if inv != nil {
			t.Fatal("invite write should have been rolled back")
		}
		p, err := tx.GetProfile("u2")
		if err != nil {
			return err
		}
		if p != nil {
			t.Fatal("profile write should have been rolled back")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestListInvitesByBook_PrefixIsolation(t *testing.T) {
	s := seedTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		for _, r := range []InviteRecord{
			{ID: InviteKey("b1", "u2"), BookID: "b1", InviteeUID: "u2", Status: StatusPending},
			{ID: InviteKey("b1", "u3"), BookID: "b1", InviteeUID: "u3", Status: StatusDeclined},
			{ID: InviteKey("b1__x", "u2"), BookID: "b1__x", InviteeUID: "u2", Status: StatusPending},
			{ID: InviteKey("b10", "u2"), BookID: "b10", InviteeUID: "u2", Status: StatusPending},
		} {
			if err := tx.PutInvite(&r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		got, err := tx.ListInvitesByBook("b1")
		if err != nil {
			return err
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 invites for b1, got %d", len(got))
		}

		byInvitee, err := tx.ListInvitesByInvitee("u2")
		if err != nil {
			return err
		}
		if len(byInvitee) != 3 {
			t.Fatalf("expected 3 invites for u2, got %d", len(byInvitee))
		}

		pending, err := tx.ListPendingInvites()
		if err != nil {
			return err
		}
		if len(pending) != 3 {
			t.Fatalf("expected 3 pending invites, got %d", len(pending))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotifications_PutDeleteList(t *testing.T) {
	s := seedTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	err := s.Update(ctx, func(tx *Tx) error {
		return tx.PutNotification(&NotificationRecord{
			ID: "b1__u2", RecipientUID: "u2", Type: NotificationTypeCoAuthorInvite, CreatedAt: now,
		})
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var deleted, deletedAgain bool
	err = s.Update(ctx, func(tx *Tx) error {
		list, err := tx.ListNotifications("u2")
		if err != nil {
			return err
		}
		if len(list) != 1 || !list[0].CreatedAt.Equal(now) {
			t.Fatalf("unexpected notifications: %+v", list)
		}
		if deleted, err = tx.DeleteNotification("u2", "b1__u2"); err != nil {
			return err
		}
		deletedAgain, err = tx.DeleteNotification("u2", "b1__u2")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !deleted {
		t.Fatal("expected first delete to report existing notification")
	}
	if deletedAgain {
		t.Fatal("expected second delete to be a no-op")
	}

	err = s.View(ctx, func(tx *Tx) error {
		n, err := tx.GetNotification("nobody", "b1__u2")
		if n != nil {
			t.Fatal("expected nil notification for unknown recipient")
		}
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAdjustUnreadCount_CreatesProfile(t *testing.T) {
	s := seedTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.AdjustUnreadCount("u2", 1); err != nil {
			return err
		}
		return tx.AdjustUnreadCount("u2", 1)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		p, err := tx.GetProfile("u2")
		if err != nil {
			return err
		}
		if p == nil || p.UnreadCount != 2 || p.UID != "u2" {
			t.Fatalf("unexpected profile: %+v", p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBookRecord_AlbumKey(t *testing.T) {
	b := BookRecord{ID: "b1"}
	if b.AlbumKey() != "b1" {
		t.Fatalf("expected book id fallback, got %q", b.AlbumKey())
	}
	b.AlbumID = "a9"
	if b.AlbumKey() != "a9" {
		t.Fatalf("expected album id, got %q", b.AlbumKey())
	}
}

func TestInviteRecord_Expired(t *testing.T) {
	now := time.Now()
	r := InviteRecord{Status: StatusPending, ExpiresAt: now}
	if !r.Expired(now) {
		t.Fatal("expiresAt == now must count as expired")
	}
	r.ExpiresAt = now.Add(time.Second)
	if r.Expired(now) {
		t.Fatal("future expiresAt must not be expired")
	}
	r = InviteRecord{Status: StatusAccepted, ExpiresAt: now.Add(-time.Hour)}
	if r.Expired(now) {
		t.Fatal("terminal invitations never report expired")
	}
}

func TestUpdate_CancelledContext(t *testing.T) {
	s := seedTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Update(ctx, func(tx *Tx) error {
		t.Fatal("fn must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewBBoltStore_InvalidPath(t *testing.T) {
	_, err := NewBBoltStore(filepath.Join(os.DevNull, "impossible", "path.db"))
	if err == nil {
		t.Fatal("expected error for invalid path")
	}
}
