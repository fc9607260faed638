package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storyloom/collab/internal/auth"
	"github.com/storyloom/collab/internal/collab"
	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedDB writes a book with one invitation created at createdAt and closes the store.
func seedDB(t *testing.T, createdAt time.Time) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "collab.db")
	st, err := store.NewBBoltStore(dbPath)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	err = st.SeedCatalog(store.Catalog{
		Books: map[string]store.BookRecord{
			"b1": {ID: "b1", Title: "Salt Roads", OwnerID: "u1", Members: map[string]permissions.Role{"u1": permissions.RoleOwner}},
		},
		Identities: map[string]store.IdentityRecord{
			"u1": {UID: "u1", DisplayName: "Olive", EmailVerified: true},
			"u2": {UID: "u2", DisplayName: "Ben", EmailVerified: true},
		},
	})
	if err != nil {
		t.Fatalf("failed to seed: %v", err)
	}

	svc := collab.NewService(st, st, collab.DefaultPolicy(), func() time.Time { return createdAt })
	owner := collab.Caller{UID: "u1", Name: "Olive", EmailVerified: true}
	if _, err := svc.Invite(context.Background(), owner, collab.InviteRequest{BookID: "b1", InviteeUID: "u2"}); err != nil {
		t.Fatalf("invite: %v", err)
	}
	svc.Wait()
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return dbPath
}

func TestInvitesCommand_RendersTable(t *testing.T) {
	dbPath := seedDB(t, time.Now())

	out, err := runCLI(t, "--db", dbPath, "invites")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"ID", "Expires", "b1__u2", "Salt Roads", "pending", "media"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "--db", dbPath, "invites", "--status", "accepted")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "No invitations found") {
		t.Fatalf("expected empty result, got:\n%s", out)
	}
}

func TestSweepCommand_ExpiresOverdue(t *testing.T) {
	dbPath := seedDB(t, time.Now().Add(-8*24*time.Hour))

	out, err := runCLI(t, "--db", dbPath, "sweep")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Expired 1 invitation(s)") {
		t.Fatalf("unexpected output: %s", out)
	}

	out, err = runCLI(t, "--db", dbPath, "invites", "--status", "expired")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "b1__u2") {
		t.Fatalf("expected the invite to be expired, got:\n%s", out)
	}
}

func TestTokenCommand(t *testing.T) {
	out, err := runCLI(t, "token", "--uid", "u7", "--name", "Rae", "--verified", "--secret", "cli-secret", "--issuer", "storyloom")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, err := auth.NewVerifier("cli-secret", "storyloom")
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	caller, err := v.Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("minted token rejected: %v", err)
	}
	if caller.UID != "u7" || caller.Name != "Rae" || !caller.EmailVerified {
		t.Fatalf("unexpected caller: %+v", caller)
	}
}

func TestTokenCommand_RequiresUID(t *testing.T) {
	if _, err := runCLI(t, "token", "--secret", "cli-secret"); err == nil {
		t.Fatal("expected error without --uid")
	}
}
