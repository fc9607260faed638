// Package collab coordinates co-author invitations, their notifications and
// the book access they grant. Every state change that spans records runs in a
// single store transaction.
package collab

import (
	"context"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/store"
)

const meterName = "github.com/storyloom/collab/internal/collab"

// Policy holds the invitation limits.
type Policy struct {
	InviteTTL               time.Duration
	ResendCooldown          time.Duration
	MaxPendingPerRecipient  int
	MaxCoAuthorsPerBook     int
	MaxPendingPerBook       int
	NotificationPageSize    int
	NotificationMaxPageSize int
}

// DefaultPolicy returns the production limits.
func DefaultPolicy() Policy {
	return Policy{
		InviteTTL:               7 * 24 * time.Hour,
		ResendCooldown:          10 * time.Minute,
		MaxPendingPerRecipient:  10,
		MaxCoAuthorsPerBook:     5,
		MaxPendingPerBook:       5,
		NotificationPageSize:    20,
		NotificationMaxPageSize: 50,
	}
}

// Caller is the authenticated identity behind a request.
type Caller struct {
	UID           string
	Email         string
	Name          string
	EmailVerified bool
}

// Directory answers identity-provider questions about arbitrary users.
// A nil record with a nil error means the user does not exist.
type Directory interface {
	LookupIdentity(ctx context.Context, uid string) (*store.IdentityRecord, error)
}

type Service struct {
	store  store.CollabStore
	dir    Directory
	policy Policy
	clock  func() time.Time
	log    *log.Entry

	negativeCounter metric.Int64Counter

	// tracks fire-and-forget profile writes
	background sync.WaitGroup
}

// NewService wires the lifecycle engine. clock may be nil.
func NewService(s store.CollabStore, dir Directory, policy Policy, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	logger := log.WithField("component", "collab")

	counter, err := otel.Meter(meterName).Int64Counter(
		"collab.unread_counter.negative_corrections",
		metric.WithDescription("Unread counters observed below zero and reset"),
	)
	if err != nil {
		logger.WithError(err).Warn("creating negative counter metric")
		counter = noop.Int64Counter{}
	}

	return &Service{
		store:           s,
		dir:             dir,
		policy:          policy,
		clock:           clock,
		log:             logger,
		negativeCounter: counter,
	}
}

// Wait blocks until background profile writes have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

func requireCaller(c Caller) error {
	if strings.TrimSpace(c.UID) == "" {
		return apperrors.New(apperrors.CodeUnauthenticated, "authentication required")
	}
	return nil
}

// requireVerified trusts a verified claim, otherwise asks the identity
// provider and mirrors a positive answer onto the caller's profile.
func (s *Service) requireVerified(ctx context.Context, c Caller) error {
	if c.EmailVerified {
		return nil
	}
	ident, err := s.dir.LookupIdentity(ctx, c.UID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeIdentityLookupFailed, "looking up caller identity", err)
	}
	if ident == nil || !ident.EmailVerified {
		return apperrors.New(apperrors.CodeEmailNotVerified, "verify your email address before collaborating")
	}
	s.mirrorProfile(c.UID, ident, true)
	return nil
}

func (s *Service) lookupInvitee(ctx context.Context, uid string) (*store.IdentityRecord, error) {
	ident, err := s.dir.LookupIdentity(ctx, uid)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeIdentityLookupFailed, "looking up invitee", err)
	}
	if ident == nil {
		return nil, apperrors.Newf(apperrors.CodeUserNotFound, "user %s not found", uid)
	}
	return ident, nil
}

func (s *Service) displayName(ctx context.Context, c Caller) string {
	if c.Name != "" {
		return c.Name
	}
	ident, err := s.dir.LookupIdentity(ctx, c.UID)
	if err != nil || ident == nil {
		return ""
	}
	return ident.DisplayName
}

func (s *Service) loadBook(ctx context.Context, bookID string) (*store.BookRecord, error) {
	var book *store.BookRecord
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		book, err = tx.GetBook(bookID)
		return err
	})
	if err != nil {
		return nil, storageErr("reading book", err)
	}
	if book == nil {
		return nil, apperrors.Newf(apperrors.CodeBookNotFound, "book %s not found", bookID)
	}
	return book, nil
}

func (s *Service) loadInvite(ctx context.Context, id string) (*store.InviteRecord, error) {
	var inv *store.InviteRecord
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		inv, err = tx.GetInvite(id)
		return err
	})
	if err != nil {
		return nil, storageErr("reading invitation", err)
	}
	return inv, nil
}

// storageErr keeps application errors intact and marks everything else as a
// storage failure.
func storageErr(msg string, err error) error {
	if apperrors.GetCode(err) != apperrors.CodeUnknown {
		return err
	}
	return apperrors.Wrap(apperrors.CodeStorage, msg, err)
}

func txBook(tx *store.Tx, bookID string) (*store.BookRecord, error) {
	book, err := tx.GetBook(bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, apperrors.Newf(apperrors.CodeBookNotFound, "book %s not found", bookID)
	}
	return book, nil
}

// mirrorProfile copies identity facts onto the profile without blocking or
// failing the caller.
func (s *Service) mirrorProfile(uid string, ident *store.IdentityRecord, verified bool) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		err := s.store.Update(context.Background(), func(tx *store.Tx) error {
			p, err := tx.Profile(uid)
			if err != nil {
				return err
			}
			p.EmailVerified = verified
			if ident != nil {
				if p.Email == "" {
					p.Email = ident.Email
				}
				if p.DisplayName == "" {
					p.DisplayName = ident.DisplayName
				}
			}
			return tx.PutProfile(p)
		})
		if err != nil {
			s.log.WithError(err).WithField("uid", uid).Warn("mirroring auth flags onto profile failed")
		}
	}()
}
