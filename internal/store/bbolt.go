package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var (
	invitesBucket       = []byte("invites")
	notificationsBucket = []byte("notifications")
	profilesBucket      = []byte("profiles")
	booksBucket         = []byte("books")
	albumsBucket        = []byte("albums")
	identitiesBucket    = []byte("identities")

	allBuckets = [][]byte{
		invitesBucket, notificationsBucket, profilesBucket,
		booksBucket, albumsBucket, identitiesBucket,
	}
)

// InviteKey is the deterministic document key for a (book, invitee) pair.
func InviteKey(bookID, inviteeUID string) string {
	return bookID + "__" + inviteeUID
}

type BBoltStore struct {
	db *bolt.DB
}

var _ CollabStore = (*BBoltStore)(nil)

func NewBBoltStore(path string) (*BBoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db at %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating %s bucket: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BBoltStore{db: db}, nil
}

// Update runs fn in a serializable read-write transaction. Any error returned
// by fn rolls back every write made through tx.
func (s *BBoltStore) Update(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

// View runs fn against a consistent read-only snapshot.
func (s *BBoltStore) View(ctx context.Context, fn func(tx *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{tx: btx})
	})
}

func (s *BBoltStore) Close() error {
	return s.db.Close()
}

// LookupIdentity answers identity-provider queries from the identities bucket.
func (s *BBoltStore) LookupIdentity(ctx context.Context, uid string) (*IdentityRecord, error) {
	var rec *IdentityRecord
	err := s.View(ctx, func(tx *Tx) error {
		var err error
		rec, err = tx.GetIdentity(uid)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// SeedCatalog loads catalog records, skipping keys that already exist.
func (s *BBoltStore) SeedCatalog(c Catalog) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		if err := seedBucket(btx.Bucket(booksBucket), "book", c.Books); err != nil {
			return err
		}
		if err := seedBucket(btx.Bucket(albumsBucket), "album", c.Albums); err != nil {
			return err
		}
		return seedBucket(btx.Bucket(identitiesBucket), "identity", c.Identities)
	})
}

func seedBucket[T any](b *bolt.Bucket, kind string, records map[string]T) error {
	for id, rec := range records {
		if b.Get([]byte(id)) != nil {
			log.WithField("id", id).Debugf("seed: %s already exists, skipping", kind)
			continue
		}
		if err := putJSON(b, id, rec); err != nil {
			return fmt.Errorf("seeding %s %s: %w", kind, id, err)
		}
		log.WithField("id", id).Infof("seeded %s", kind)
	}
	return nil
}

// UpsertCatalog overwrites the given catalog records.
func (s *BBoltStore) UpsertCatalog(ctx context.Context, c Catalog) error {
	return s.Update(ctx, func(tx *Tx) error {
		for id, rec := range c.Books {
			rec.ID = id
			if err := tx.PutBook(&rec); err != nil {
				return err
			}
		}
		for id, rec := range c.Albums {
			rec.ID = id
			if err := tx.PutAlbum(&rec); err != nil {
				return err
			}
		}
		for id, rec := range c.Identities {
			rec.UID = id
			if err := tx.PutIdentity(&rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BBoltStore) GetAllInvites(ctx context.Context) (map[string]InviteRecord, error) {
	result := make(map[string]InviteRecord)
	err := s.View(ctx, func(tx *Tx) error {
		return forEachJSON(tx.tx.Bucket(invitesBucket), func(k string, r InviteRecord) error {
			result[k] = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *BBoltStore) GetAllBooks(ctx context.Context) (map[string]BookRecord, error) {
	result := make(map[string]BookRecord)
	err := s.View(ctx, func(tx *Tx) error {
		return forEachJSON(tx.tx.Bucket(booksBucket), func(k string, r BookRecord) error {
			result[k] = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Tx exposes typed document access inside one bbolt transaction.
// Getters return nil, nil when the document does not exist.
type Tx struct {
	tx *bolt.Tx
}

func (t *Tx) GetInvite(id string) (*InviteRecord, error) {
	var r InviteRecord
	ok, err := getJSON(t.tx.Bucket(invitesBucket), id, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) PutInvite(r *InviteRecord) error {
	return putJSON(t.tx.Bucket(invitesBucket), r.ID, r)
}

// ListInvitesByBook returns every invitation of bookID.
func (t *Tx) ListInvitesByBook(bookID string) ([]InviteRecord, error) {
	prefix := []byte(InviteKey(bookID, ""))
	var out []InviteRecord

	c := t.tx.Bucket(invitesBucket).Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		var r InviteRecord
		if err := json.Unmarshal(v, &r); err != nil {
			return nil, fmt.Errorf("unmarshaling invite %s: %w", k, err)
		}
		// Reason: a book id containing "__" can share this prefix
		if r.BookID != bookID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// ListInvitesByInvitee returns every invitation addressed to uid.
func (t *Tx) ListInvitesByInvitee(uid string) ([]InviteRecord, error) {
	var out []InviteRecord
	err := forEachJSON(t.tx.Bucket(invitesBucket), func(_ string, r InviteRecord) error {
		if r.InviteeUID == uid {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPendingInvites returns every pending invitation in the store.
func (t *Tx) ListPendingInvites() ([]InviteRecord, error) {
	var out []InviteRecord
	err := forEachJSON(t.tx.Bucket(invitesBucket), func(_ string, r InviteRecord) error {
		if r.Status == StatusPending {
			out = append(out, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tx) GetNotification(recipientUID, id string) (*NotificationRecord, error) {
	b := t.tx.Bucket(notificationsBucket).Bucket([]byte(recipientUID))
	if b == nil {
		return nil, nil
	}
	var r NotificationRecord
	ok, err := getJSON(b, id, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) PutNotification(r *NotificationRecord) error {
	b, err := t.tx.Bucket(notificationsBucket).CreateBucketIfNotExists([]byte(r.RecipientUID))
	if err != nil {
		return fmt.Errorf("creating notification bucket for %s: %w", r.RecipientUID, err)
	}
	return putJSON(b, r.ID, r)
}

// DeleteNotification removes a notification and reports whether it existed.
func (t *Tx) DeleteNotification(recipientUID, id string) (bool, error) {
	b := t.tx.Bucket(notificationsBucket).Bucket([]byte(recipientUID))
	if b == nil || b.Get([]byte(id)) == nil {
		return false, nil
	}
	if err := b.Delete([]byte(id)); err != nil {
		return false, fmt.Errorf("deleting notification %s/%s: %w", recipientUID, id, err)
	}
	return true, nil
}

// ListNotifications returns every notification of recipientUID in key order.
func (t *Tx) ListNotifications(recipientUID string) ([]NotificationRecord, error) {
	b := t.tx.Bucket(notificationsBucket).Bucket([]byte(recipientUID))
	if b == nil {
		return nil, nil
	}
	var out []NotificationRecord
	err := forEachJSON(b, func(_ string, r NotificationRecord) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tx) GetProfile(uid string) (*Profile, error) {
	var r Profile
	ok, err := getJSON(t.tx.Bucket(profilesBucket), uid, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// Profile returns the profile of uid, or an empty one when none is stored.
func (t *Tx) Profile(uid string) (*Profile, error) {
	p, err := t.GetProfile(uid)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = &Profile{UID: uid}
	}
	return p, nil
}

func (t *Tx) PutProfile(p *Profile) error {
	return putJSON(t.tx.Bucket(profilesBucket), p.UID, p)
}

// AdjustUnreadCount applies a signed delta to the unread counter of uid.
func (t *Tx) AdjustUnreadCount(uid string, delta int) error {
	p, err := t.Profile(uid)
	if err != nil {
		return err
	}
	p.UnreadCount += delta
	return t.PutProfile(p)
}

func (t *Tx) GetBook(id string) (*BookRecord, error) {
	var r BookRecord
	ok, err := getJSON(t.tx.Bucket(booksBucket), id, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) PutBook(r *BookRecord) error {
	return putJSON(t.tx.Bucket(booksBucket), r.ID, r)
}

func (t *Tx) GetAlbum(id string) (*AlbumRecord, error) {
	var r AlbumRecord
	ok, err := getJSON(t.tx.Bucket(albumsBucket), id, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) PutAlbum(r *AlbumRecord) error {
	return putJSON(t.tx.Bucket(albumsBucket), r.ID, r)
}

func (t *Tx) GetIdentity(uid string) (*IdentityRecord, error) {
	var r IdentityRecord
	ok, err := getJSON(t.tx.Bucket(identitiesBucket), uid, &r)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

func (t *Tx) PutIdentity(r *IdentityRecord) error {
	return putJSON(t.tx.Bucket(identitiesBucket), r.UID, r)
}

func getJSON(b *bolt.Bucket, key string, v any) (bool, error) {
	data := b.Get([]byte(key))
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("unmarshaling %s: %w", key, err)
	}
	return true, nil
}

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	if err := b.Put([]byte(key), data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func forEachJSON[T any](b *bolt.Bucket, fn func(key string, rec T) error) error {
	return b.ForEach(func(k, v []byte) error {
		// nested buckets report a nil value
		if v == nil {
			return nil
		}
		var r T
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("unmarshaling %s: %w", k, err)
		}
		return fn(string(k), r)
	})
}
