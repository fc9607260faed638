package collab

import (
	"slices"
	"time"

	"github.com/storyloom/collab/internal/permissions"
	"github.com/storyloom/collab/internal/store"
)

// The helpers below run inside a caller-owned transaction. Each one reads the
// profile it touches and writes it back before returning, so counter deltas
// applied afterwards through AdjustUnreadCount never race a stale copy.

// grantMembership makes uid a co-author with grants merged over any stored
// flags, and publishes the book (and the album when media is granted) to the
// user's access lists.
func grantMembership(tx *store.Tx, book *store.BookRecord, uid string, grants store.Grants, now time.Time) (permissions.Permissions, error) {
	if book.Members == nil {
		book.Members = map[string]permissions.Role{}
	}
	if book.Permissions == nil {
		book.Permissions = map[string]permissions.Patch{}
	}

	patch := book.Permissions[uid]
	patch.CanManageMedia = &grants.CanManageMedia
	patch.CanInviteCoAuthors = &grants.CanInviteCoAuthors
	merged := permissions.Sanitize(patch)

	book.Members[uid] = permissions.RoleCoAuthor
	book.Permissions[uid] = merged.Patch()
	book.UpdatedAt = now
	if err := tx.PutBook(book); err != nil {
		return merged, err
	}

	profile, err := tx.Profile(uid)
	if err != nil {
		return merged, err
	}
	upsertBookRef(profile, store.BookRef{
		BookID:     book.ID,
		Title:      book.Title,
		CoverImage: book.CoverImage,
	})
	if merged.CanManageMedia {
		if err := grantAlbum(tx, book, profile, uid, now); err != nil {
			return merged, err
		}
	} else {
		if err := revokeAlbum(tx, book, profile, uid); err != nil {
			return merged, err
		}
	}
	return merged, tx.PutProfile(profile)
}

// revokeMembership strips every trace of uid from the book, its album and the
// user's access lists.
func revokeMembership(tx *store.Tx, book *store.BookRecord, uid string, now time.Time) error {
	delete(book.Members, uid)
	delete(book.Permissions, uid)
	book.UpdatedAt = now
	if err := tx.PutBook(book); err != nil {
		return err
	}

	profile, err := tx.Profile(uid)
	if err != nil {
		return err
	}
	profile.AccessibleBookIDs = slices.DeleteFunc(profile.AccessibleBookIDs, func(r store.BookRef) bool {
		return r.BookID == book.ID
	})
	if err := revokeAlbum(tx, book, profile, uid); err != nil {
		return err
	}
	return tx.PutProfile(profile)
}

// setMediaAccess applies a canManageMedia toggle. No-op when the flag did not change.
func setMediaAccess(tx *store.Tx, book *store.BookRecord, uid string, before, after bool, now time.Time) error {
	if before == after {
		return nil
	}
	profile, err := tx.Profile(uid)
	if err != nil {
		return err
	}
	if after {
		err = grantAlbum(tx, book, profile, uid, now)
	} else {
		err = revokeAlbum(tx, book, profile, uid)
	}
	if err != nil {
		return err
	}
	return tx.PutProfile(profile)
}

func grantAlbum(tx *store.Tx, book *store.BookRecord, profile *store.Profile, uid string, now time.Time) error {
	album, err := tx.GetAlbum(book.AlbumKey())
	if err != nil {
		return err
	}
	if album != nil && !slices.Contains(album.AccessUserIDs, uid) {
		album.AccessUserIDs = append(album.AccessUserIDs, uid)
		if err := tx.PutAlbum(album); err != nil {
			return err
		}
	}
	upsertAlbumRef(profile, albumRef(book, album, now))
	return nil
}

func revokeAlbum(tx *store.Tx, book *store.BookRecord, profile *store.Profile, uid string) error {
	albumID := book.AlbumKey()
	album, err := tx.GetAlbum(albumID)
	if err != nil {
		return err
	}
	if album != nil && slices.Contains(album.AccessUserIDs, uid) {
		album.AccessUserIDs = slices.DeleteFunc(album.AccessUserIDs, func(id string) bool { return id == uid })
		if err := tx.PutAlbum(album); err != nil {
			return err
		}
	}
	profile.AccessibleAlbums = slices.DeleteFunc(profile.AccessibleAlbums, func(r store.AlbumRef) bool {
		return r.ID == albumID
	})
	return nil
}

// albumRef summarizes the shared album, falling back to the book when the
// editor has not created an album record yet.
func albumRef(book *store.BookRecord, album *store.AlbumRecord, now time.Time) store.AlbumRef {
	if album == nil {
		return store.AlbumRef{
			ID:         book.AlbumKey(),
			CoverImage: book.CoverImage,
			Type:       "book",
			Name:       book.Title,
			UpdatedAt:  now,
		}
	}
	ref := store.AlbumRef{
		ID:         album.ID,
		CoverImage: album.CoverImage,
		Type:       album.Type,
		Name:       album.Name,
		MediaCount: album.MediaCount,
		UpdatedAt:  album.UpdatedAt,
	}
	if ref.Type == "" {
		ref.Type = "book"
	}
	if ref.Name == "" {
		ref.Name = book.Title
	}
	if ref.CoverImage == "" {
		ref.CoverImage = book.CoverImage
	}
	return ref
}

func upsertBookRef(p *store.Profile, ref store.BookRef) {
	for i := range p.AccessibleBookIDs {
		if p.AccessibleBookIDs[i].BookID == ref.BookID {
			p.AccessibleBookIDs[i] = ref
			return
		}
	}
	p.AccessibleBookIDs = append(p.AccessibleBookIDs, ref)
}

func upsertAlbumRef(p *store.Profile, ref store.AlbumRef) {
	for i := range p.AccessibleAlbums {
		if p.AccessibleAlbums[i].ID == ref.ID {
			p.AccessibleAlbums[i] = ref
			return
		}
	}
	p.AccessibleAlbums = append(p.AccessibleAlbums, ref)
}

// putNotification creates or refreshes the invitation's notification and
// credits the counter only when it did not exist.
func putNotification(tx *store.Tx, inv *store.InviteRecord, now time.Time) error {
	existing, err := tx.GetNotification(inv.InviteeUID, inv.ID)
	if err != nil {
		return err
	}
	n := &store.NotificationRecord{
		ID:           inv.ID,
		RecipientUID: inv.InviteeUID,
		Type:         store.NotificationTypeCoAuthorInvite,
		InviteID:     inv.ID,
		BookID:       inv.BookID,
		BookTitle:    inv.BookTitle,
		FromUID:      inv.InvitedBy,
		FromName:     inv.OwnerName,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    inv.ExpiresAt,
	}
	if existing != nil {
		n.CreatedAt = existing.CreatedAt
	}
	if err := tx.PutNotification(n); err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return tx.AdjustUnreadCount(inv.InviteeUID, 1)
}

// clearNotification deletes the notification paired with an invitation and
// debits the counter only when one was present.
func clearNotification(tx *store.Tx, recipientUID, inviteID string) error {
	deleted, err := tx.DeleteNotification(recipientUID, inviteID)
	if err != nil || !deleted {
		return err
	}
	return tx.AdjustUnreadCount(recipientUID, -1)
}
