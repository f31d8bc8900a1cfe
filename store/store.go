package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

const (
	keyAccessToken = "accessToken"
	keyUserType    = "userType"
	keyUserEmail   = "userEmail"
	keyUserID      = "userId"
	keyUsername    = "username"
	keyIsAdmin     = "isAdmin"

	lockoutPrefix  = "lockout_"
	attemptsPrefix = "attempts_"
)

var identityKeys = []string{keyAccessToken, keyUserType, keyUserEmail, keyUserID, keyUsername, keyIsAdmin}

// IdentityRecord is the persisted shape of a signed-in operator. Zero values
// of the optional fields are not written.
type IdentityRecord struct {
	AccessToken string
	UserType    string
	Email       string
	UserID      int64
	Username    string
	IsAdmin     bool
}

// LockoutRecord is the persisted lockout for one login type.
type LockoutRecord struct {
	Duration  int   `json:"duration"`
	Timestamp int64 `json:"timestamp"`
}

// Store is the typed accessor over a [Storage].
type Store struct {
	storage Storage
}

// New wraps storage with typed accessors for the persisted keys.
func New(storage Storage) *Store {
	return &Store{storage: storage}
}

// Storage returns the underlying raw map.
func (s *Store) Storage() Storage {
	return s.storage
}

// LoadIdentity returns the persisted identity. A record without a token or
// login type is reported as absent.
func (s *Store) LoadIdentity(ctx context.Context) (IdentityRecord, bool, error) {
	var rec IdentityRecord
	token, ok, err := s.storage.Get(ctx, keyAccessToken)
	if err != nil || !ok || token == "" {
		return rec, false, err
	}
	userType, ok, err := s.storage.Get(ctx, keyUserType)
	if err != nil || !ok || userType == "" {
		return rec, false, err
	}
	rec.AccessToken = token
	rec.UserType = userType

	if v, ok, err := s.storage.Get(ctx, keyUserEmail); err != nil {
		return rec, false, err
	} else if ok {
		rec.Email = v
	}
	if v, ok, err := s.storage.Get(ctx, keyUsername); err != nil {
		return rec, false, err
	} else if ok {
		rec.Username = v
	}
	if v, ok, err := s.storage.Get(ctx, keyUserID); err != nil {
		return rec, false, err
	} else if ok {
		if id, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			rec.UserID = id
		}
	}
	if v, ok, err := s.storage.Get(ctx, keyIsAdmin); err != nil {
		return rec, false, err
	} else if ok {
		rec.IsAdmin = v == "true"
	}
	return rec, true, nil
}

// SaveIdentity writes every identity key. Optional fields left at their zero
// value are deleted so a previous operator's values never leak through.
func (s *Store) SaveIdentity(ctx context.Context, rec IdentityRecord) error {
	if err := s.storage.Set(ctx, keyAccessToken, rec.AccessToken); err != nil {
		return err
	}
	if err := s.storage.Set(ctx, keyUserType, rec.UserType); err != nil {
		return err
	}
	if err := s.setOrDelete(ctx, keyUserEmail, rec.Email); err != nil {
		return err
	}
	if err := s.setOrDelete(ctx, keyUsername, rec.Username); err != nil {
		return err
	}
	id := ""
	if rec.UserID != 0 {
		id = strconv.FormatInt(rec.UserID, 10)
	}
	if err := s.setOrDelete(ctx, keyUserID, id); err != nil {
		return err
	}
	return s.storage.Set(ctx, keyIsAdmin, strconv.FormatBool(rec.IsAdmin))
}

func (s *Store) setOrDelete(ctx context.Context, key, value string) error {
	if value == "" {
		return s.storage.Delete(ctx, key)
	}
	return s.storage.Set(ctx, key, value)
}

// ClearIdentity removes every identity key. Idempotent.
func (s *Store) ClearIdentity(ctx context.Context) error {
	return s.storage.Delete(ctx, identityKeys...)
}

// LoadLockout returns the lockout record for loginType. A value that is not
// valid JSON yields an error wrapping [ErrCorrupt].
func (s *Store) LoadLockout(ctx context.Context, loginType string) (LockoutRecord, bool, error) {
	var rec LockoutRecord
	raw, ok, err := s.storage.Get(ctx, lockoutPrefix+loginType)
	if err != nil || !ok {
		return rec, false, err
	}
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return LockoutRecord{}, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, lockoutPrefix+loginType, err)
	}
	return rec, true, nil
}

// SaveLockout writes the lockout record for loginType as JSON.
func (s *Store) SaveLockout(ctx context.Context, loginType string, rec LockoutRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, lockoutPrefix+loginType, string(b))
}

// DeleteLockout removes the lockout record for loginType.
func (s *Store) DeleteLockout(ctx context.Context, loginType string) error {
	return s.storage.Delete(ctx, lockoutPrefix+loginType)
}

// LoadAttempts returns the remaining-attempts counter for loginType.
func (s *Store) LoadAttempts(ctx context.Context, loginType string) (int, bool, error) {
	raw, ok, err := s.storage.Get(ctx, attemptsPrefix+loginType)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, attemptsPrefix+loginType, err)
	}
	return n, true, nil
}

// SaveAttempts writes remaining attempts as a decimal string.
func (s *Store) SaveAttempts(ctx context.Context, loginType string, remaining int) error {
	return s.storage.Set(ctx, attemptsPrefix+loginType, strconv.Itoa(remaining))
}

// DeleteAttempts removes the attempts record for loginType.
func (s *Store) DeleteAttempts(ctx context.Context, loginType string) error {
	return s.storage.Delete(ctx, attemptsPrefix+loginType)
}
