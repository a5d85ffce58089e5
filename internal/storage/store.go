// Cinetaste - Taste Profiles and Personalized Movie Recommendations
// Copyright 2026 Cinetaste Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinetaste/cinetaste

// Package storage persists taste profiles in BadgerDB. Profiles are stored
// whole and replaced whole on re-upload; there are no partial updates.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/cinetaste/cinetaste/internal/taste"
)

const profileKeyPrefix = "profile:"

// ErrNotFound indicates no profile exists for the requested user.
var ErrNotFound = errors.New("profile not found")

// ProfileStore is the persistence contract the orchestrator depends on.
type ProfileStore interface {
	Save(ctx context.Context, profile *taste.Profile) error
	Load(ctx context.Context, userID string) (*taste.Profile, error)
	Delete(ctx context.Context, userID string) error
	Close() error
}

// BadgerStore implements ProfileStore on an embedded BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	logger zerolog.Logger
}

var _ ProfileStore = (*BadgerStore)(nil)

// Open creates or opens the Badger database at path. An empty path opens an
// in-memory database, used by tests.
func Open(path string, logger zerolog.Logger) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(nil) // badger's own logger is too chatty

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &BadgerStore{
		db:     db,
		logger: logger.With().Str("component", "storage").Logger(),
	}, nil
}

// Save writes the profile, replacing any previous one for the same user.
func (s *BadgerStore) Save(ctx context.Context, profile *taste.Profile) error {
	if profile == nil || profile.UserID == "" {
		return fmt.Errorf("profile must have a user ID")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(profileKey(profile.UserID), data)
	})
	if err != nil {
		return fmt.Errorf("save profile %q: %w", profile.UserID, err)
	}

	s.logger.Debug().Str("user_id", profile.UserID).Int("centroids", len(profile.Centroids)).
		Int("history", len(profile.History)).Msg("profile saved")
	return nil
}

// Load reads the profile for userID, returning ErrNotFound when absent.
func (s *BadgerStore) Load(ctx context.Context, userID string) (*taste.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var profile taste.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(profileKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%w: user %q", ErrNotFound, userID)
		}
		if err != nil {
			return fmt.Errorf("get profile: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &profile)
		})
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Delete removes the profile for userID. Deleting an absent profile is a
// no-op.
func (s *BadgerStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(profileKey(userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// Close releases the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func profileKey(userID string) []byte {
	return []byte(profileKeyPrefix + userID)
}
