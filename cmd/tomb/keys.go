package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/TheMichaelB/tomb/internal/creds"
	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/storage"
	"github.com/TheMichaelB/tomb/internal/tomb"
)

func passwordResolver() *creds.Resolver {
	return &creds.Resolver{
		Password: cfg.Password,
		Ask:      askPassword,
		SecretID: cfg.PasswordSecret,
		Prompter: prompter,
		Secrets:  secretsAPI,
	}
}

// loadKey derives the key from a password when a password source is
// configured and reads the key file otherwise. A password key uses the cycles
// recorded in the tomb when one is given.
func loadKey(ctx context.Context, store *tomb.Store) (crypto.Key, error) {
	logger := events.FromContext(ctx)

	password, err := passwordResolver().Resolve(ctx)
	switch {
	case err == nil:
		var key crypto.Key
		if store != nil {
			key = store.DeriveKey(password)
		} else {
			key = crypto.FromPassword(password, cfg.CryptoConfig())
		}
		logger.Debug("Key derived from password")
		return checkOwner(ctx, key, store), nil

	case errors.Is(err, creds.ErrNoPassword):
		path := storage.ExpandPath(cfg.KeyFilename)
		key, err := crypto.ImportKey(path)
		if err != nil {
			return crypto.Key{}, fmt.Errorf("load key file: %w", err)
		}
		logger.WithField("key", path).Debug("Key file loaded")
		return checkOwner(ctx, key, store), nil

	default:
		return crypto.Key{}, err
	}
}

func checkOwner(ctx context.Context, key crypto.Key, store *tomb.Store) crypto.Key {
	if store != nil && !store.OwnedBy(key) {
		events.FromContext(ctx).Warn("Key does not match the tomb digest, secrets written by another key will not decrypt")
	}
	return key
}

// loadStore opens the configured tomb file.
func loadStore(ctx context.Context) (*tomb.Store, error) {
	path := storage.ExpandPath(cfg.TombFilename)
	store, err := tomb.Open(path)
	if err != nil {
		return nil, err
	}
	store.SetLogger(events.FromContext(ctx).WithField("component", "tomb"))
	return store, nil
}

// loadKeyAndStore opens the tomb and then the key that goes with it.
func loadKeyAndStore(ctx context.Context) (crypto.Key, *tomb.Store, error) {
	store, err := loadStore(ctx)
	if err != nil {
		return crypto.Key{}, nil, err
	}
	key, err := loadKey(ctx, store)
	if err != nil {
		return crypto.Key{}, nil, err
	}
	return key, store, nil
}
