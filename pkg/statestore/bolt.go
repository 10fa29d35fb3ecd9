package statestore

import (
	"context"
	"fmt"
	"strings"

	bolt "go.etcd.io/bbolt"
)

var bucketState = []byte("state")

// encPrefix marks values that are encrypted at rest.
const encPrefix = "enc:"

// BoltStore implements Store backed by a local bbolt file, for development
// and tests. Secret values are AES-256-GCM encrypted with a key derived
// from an operator passphrase, mirroring the SecureString semantics of the
// SSM backend.
type BoltStore struct {
	db     *bolt.DB
	prefix string
	cipher *secretCipher // nil when no passphrase was configured
}

// NewBoltStore opens (or creates) the store file at dbPath. passphrase may
// be empty, in which case PutSecret is rejected and any encrypted value
// fails to read.
func NewBoltStore(dbPath, prefix, passphrase string) (*BoltStore, error) {
	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	s := &BoltStore{db: db, prefix: prefix}
	if passphrase != "" {
		s.cipher, err = newSecretCipher(passphrase)
		if err != nil {
			db.Close()
			return nil, err
		}
	}
	return s, nil
}

// Get reads the value at key, decrypting it when stored as a secret.
func (s *BoltStore) Get(ctx context.Context, key string) (string, error) {
	var raw string
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketState).Get([]byte(Join(s.prefix, key)))
		if data == nil {
			return ErrNotFound
		}
		raw = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(raw, encPrefix) {
		if s.cipher == nil {
			return "", fmt.Errorf("value at %s is encrypted but no passphrase is configured", key)
		}
		value, err := s.cipher.decrypt(strings.TrimPrefix(raw, encPrefix))
		if err != nil {
			return "", fmt.Errorf("failed to decrypt %s: %w", key, err)
		}
		return value, nil
	}
	return raw, nil
}

// Put writes a plaintext value, overwriting any existing one.
func (s *BoltStore) Put(ctx context.Context, key, value string) error {
	return s.write(key, value)
}

// PutSecret encrypts value and writes it, overwriting any existing one.
func (s *BoltStore) PutSecret(ctx context.Context, key, value string) error {
	if s.cipher == nil {
		return fmt.Errorf("cannot store secret %s: no passphrase configured", key)
	}
	sealed, err := s.cipher.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt %s: %w", key, err)
	}
	return s.write(key, encPrefix+sealed)
}

func (s *BoltStore) write(key, value string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put([]byte(Join(s.prefix, key)), []byte(value))
	})
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}
