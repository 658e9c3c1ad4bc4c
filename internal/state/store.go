// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package state

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const openTimeout = time.Second

var launchesBucket = []byte("launches")

// Store keeps the latest launch record of each instance.
type Store struct {
	db *bbolt.DB
}

// Open opens the database at the given path. It is created if it does not
// exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(launchesBucket)
		return err //nolint:wrapcheck
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: db}, nil
}

func instanceKey(instance int) []byte {
	return []byte(fmt.Sprintf("%02d", instance))
}

// Put stores the record, replacing the record of the same instance.
func (s *Store) Put(record Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(launchesBucket).Put(instanceKey(record.Instance), data)
	})
	if err != nil {
		return fmt.Errorf("put record: %w", err)
	}

	return nil
}

// Get returns the record of the given instance.
func (s *Store) Get(instance int) (Record, error) {
	var record Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(launchesBucket).Get(instanceKey(instance))
		if data == nil {
			return fmt.Errorf("%w: instance %d", ErrNotFound, instance)
		}

		return decode(data, &record)
	})

	return record, err
}

// List returns all records ordered by instance.
func (s *Store) List() ([]Record, error) {
	var records []Record

	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(launchesBucket).ForEach(func(_, data []byte) error {
			var record Record

			err := decode(data, &record)
			if err != nil {
				return err
			}

			records = append(records, record)

			return nil
		})
	})

	return records, err //nolint:wrapcheck
}

// Delete removes the record of the given instance. Deleting a missing record
// is not an error.
func (s *Store) Delete(instance int) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(launchesBucket).Delete(instanceKey(instance))
	})
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close() //nolint:wrapcheck
}

func decode(data []byte, record *Record) error {
	err := json.Unmarshal(data, record)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	return nil
}
