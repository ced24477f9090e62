// Copyright (c) 2025 Sonic Operations Ltd
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at soniclabs.com/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

// Package sqlite provides an indexer.Store retaining leaves in a SQLite
// database.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joe-rlo/ShardNFTs/common"
	"github.com/joe-rlo/ShardNFTs/indexer"
	"github.com/joe-rlo/ShardNFTs/leaf"

	_ "github.com/mattn/go-sqlite3"
)

// FileName is the name of the database file within the store directory.
const FileName = "nfts.sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS nfts (
	position INTEGER PRIMARY KEY AUTOINCREMENT,
	nft_id   TEXT NOT NULL UNIQUE,
	owner    TEXT NOT NULL,
	metadata TEXT NOT NULL
)`

// Store is an indexer.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

var _ indexer.Store = (*Store)(nil)

// OpenStore opens or creates the database in the given directory.
func OpenStore(directory string) (*Store, error) {
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory for sqlite store: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(directory, FileName))
	if err != nil {
		return nil, err
	}
	// SQLite supports a single writer only.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		return nil, errors.Join(fmt.Errorf("failed to create schema: %w", err), db.Close())
	}
	return &Store{db: db}, nil
}

func (s *Store) Append(l leaf.Leaf) error {
	_, err := s.db.Exec(
		"INSERT INTO nfts (nft_id, owner, metadata) VALUES (?, ?, ?)",
		l.ItemId, string(l.Owner), l.Metadata,
	)
	return err
}

func (s *Store) Update(l leaf.Leaf) error {
	res, err := s.db.Exec(
		"UPDATE nfts SET owner = ?, metadata = ? WHERE nft_id = ?",
		string(l.Owner), l.Metadata, l.ItemId,
	)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %q", indexer.ErrNotFound, l.ItemId)
	}
	return nil
}

func (s *Store) Leaves() ([]leaf.Leaf, error) {
	rows, err := s.db.Query("SELECT nft_id, owner, metadata FROM nfts ORDER BY position")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []leaf.Leaf
	for rows.Next() {
		var l leaf.Leaf
		var owner string
		if err := rows.Scan(&l.ItemId, &owner, &l.Metadata); err != nil {
			return nil, err
		}
		l.Owner = common.Account(owner)
		res = append(res, l)
	}
	return res, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
