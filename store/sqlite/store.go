// Package sqlite is a reference NoteStorageProvider backed by SQLite,
// serializing discovery checkpoints the way the pool server persists its
// own state: one row per note, one row per (publicKey, pool) checkpoint.
package sqlite

import (
	"context"
	"database/sql"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/privacypool/client-sdk/types"
)

// Store represents the SQLite-backed checkpoint database.
type Store struct {
	db *sql.DB
}

// New returns a new *Store over db. Callers own db's lifecycle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables needed for the database.
func (s *Store) Migrate() error {
	query := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS checkpoints(
		publicKey     TEXT NOT NULL,
		pool          TEXT NOT NULL,
		cursor        TEXT NOT NULL DEFAULT '',
		lastUsedIndex INTEGER NOT NULL DEFAULT 0,
		hasDeposits   INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY(publicKey, pool)
	);

	CREATE TABLE IF NOT EXISTS notes(
		publicKey          TEXT NOT NULL,
		pool               TEXT NOT NULL,
		depositIndex       INTEGER NOT NULL,
		changeIndex         INTEGER NOT NULL,
		kind               INTEGER NOT NULL,
		amount             TEXT,
		label              TEXT,
		status             INTEGER NOT NULL,
		isActivated        INTEGER NOT NULL,
		originTxHash       TEXT NOT NULL DEFAULT '',
		destinationTxHash  TEXT NOT NULL DEFAULT '',
		originChainID      INTEGER NOT NULL DEFAULT 0,
		destinationChainID INTEGER NOT NULL DEFAULT 0,
		blockNumber        INTEGER NOT NULL DEFAULT 0,
		timestamp          INTEGER NOT NULL DEFAULT 0,
		refundCommitment   TEXT,
		PRIMARY KEY(publicKey, pool, depositIndex, changeIndex)
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// GetCachedNotes reads every stored note for (publicKey, pool), groups it
// back into chains by depositIndex, and derives the live-deposit set from
// each chain's tail rather than persisting it separately — a live deposit
// is, by definition, exactly a spendable chain tail.
func (s *Store) GetCachedNotes(ctx context.Context, publicKey string, pool common.Address) (*types.DiscoveryResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT cursor, lastUsedIndex FROM checkpoints WHERE publicKey = ? AND pool = ?`,
		publicKey, pool.Hex())

	var cursor string
	var lastUsedIndex uint64
	if err := row.Scan(&cursor, &lastUsedIndex); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT depositIndex, changeIndex, kind, amount, label, status, isActivated,
	       originTxHash, destinationTxHash, originChainID, destinationChainID,
	       blockNumber, timestamp, refundCommitment
	FROM notes WHERE publicKey = ? AND pool = ?
	ORDER BY depositIndex ASC, changeIndex ASC
	`, publicKey, pool.Hex())
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	chainsByDeposit := map[uint64]*types.Chain{}
	var order []uint64

	for rows.Next() {
		n := &types.Note{Coordinate: types.Coordinate{PoolAddress: pool}}
		var amount, label, refund sql.NullString
		var kind, status int
		var isActivated int

		if err := rows.Scan(
			&n.DepositIndex, &n.ChangeIndex, &kind, &amount, &label, &status, &isActivated,
			&n.OriginTransactionHash, &n.DestinationTransactionHash, &n.OriginChainID,
			&n.DestinationChainID, &n.BlockNumber, &n.Timestamp, &refund,
		); err != nil {
			return nil, err
		}

		n.Kind = types.Kind(kind)
		n.Status = types.Status(status)
		n.IsActivated = isActivated != 0
		if amount.Valid {
			n.Amount, _ = new(big.Int).SetString(amount.String, 10)
		}
		if label.Valid {
			n.Label, _ = new(big.Int).SetString(label.String, 10)
		}
		if refund.Valid {
			n.RefundCommitment, _ = new(big.Int).SetString(refund.String, 10)
		}

		chain, ok := chainsByDeposit[n.DepositIndex]
		if !ok {
			chain = &types.Chain{}
			chainsByDeposit[n.DepositIndex] = chain
			order = append(order, n.DepositIndex)
		}
		*chain = append(*chain, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &types.DiscoveryResult{Cursor: cursor, LastUsedIndex: lastUsedIndex}
	for _, depositIndex := range order {
		chain := *chainsByDeposit[depositIndex]
		result.Chains = append(result.Chains, chain)

		tail := chain.Tail()
		if tail != nil && tail.IsSpendable() {
			result.LiveDeposits = append(result.LiveDeposits, types.LiveDeposit{
				DepositIndex: tail.DepositIndex,
				ChainIndex:   len(result.Chains) - 1,
				Remaining:    new(big.Int).Set(tail.Amount),
			})
		}
	}

	return result, nil
}

// StoreDiscoveredNotes replaces every stored note for (publicKey, pool)
// with chains and advances the checkpoint cursor, inside one transaction
// so a crash mid-write never leaves a half-updated checkpoint.
func (s *Store) StoreDiscoveredNotes(ctx context.Context, publicKey string, pool common.Address, chains []types.Chain, cursor string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE publicKey = ? AND pool = ?`, publicKey, pool.Hex()); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO notes(
		publicKey, pool, depositIndex, changeIndex, kind, amount, label, status,
		isActivated, originTxHash, destinationTxHash, originChainID, destinationChainID,
		blockNumber, timestamp, refundCommitment
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck

	for _, chain := range chains {
		for _, n := range chain {
			var amount, label, refund interface{}
			if n.Amount != nil {
				amount = n.Amount.String()
			}
			if n.Label != nil {
				label = n.Label.String()
			}
			if n.RefundCommitment != nil {
				refund = n.RefundCommitment.String()
			}

			isActivated := 0
			if n.IsActivated {
				isActivated = 1
			}

			if _, err := stmt.ExecContext(ctx,
				publicKey, pool.Hex(), n.DepositIndex, n.ChangeIndex, int(n.Kind), amount, label, int(n.Status),
				isActivated, n.OriginTransactionHash, n.DestinationTransactionHash, n.OriginChainID,
				n.DestinationChainID, n.BlockNumber, n.Timestamp, refund,
			); err != nil {
				return err
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
	INSERT INTO checkpoints(publicKey, pool, cursor) VALUES (?, ?, ?)
	ON CONFLICT(publicKey, pool) DO UPDATE SET cursor = excluded.cursor
	`, publicKey, pool.Hex(), cursor); err != nil {
		return err
	}

	return tx.Commit()
}

// GetNextDepositIndex returns the lowest depositIndex not yet known to
// belong to this account: lastUsedIndex + 1, or 0 while no deposit index
// has been recorded for the pair.
func (s *Store) GetNextDepositIndex(ctx context.Context, publicKey string, pool common.Address) (uint64, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lastUsedIndex, hasDeposits FROM checkpoints WHERE publicKey = ? AND pool = ?`,
		publicKey, pool.Hex())

	var lastUsedIndex uint64
	var hasDeposits int
	if err := row.Scan(&lastUsedIndex, &hasDeposits); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, err
	}
	if hasDeposits == 0 {
		return 0, nil
	}
	return lastUsedIndex + 1, nil
}

// UpdateLastUsedDepositIndex upserts the checkpoint's lastUsedIndex,
// preserving whatever cursor is already stored.
func (s *Store) UpdateLastUsedDepositIndex(ctx context.Context, publicKey string, pool common.Address, depositIndex uint64) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO checkpoints(publicKey, pool, lastUsedIndex, hasDeposits) VALUES (?, ?, ?, 1)
	ON CONFLICT(publicKey, pool) DO UPDATE SET lastUsedIndex = excluded.lastUsedIndex, hasDeposits = 1
	`, publicKey, pool.Hex(), depositIndex)
	return err
}
