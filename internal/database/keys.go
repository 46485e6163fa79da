package database

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/nao1215/pngcipher/internal/rsa"
)

// KeyRecord is a stored key pair.
type KeyRecord struct {
	// ID is the key's fingerprint.
	ID      string
	Label   string
	Bits    int
	Created time.Time
	Key     *rsa.KeyPair
}

func hexOf(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.Text(16)
}

func fromHex(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil //nolint:nilnil // absent primes
	}
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("malformed integer %q", s)
	}
	return v, nil
}

// SaveKey stores key under its fingerprint and returns the id. Saving a key
// that already exists only updates its label.
func (s *Store) SaveKey(ctx context.Context, key *rsa.KeyPair, label string) (string, error) {
	if key == nil || key.N == nil || key.E == nil || key.D == nil {
		return "", rsa.ErrNilKey
	}
	id := key.Fingerprint()

	query := `
	INSERT INTO keys (id, label, bits, n, e, d, p, q)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		label = excluded.label
	`

	_, err := s.db.ExecContext(ctx, query,
		id,
		label,
		key.Bits(),
		hexOf(key.N),
		hexOf(key.E),
		hexOf(key.D),
		hexOf(key.P),
		hexOf(key.Q),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save key: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanKey(row rowScanner) (*KeyRecord, error) {
	var rec KeyRecord
	var n, e, d, p, q, created string
	if err := row.Scan(&rec.ID, &rec.Label, &rec.Bits, &n, &e, &d, &p, &q, &created); err != nil {
		return nil, err
	}
	rec.Created = parseTimestamp(created)

	key := &rsa.KeyPair{}
	for _, f := range []struct {
		dst **big.Int
		src string
	}{
		{&key.N, n}, {&key.E, e}, {&key.D, d}, {&key.P, p}, {&key.Q, q},
	} {
		v, err := fromHex(f.src)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", rec.ID, err)
		}
		*f.dst = v
	}
	rec.Key = key
	return &rec, nil
}

const keyColumns = `id, label, bits, n, e, d, p, q, created`

// GetKey returns the key whose id equals id or starts with it.
// It returns ErrKeyNotFound when nothing matches and ErrAmbiguousKey when
// a prefix matches more than one key.
func (s *Store) GetKey(ctx context.Context, id string) (*KeyRecord, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, ErrKeyNotFound
	}

	query := `SELECT ` + keyColumns + ` FROM keys WHERE substr(id, 1, ?) = ? ORDER BY id LIMIT 2`
	rows, err := s.db.QueryContext(ctx, query, len(id), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	defer rows.Close()

	var found []*KeyRecord
	for rows.Next() {
		rec, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousKey, id)
	}
}

// ListKeys returns every stored key, newest first.
func (s *Store) ListKeys(ctx context.Context) ([]*KeyRecord, error) {
	query := `SELECT ` + keyColumns + ` FROM keys ORDER BY created DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	results := make([]*KeyRecord, 0)
	for rows.Next() {
		rec, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// DeleteKey removes the key with the given full id.
func (s *Store) DeleteKey(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, id)
	}
	return nil
}
