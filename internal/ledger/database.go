package ledger

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const transactionsBucket = "transactions"

// DB defines the interface for transaction persistence. Every operation is
// owner-scoped: a record is never visible outside its owner's namespace.
type DB interface {
	// SaveTransaction saves a transaction under its owner
	SaveTransaction(t *Transaction) error

	// GetTransaction retrieves one of the owner's transactions by ID
	GetTransaction(ownerID, id string) (*Transaction, error)

	// ListTransactions returns all of the owner's transactions
	ListTransactions(ownerID string) ([]*Transaction, error)

	// FindByDateRange returns the owner's transactions inside the inclusive window
	FindByDateRange(ownerID string, start, end time.Time) ([]*Transaction, error)

	// DeleteTransaction removes one of the owner's transactions
	DeleteTransaction(ownerID, id string) error

	// Close closes the database connection
	Close() error
}

// BoltDB implements the DB interface using BoltDB. Each owner gets a nested
// bucket under the transactions bucket, keyed by transaction ID.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB creates a new BoltDB instance
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(transactionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveTransaction saves a transaction under its owner's bucket
func (b *BoltDB) SaveTransaction(t *Transaction) error {
	if t.OwnerID == "" {
		return fmt.Errorf("transaction has no owner")
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		owner, err := tx.Bucket([]byte(transactionsBucket)).CreateBucketIfNotExists([]byte(t.OwnerID))
		if err != nil {
			return fmt.Errorf("creating owner bucket: %w", err)
		}
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshaling transaction: %w", err)
		}
		return owner.Put([]byte(t.ID), data)
	})
}

// GetTransaction retrieves one of the owner's transactions by ID
func (b *BoltDB) GetTransaction(ownerID, id string) (*Transaction, error) {
	var transaction *Transaction
	err := b.db.View(func(tx *bbolt.Tx) error {
		owner := tx.Bucket([]byte(transactionsBucket)).Bucket([]byte(ownerID))
		if owner == nil {
			return fmt.Errorf("transaction not found: %s", id)
		}
		data := owner.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("transaction not found: %s", id)
		}
		return json.Unmarshal(data, &transaction)
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns all of the owner's transactions
func (b *BoltDB) ListTransactions(ownerID string) ([]*Transaction, error) {
	transactions := make([]*Transaction, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		owner := tx.Bucket([]byte(transactionsBucket)).Bucket([]byte(ownerID))
		if owner == nil {
			return nil
		}
		return owner.ForEach(func(k, v []byte) error {
			var transaction Transaction
			if err := json.Unmarshal(v, &transaction); err != nil {
				return fmt.Errorf("unmarshaling transaction: %w", err)
			}
			transactions = append(transactions, &transaction)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return transactions, nil
}

// FindByDateRange returns the owner's transactions whose occurred-at falls
// inside the inclusive [start, end] window
func (b *BoltDB) FindByDateRange(ownerID string, start, end time.Time) ([]*Transaction, error) {
	all, err := b.ListTransactions(ownerID)
	if err != nil {
		return nil, err
	}
	filter := Filter{OwnerID: ownerID, Start: &start, End: &end}
	matched := make([]*Transaction, 0, len(all))
	for _, t := range all {
		if filter.matches(t) {
			matched = append(matched, t)
		}
	}
	return matched, nil
}

// DeleteTransaction removes one of the owner's transactions
func (b *BoltDB) DeleteTransaction(ownerID, id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		owner := tx.Bucket([]byte(transactionsBucket)).Bucket([]byte(ownerID))
		if owner == nil {
			return fmt.Errorf("transaction not found: %s", id)
		}
		return owner.Delete([]byte(id))
	})
}

// Close closes the database connection
func (b *BoltDB) Close() error {
	return b.db.Close()
}
