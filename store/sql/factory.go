package sqlstore

import (
	"fmt"

	"github.com/uptrace/bun"

	persistence "github.com/goliatone/go-persistence-bun"

	"github.com/StavoMidnite661/FinSec-Chrome-Extension/core"
)

// RepositoryFactory builds the SQL-backed store set over a shared bun handle
// and serves it to the orchestrator as a core.StoreProvider.
type RepositoryFactory struct {
	db *bun.DB

	scaEntryStore         *ScaEntryStore
	transactionStateStore *TransactionStateStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

func (f *RepositoryFactory) BuildStores(persistenceClient any) (core.StoreProvider, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.scaEntryStore != nil && f.transactionStateStore != nil {
		return f, nil
	}
	if err := f.initStores(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *RepositoryFactory) initStores() error {
	scaEntries, err := NewScaEntryStore(f.db)
	if err != nil {
		return err
	}
	transactionStates, err := NewTransactionStateStore(f.db)
	if err != nil {
		return err
	}
	f.scaEntryStore = scaEntries
	f.transactionStateStore = transactionStates
	return nil
}

func (f *RepositoryFactory) ScaEntryStore() core.ScaEntryStore {
	if f == nil {
		return nil
	}
	return f.scaEntryStore
}

func (f *RepositoryFactory) TransactionStateStore() core.TransactionStateStore {
	if f == nil {
		return nil
	}
	return f.transactionStateStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch value := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if value == nil {
			return nil, fmt.Errorf("sqlstore: bun db is required")
		}
		return value, nil
	case interface{ DB() *bun.DB }:
		db := value.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned a nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client %T", candidate)
	}
}
