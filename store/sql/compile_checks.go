package sqlstore

import "github.com/StavoMidnite661/FinSec-Chrome-Extension/core"

var (
	_ core.ScaEntryStore          = (*ScaEntryStore)(nil)
	_ core.ScaEntryStore          = (*CachedScaEntryStore)(nil)
	_ core.TransactionStateStore  = (*TransactionStateStore)(nil)
	_ core.StoreProvider          = (*RepositoryFactory)(nil)
	_ core.RepositoryStoreFactory = (*RepositoryFactory)(nil)
)
