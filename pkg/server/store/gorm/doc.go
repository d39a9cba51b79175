// Package gorm provides GORM-based implementations of the store interfaces
// defined in the parent store package.
//
// NewStores builds the full bundle from a *gorm.DB. The TxRunner in that
// bundle opens a transaction and hands the callback a second bundle whose
// stores all run on the transaction.
package gorm
