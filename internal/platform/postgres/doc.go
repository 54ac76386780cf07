// Package postgres provides PostgreSQL implementations of the store
// interfaces. Each store speaks raw SQL through a store.DBTX, so the same
// implementation serves both pooled connections and transactions.
package postgres
