// Package postgres implements the store ports and the cache store on
// PostgreSQL through database/sql and the pgx driver. Schema changes are
// goose migrations embedded in the binary.
package postgres
