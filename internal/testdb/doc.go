// Package testdb provides helpers for database integration tests: a
// migrated connection from SCRY_TEST_DATABASE_URL and per-test transactions
// that are always rolled back.
package testdb
