// Package store holds the shared PostgreSQL schema for the ledger stores.
package store

import _ "embed"

// Schema is the full DDL for the ledger's PostgreSQL backend. It is
// idempotent and applied on startup and by the integration test harness.
//
//go:embed schema.sql
var Schema string
