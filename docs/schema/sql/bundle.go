// Package sqldocs exposes the persistence DDL bundles directly from the
// docs tree so the schema documentation and the stores cannot drift.
package sqldocs

import _ "embed"

// SQLite contains the state-bucket DDL for the sqlite backend.
//
//go:embed sqlite.sql
var SQLite string

// Postgres contains the state-bucket DDL for the postgres backend.
//
//go:embed postgres.sql
var Postgres string
