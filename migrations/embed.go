// Package migrations: SQL-миграции схемы auth, встроенные в бинарник (golang-migrate, формат NNNNNN_name.up/down.sql).
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
