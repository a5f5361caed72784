//go:build !cgo_sqlite

package library

import (
	_ "modernc.org/sqlite" // registers "sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
