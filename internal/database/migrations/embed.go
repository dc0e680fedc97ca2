package migrations

import "embed"

// FS contains the schema for each supported driver, one directory per driver.
//
//go:embed mysql/*.sql sqlite/*.sql
var FS embed.FS
