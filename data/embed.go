package data

import (
	_ "embed"
)

// InitdbMySQLDatabase creates the service database and login.
//
//go:embed initdb/mysql/001-database.sql
var InitdbMySQLDatabase string

// InitdbMySQLPrivileges grants the service login its privileges.
//
//go:embed initdb/mysql/002-privileges.sql
var InitdbMySQLPrivileges string
