// Package models contains the data structures used throughout profsync.
package models

// AppConfig holds the complete configuration for an invocation.
type AppConfig struct {
	Env        Env
	MirrorTool string // path to the directory-mirroring utility, empty for the platform default
}

// RestoreOptions bundles the restore-only behavior switches.
type RestoreOptions struct {
	Policy      ConflictPolicy
	Interactive bool // allow interactive Firefox profile selection
	SkipKill    bool // do not touch running processes
	ForceKill   bool // terminate matching processes without confirmation
	ShowProcs   bool // list matching processes verbosely
}
