package models

// ItemKind distinguishes single-file items from whole-directory items.
type ItemKind int

const (
	// ItemFile is copied as a single file.
	ItemFile ItemKind = iota
	// ItemDir is mirrored: the destination becomes an exact copy of the
	// source, including removal of extra entries.
	ItemDir
)

// ItemSpec names one file or directory belonging to a category. The item's
// name is its path relative to the category root; the same relative path is
// used under the backup root, so restore can invert the mapping without any
// lookup table.
type ItemSpec struct {
	Name string
	Kind ItemKind
}

// Category is one named group of application files backed up and restored as
// a unit. The set of categories is fixed at compile time.
type Category struct {
	Name        string
	DisplayName string
	Items       []ItemSpec

	// Root resolves the live source root from the environment. Pure.
	Root func(env Env) string

	// Profiled marks categories whose concrete root requires selecting a
	// profile directory under Root (Firefox).
	Profiled bool
}

// Env holds the environment-provided base paths and machine identity,
// resolved once at startup.
type Env struct {
	LocalAppData   string
	RoamingAppData string
	Home           string
	CloudDir       string // cloud-synced base directory
	MachineName    string
}
