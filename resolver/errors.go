// Package resolver implements the dependency resolver: install/update/
// freshen/erase operations against a pkgdb.DB, and the fixpoint
// dependency/conflict/file-conflict check that turns a set of requested
// operations into a verified, consistent transaction.
//
// Ported from pyrpm/resolver.py's RpmResolver.
package resolver

import "github.com/pkg/errors"

// Result-code sentinels, one per pyrpm/resolver.py RpmResolver class
// constant (OK is the absence of an error, so it has no Go counterpart).
var (
	ErrAlreadyInstalled     = errors.New("resolver: package already installed")
	ErrOldPackage           = errors.New("resolver: a newer package is already present")
	ErrNotInstalled         = errors.New("resolver: package not installed")
	ErrUpdateFailed         = errors.New("resolver: update failed")
	ErrAlreadyAdded         = errors.New("resolver: package already added to this transaction")
	ErrArchIncompat         = errors.New("resolver: architecture incompatible with installed package")
	ErrObsoleteFailed       = errors.New("resolver: obsolete handling failed")
	ErrConflict             = errors.New("resolver: conflicting packages")
	ErrFileConflict         = errors.New("resolver: conflicting files")
	ErrUnresolvedDependency = errors.New("resolver: unresolved dependency")
)
