// Package rpmconfig loads the engine's runtime configuration, replacing
// pyrpm's module-global RpmConfig singleton (pyrpm/config.py) with a value
// threaded explicitly through Resolver/Orderer/Executor construction.
//
// Grounded on holocm-holo-build's TOML-based configuration conventions for
// the loading mechanism (github.com/BurntSushi/toml).
package rpmconfig

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// Config mirrors knobs pyrpm/config.py's RpmConfig carries. The resolver
// reads NoConflicts, NoFileConflicts, ExactArch and OldPackage, and the
// executor reads BatchSize; CheckInstalled, NoDigest, Strict, DebugLevel and
// TmpPrefix are loaded and carried but not read by any package here.
type Config struct {
	// CheckInstalled carries pyrpm's config.checkinstalled (re-validate
	// every installed package rather than only packages touched by this
	// transaction).
	CheckInstalled bool `toml:"check_installed"`
	// NoConflicts disables Conflicts:/Obsoletes: conflict checking
	// (config.noconflicts).
	NoConflicts bool `toml:"no_conflicts"`
	// NoFileConflicts disables file-ownership conflict checking
	// (config.nofileconflicts).
	NoFileConflicts bool `toml:"no_file_conflicts"`
	// ExactArch requires an update/install target to match the
	// installed package's arch exactly rather than just its arch family
	// (config.exactarch).
	ExactArch bool `toml:"exact_arch"`
	// OldPackage permits installing a package older than one already
	// present, rather than rejecting with ErrOldPackage
	// (config.oldpackage).
	OldPackage bool `toml:"old_package"`
	// NoDigest disables digest verification on header/payload decode
	// (nodigest in oldpyrpm.py's ReadRpm).
	NoDigest bool `toml:"no_digest"`
	// Strict enables the strictest header/lead validation level
	// (strict in oldpyrpm.py's ReadRpm).
	Strict bool `toml:"strict"`
	// DebugLevel gates verbose logging, mirroring pyrpm's
	// config.debug/log.setInfoLogLevel.
	DebugLevel int `toml:"debug_level"`
	// TmpPrefix is the directory extraction/build temp files are created
	// under before an atomic rename into place (oldpyrpm.py's tmpprefix).
	TmpPrefix string `toml:"tmp_prefix"`
	// BatchSize bounds how many packages the executor extracts/scripts
	// per fork before resynchronizing with the parent (§4.7).
	BatchSize int `toml:"batch_size"`
}

// Default returns the configuration pyrpm ships with out of the box:
// conflict/file-conflict checking on, old-package protection on,
// exact-arch matching off, NoDigest and Strict off, batch size 100.
func Default() Config {
	return Config{
		CheckInstalled:  false,
		NoConflicts:     false,
		NoFileConflicts: false,
		ExactArch:       false,
		OldPackage:      false,
		NoDigest:        false,
		Strict:          false,
		DebugLevel:      0,
		TmpPrefix:       "rpmcore",
		BatchSize:       100,
	}
}

// Load reads a TOML configuration file at path, starting from Default()
// and overwriting only the fields the file sets.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "rpmconfig: open %s", path)
	}
	defer f.Close()
	if _, err := toml.DecodeReader(f, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "rpmconfig: decode %s", path)
	}
	return cfg, nil
}
