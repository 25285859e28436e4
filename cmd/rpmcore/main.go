// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command rpmcore drives install/update/erase transactions against a
// pkgdb/store database: resolve, order, and execute, in that order.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/exec"
	"github.com/rpmcore/rpmcore/header"
	"github.com/rpmcore/rpmcore/orderer"
	"github.com/rpmcore/rpmcore/pkgdb"
	"github.com/rpmcore/rpmcore/pkgdb/store"
	"github.com/rpmcore/rpmcore/resolver"
	"github.com/rpmcore/rpmcore/rpmconfig"
	"github.com/rpmcore/rpmcore/rpmpkg"
	"github.com/rpmcore/rpmcore/trigger"
)

var (
	dbDir      = flag.String("dbpath", "/var/lib/rpmcore", "installed-package database directory")
	destDir    = flag.String("root", "/", "installation root")
	configPath = flag.String("config", "", "path to a TOML configuration file")
	verbose    = flag.Bool("v", false, "enable debug logging")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage:
  %s [OPTION] install|update|freshen|erase FILE...
Options:
`, os.Args[0])
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(2)
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if *verbose {
		log = log.Level(zerolog.DebugLevel)
	} else {
		log = log.Level(zerolog.InfoLevel)
	}

	cfg := rpmconfig.Default()
	if *configPath != "" {
		var err error
		cfg, err = rpmconfig.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("loading configuration")
		}
	}

	action := flag.Arg(0)
	files := flag.Args()[1:]

	db, err := loadDB(*dbDir)
	if err != nil {
		log.Fatal().Err(err).Msg("loading database")
	}

	r := resolver.New(db, cfg, log)
	payloads := make(map[*rpmpkg.Package][]byte)

	for _, path := range files {
		pkg, rawPayload, err := readPackage(path)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("reading package")
		}
		payloads[pkg] = rawPayload

		switch action {
		case "install":
			_, err = r.Install(pkg)
		case "update":
			_, err = r.Update(pkg)
		case "freshen":
			_, err = r.Freshen(pkg)
		case "erase":
			h, ok := findHandle(db, pkg.Name())
			if !ok {
				log.Fatal().Str("name", pkg.Name()).Msg("package not installed")
			}
			err = r.Erase(h)
		default:
			flag.Usage()
			os.Exit(2)
		}
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("resolving transaction")
		}
	}

	result, err := r.Resolve()
	if err != nil {
		log.Fatal().Err(err).Msg("resolving transaction")
	}

	installs := make([]*rpmpkg.Package, 0, len(result.Installed))
	for _, h := range result.Installed {
		installs = append(installs, db.Get(h))
	}
	erases := make([]*rpmpkg.Package, 0, len(result.Erased))
	for _, h := range result.Erased {
		if pkg := db.Get(h); pkg != nil {
			erases = append(erases, pkg)
		}
	}

	ord := orderer.New(installs, erases, nil, nil, log)
	steps, err := ord.Order()
	if err != nil {
		log.Fatal().Err(err).Msg("ordering transaction")
	}

	idx := trigger.NewIndex()
	for _, h := range db.Handles() {
		idx.AddPkg(db.Get(h))
	}
	countFn := func(name string) int { return len(db.ByName(name)) }
	engine := trigger.NewEngine(idx, scriptRunner{exec.NewProcessHost()}, countFn, log)

	ex := exec.New(cfg, exec.NewProcessHost(), exec.NewFreeSpaceChecker(), db, engine, *destDir, payloads, log)
	err = ex.Run(steps, func(p exec.Progress) {
		if p.Err != nil {
			log.Error().Err(p.Err).Str("nevra", p.Step.Pkg.NEVRA()).Msg("step failed")
			return
		}
		log.Info().Int("index", p.Index).Int("total", p.Total).Str("op", p.Step.Op.String()).
			Str("nevra", p.Step.Pkg.NEVRA()).Msg("step complete")
	})
	if err != nil {
		log.Fatal().Err(err).Msg("executing transaction")
	}

	if err := saveDB(*dbDir, db); err != nil {
		log.Fatal().Err(err).Msg("saving database")
	}
}

func findHandle(db *pkgdb.DB, name string) (pkgdb.Handle, bool) {
	handles := db.ByName(name)
	if len(handles) == 0 {
		return 0, false
	}
	return handles[0], true
}

// scriptRunner adapts an exec.ProcessHost to trigger.Runner, whose single
// method is named Run where ProcessHost's is named RunScript.
type scriptRunner struct{ host exec.ProcessHost }

func (s scriptRunner) Run(prog, script string, args ...string) error {
	return s.host.RunScript(prog, script, args...)
}

var _ trigger.Runner = scriptRunner{}

func readPackage(path string) (*rpmpkg.Package, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	return rpmpkg.ReadAll(f, header.DecodeOptions{})
}

func loadDB(dir string) (*pkgdb.DB, error) {
	st, err := store.Open(dir)
	if err != nil {
		return nil, err
	}
	records, err := st.ReadAll()
	if err != nil {
		return nil, err
	}
	db := pkgdb.New()
	for _, rec := range records {
		db.AddPkg(rec.Pkg)
	}
	return db, nil
}

func saveDB(dir string, db *pkgdb.DB) error {
	st, err := store.Create(dir)
	if err != nil {
		return err
	}
	var tid uint32 = 1
	for _, h := range db.Handles() {
		if _, err := st.WritePackage(tid, db.Get(h)); err != nil {
			return err
		}
		tid++
	}
	return nil
}
