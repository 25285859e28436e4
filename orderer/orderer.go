// Package orderer schedules a resolved transaction's installs and erases
// into an executable sequence: packages that provide a hard (PreReq)
// dependency for another package in the same transaction are emitted
// before their dependents, erase sub-graphs run in reverse dependency
// order, and dependency cycles are detected and broken rather than
// rejected outright.
//
// Ported from pyrpm/orderer.py's RpmOrderer. Package identity is the map
// key throughout, the direct Go analogue of pyrpm's pointer-keyed
// HashList — a transaction's package set is fixed before ordering begins,
// so (unlike pkgdb's handle arena, which exists because packages can be
// added and retired over a DB's lifetime) no extra indirection is needed.
package orderer

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rpmcore/rpmcore/rpmpkg"
)

// Operation names the action genOperations schedules a package under.
type Operation int

const (
	OpInstall Operation = iota
	OpUpdate
	OpErase
)

func (op Operation) String() string {
	switch op {
	case OpInstall:
		return "install"
	case OpUpdate:
		return "update"
	case OpErase:
		return "erase"
	default:
		return "unknown"
	}
}

// Step is one scheduled action: install, update or erase a single package.
type Step struct {
	Op  Operation
	Pkg *rpmpkg.Package
}

// Orderer holds one transaction's install/erase/update/obsolete sets —
// the same four collections pyrpm's RpmResolver hands to RpmOrderer's
// constructor.
type Orderer struct {
	installs  []*rpmpkg.Package
	erases    []*rpmpkg.Package
	updates   map[*rpmpkg.Package][]*rpmpkg.Package
	obsoletes map[*rpmpkg.Package][]*rpmpkg.Package
	log       zerolog.Logger
}

// New builds an Orderer. erases that also appear as an update or obsolete
// target are removed from the plain erase list, since genOperations
// schedules them as a side effect of their superseding install/update step
// instead — ported from RpmOrderer.__init__'s erase-list pruning.
func New(installs, erases []*rpmpkg.Package, updates, obsoletes map[*rpmpkg.Package][]*rpmpkg.Package, log zerolog.Logger) *Orderer {
	o := &Orderer{
		installs:  installs,
		updates:   updates,
		obsoletes: obsoletes,
		log:       log,
	}
	superseded := make(map[*rpmpkg.Package]bool)
	for _, olds := range updates {
		for _, p := range olds {
			superseded[p] = true
		}
	}
	for _, olds := range obsoletes {
		for _, p := range olds {
			superseded[p] = true
		}
	}
	for _, p := range erases {
		if !superseded[p] {
			o.erases = append(o.erases, p)
		}
	}
	return o
}

// Order runs the full scheduling pipeline: generate the dependency graph,
// topologically emit it (breaking any cycle it finds), then expand the
// emission order into concrete install/update/erase steps. It returns an
// error only if a dependency cycle could not be broken, which genuinely
// should never happen since breakupLoops always has a hard edge to zap as
// a last resort once any loop exists.
func (o *Orderer) Order() ([]Step, error) {
	order, err := o.genOrder()
	if err != nil {
		return nil, err
	}
	return o.genOperations(order), nil
}

// genOrder orders installs first, then erases (emitted in reverse, since
// an erase sub-graph's dependency direction is the mirror of an install's)
// — ported from RpmOrderer.genOrder.
func (o *Orderer) genOrder() ([]*rpmpkg.Package, error) {
	var order []*rpmpkg.Package
	if len(o.installs) > 0 {
		rs := o.genRelations(o.installs, OpInstall)
		part, err := genOrderFromRelations(rs, o.log)
		if err != nil {
			return nil, err
		}
		order = append(order, part...)
	}
	if len(o.erases) > 0 {
		rs := o.genRelations(o.erases, OpErase)
		part, err := genOrderFromRelations(rs, o.log)
		if err != nil {
			return nil, err
		}
		reverse(part)
		order = append(order, part...)
	}
	return order, nil
}

func reverse(pkgs []*rpmpkg.Package) {
	for i, j := 0, len(pkgs)-1; i < j; i, j = i+1, j-1 {
		pkgs[i], pkgs[j] = pkgs[j], pkgs[i]
	}
}

var errUnbreakableLoop = errors.New("orderer: unable to break dependency loop")
