package orderer

import "github.com/rpmcore/rpmcore/rpmpkg"

// genOperations expands an ordered package list into concrete steps: a
// package in o.erases becomes an OpErase step, otherwise it becomes an
// OpUpdate or OpInstall step (whichever this transaction recorded for it),
// immediately followed by erase steps for whatever it obsoletes or
// supersedes. Ported from orderer.py's RpmOrderer.genOperations.
func (o *Orderer) genOperations(order []*rpmpkg.Package) []Step {
	eraseSet := make(map[*rpmpkg.Package]bool, len(o.erases))
	for _, p := range o.erases {
		eraseSet[p] = true
	}

	var ops []Step
	for _, p := range order {
		if eraseSet[p] {
			ops = append(ops, Step{Op: OpErase, Pkg: p})
			continue
		}
		op := OpInstall
		if _, ok := o.updates[p]; ok {
			op = OpUpdate
		}
		ops = append(ops, Step{Op: op, Pkg: p})
		if olds, ok := o.obsoletes[p]; ok {
			ops = append(ops, o.genEraseOps(olds)...)
		}
		if olds, ok := o.updates[p]; ok {
			ops = append(ops, o.genEraseOps(olds)...)
		}
	}
	return ops
}

// genEraseOps schedules the packages a superseding install/update step
// displaces. A single displaced package erases directly; more than one
// needs its own sub-ordering pass, since the displaced packages may depend
// on each other. Ported from orderer.py's RpmOrderer._genEraseOps.
func (o *Orderer) genEraseOps(pkgs []*rpmpkg.Package) []Step {
	if len(pkgs) == 1 {
		return []Step{{Op: OpErase, Pkg: pkgs[0]}}
	}
	sub := New(nil, pkgs, nil, nil, o.log)
	steps, err := sub.Order()
	if err != nil {
		o.log.Warn().Err(err).Msg("orderer: could not order superseded packages, erasing in input order")
		out := make([]Step, len(pkgs))
		for i, p := range pkgs {
			out[i] = Step{Op: OpErase, Pkg: p}
		}
		return out
	}
	return steps
}
