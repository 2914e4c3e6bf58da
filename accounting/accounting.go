// Package accounting tracks the net value change over a transaction
// (spec §4.4.5) without ever subtracting directly from a running total,
// sidestepping signed-arithmetic traps: every balance mutation is recorded
// as an unsigned gain or loss against the previous value, and the two
// running totals are only ever compared once, at the end of the
// transaction, to produce a single signed Net result.
package accounting

import "github.com/holiman/uint256"

// Sign classifies the net value change of a transaction.
type Sign int

const (
	Zero Sign = iota
	Gained
	Lost
)

// Net is the reconciled outcome of an Accounting tracker: either exactly
// balanced, a net gain, or a net loss, with the magnitude attached.
type Net struct {
	Sign   Sign
	Amount uint256.Int
}

// Accounting accumulates unsigned gained/lost totals over a transaction.
type Accounting struct {
	gained uint256.Int
	lost   uint256.Int
}

// New returns a zeroed Accounting tracker.
func New() *Accounting { return &Accounting{} }

// Change records a balance mutation from old to new: if new > old the
// difference is added to gained; if new < old the difference is added to
// lost. Equal values are a no-op.
func (a *Accounting) Change(old, new *uint256.Int) {
	switch old.Cmp(new) {
	case -1: // old < new
		diff := new256()
		diff.Sub(new, old)
		a.gained.Add(&a.gained, diff)
	case 1: // old > new
		diff := new256()
		diff.Sub(old, new)
		a.lost.Add(&a.lost, diff)
	}
}

// Remove records an unconditional loss of v (e.g. a fee paid out, a
// SELFDESTRUCT balance sent away without a matching credit observed here).
func (a *Accounting) Remove(v *uint256.Int) {
	a.lost.Add(&a.lost, v)
}

// Add records an unconditional gain of v (e.g. a minted credit).
func (a *Accounting) Add(v *uint256.Int) {
	a.gained.Add(&a.gained, v)
}

// Net reconciles the accumulated gains and losses into a single signed
// result, per spec §4.4.5: "net() ∈ {Zero, Gained(x), Lost(x)}".
func (a *Accounting) Net() Net {
	switch a.gained.Cmp(&a.lost) {
	case 0:
		return Net{Sign: Zero}
	case 1:
		diff := new256()
		diff.Sub(&a.gained, &a.lost)
		return Net{Sign: Gained, Amount: *diff}
	default:
		diff := new256()
		diff.Sub(&a.lost, &a.gained)
		return Net{Sign: Lost, Amount: *diff}
	}
}

func new256() *uint256.Int { return new(uint256.Int) }
