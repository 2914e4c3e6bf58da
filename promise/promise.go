// Package promise implements the PromiseHandler capability (spec §9):
// four operations for scheduling deferred cross-account invocations on
// the host. Scheduling only ever records intent; the host decides when
// (or whether) a promise actually executes, possibly after the current
// invocation returns (spec §5 "Suspension points: none ... Scheduling of
// promises ... is deferred").
//
// Grounded on original_source engine-sdk/src/promise.rs and
// engine-standalone-storage/src/promise.rs for the Noop/Tracker split, and
// on zeta-chain-evm/x/vm/keeper/state_transition.go's
// PostTxProcessing/HasHooks pattern for the "deferred, host decides when"
// idiom translated into Go.
package promise

// BatchAction is one action appended to a promise batch (a single
// cross-account call, a function-call attachment, a balance transfer, …).
// The concrete action shapes are host-defined; this is kept opaque here
// since the host IPC surface is out of scope (spec §1).
type BatchAction struct {
	MethodName string
	Args       []byte
	GasLimit   uint64
	Deposit    []byte // big-endian Wei/host-token amount
}

// Handler is the capability every entry point receives to schedule
// promises and consume their results. It models exactly the four
// operations spec §9 names: create_call, attach_callback, create_batch,
// and return.
type Handler interface {
	// CreateCall schedules a new promise against targetAccountID carrying
	// the given actions (each action names its own method).
	CreateCall(targetAccountID string, actions []BatchAction) (id int)
	// AttachCallback schedules a callback promise chained after basePromise.
	AttachCallback(basePromise int, targetAccountID string, actions []BatchAction) (id int)
	// CreateBatch starts a new, empty batch of actions against
	// targetAccountID, returning a handle further actions can be appended to.
	CreateBatch(targetAccountID string) (id int)
	// Return marks promiseID's result as this invocation's own return
	// value, the host-level equivalent of a tail call.
	Return(promiseID int)
	// ResultsCount reports how many promise results are available as
	// inputs to this invocation (spec §9: "Promise results are inputs").
	ResultsCount() int
	// Result returns the i-th promise result, if any.
	Result(i int) ([]byte, bool)
}

// Noop is the PromiseHandler used by the simulation path (spec §4.7/§5):
// "Simulation (eth_call) uses a no-op handler (no promises scheduled, all
// promise-result precompiles return empty)."
type Noop struct{}

func (Noop) CreateCall(string, []BatchAction) int                 { return -1 }
func (Noop) AttachCallback(int, string, []BatchAction) int        { return -1 }
func (Noop) CreateBatch(string) int                               { return -1 }
func (Noop) Return(int)                                           {}
func (Noop) ResultsCount() int                                    { return 0 }
func (Noop) Result(int) ([]byte, bool)                            { return nil, false }

// recordedIntent is one call Tracker observed being scheduled.
type recordedIntent struct {
	Kind             string // "call", "callback", "batch"
	TargetAccountID  string
	BasePromise      int
	Actions          []BatchAction
}

// Tracker is a test double that records scheduling intent instead of
// forwarding it to a host. Intents are kept in a slice in call order; there
// is no map keyed by promise ID.
type Tracker struct {
	intents []recordedIntent
	results [][]byte
	nextID  int
	ret     int
}

// NewTracker returns a Tracker pre-seeded with the given promise results,
// so tests can exercise promise_result/promise_results_count without a
// real host.
func NewTracker(results [][]byte) *Tracker {
	return &Tracker{results: results, ret: -1}
}

func (t *Tracker) CreateCall(target string, actions []BatchAction) int {
	id := t.nextID
	t.nextID++
	t.intents = append(t.intents, recordedIntent{Kind: "call", TargetAccountID: target, Actions: actions})
	return id
}

func (t *Tracker) AttachCallback(base int, target string, actions []BatchAction) int {
	id := t.nextID
	t.nextID++
	t.intents = append(t.intents, recordedIntent{Kind: "callback", TargetAccountID: target, BasePromise: base, Actions: actions})
	return id
}

func (t *Tracker) CreateBatch(target string) int {
	id := t.nextID
	t.nextID++
	t.intents = append(t.intents, recordedIntent{Kind: "batch", TargetAccountID: target})
	return id
}

func (t *Tracker) Return(promiseID int) { t.ret = promiseID }

func (t *Tracker) ResultsCount() int { return len(t.results) }

func (t *Tracker) Result(i int) ([]byte, bool) {
	if i < 0 || i >= len(t.results) {
		return nil, false
	}
	return t.results[i], true
}

// Intents returns every scheduling call Tracker has observed, for test
// assertions.
func (t *Tracker) Intents() []recordedIntent { return t.intents }

// Returned reports the promise ID passed to Return, or -1 if none.
func (t *Tracker) Returned() int { return t.ret }

// HostBridge is the seam a production binding to an actual host process
// would implement (spec §9: "HostBridge (production, forwards to host)").
// It is declared here, unimplemented, since the host IPC transport itself
// is an out-of-scope external collaborator (spec §1).
type HostBridge interface {
	Handler
}
