package external

import (
	"context"
	"sync"

	"verity.dev/core/cci"
	"verity.dev/core/cube"
)

// ResolutionState is the explicit completion state machine spec.md's
// Design Notes require in place of a promise with unchecked status
// flags.
type ResolutionState int

const (
	Pending ResolutionState = iota
	Success
	PartialFailure
	DepthLimited
	ExcludedEncountered
)

func (s ResolutionState) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Success:
		return "Success"
	case PartialFailure:
		return "PartialFailure"
	case DepthLimited:
		return "DepthLimited"
	case ExcludedEncountered:
		return "ExcludedEncountered"
	default:
		return "Unknown"
	}
}

// DefaultDepth is the resolver's default recursion depth (spec.md §6).
const DefaultDepth = 10

// ResolveOptions configures a Resolve call.
type ResolveOptions struct {
	// Depth bounds recursion; 0 uses DefaultDepth.
	Depth int
	// Recursive enables following relationships transitively. False
	// resolves only main's direct relationships.
	Recursive bool
	// RelationTypes, if non-nil, restricts resolution to these
	// relationship types.
	RelationTypes []uint8
	// ExcludeKeys seeds the visited set so callers can skip cubes they
	// already hold (the "excludeVeritable" set of spec.md's Design
	// Notes, flattened to a set of cube keys).
	ExcludeKeys map[cube.Key]bool
}

// ResolvedFuture is one in-flight or completed resolution of a single
// relationship target.
type ResolvedFuture struct {
	Key    cube.Key
	mu     sync.Mutex
	done   bool
	result *Result
	err    error
}

func (f *ResolvedFuture) complete(r *Result, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = true
	f.result, f.err = r, err
}

// Wait blocks (cooperatively, via ctx) until the future resolves. The
// arena-style resolver in this package always completes a future
// before returning it to the caller, so Wait never actually blocks;
// it exists so ResolvedFuture has the same shape a truly async
// retriever's future would have.
func (f *ResolvedFuture) Wait(ctx context.Context) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result, f.err
}

// Result is the structured outcome of a Resolve call (spec.md §6).
type Result struct {
	Main         Veritable
	ByType       map[uint8][]*ResolvedFuture
	State        ResolutionState
	DepthReached bool
	Excluded     bool
}

// AllResolved reports whether every recursive branch reported success.
func (r *Result) AllResolved() bool {
	return r.State == Success
}

// Resolve walks the relationship graph rooted at main via retriever,
// using an arena-style key-indexed visited set rather than owning
// parent pointers (spec.md's Design Notes: "never hold owning pointers
// to parents"), so cycles in the reference graph terminate naturally.
func Resolve(ctx context.Context, main Veritable, retriever CubeRetriever, opts ResolveOptions) *Result {
	depth := opts.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}
	visited := make(map[cube.Key]bool)
	if main != nil {
		visited[main.Key()] = true
	}
	for k := range opts.ExcludeKeys {
		visited[k] = true
	}

	r := &Result{Main: main, ByType: make(map[uint8][]*ResolvedFuture)}
	anyFailure := false
	anyExcluded := false
	anyDepthLimited := false

	rels := main.Relationships(nil)
	for _, rel := range rels {
		if !relationTypeWanted(rel.Type, opts.RelationTypes) {
			continue
		}
		if rel.Type == cci.RelContinuedIn {
			// Continuation chains are a veritum concern, as in resolveOne.
			continue
		}
		if opts.ExcludeKeys[cube.Key(rel.RemoteKey)] {
			anyExcluded = true
			continue
		}
		future := resolveOne(ctx, retriever, cube.Key(rel.RemoteKey), opts, visited, depth-1, &anyFailure, &anyExcluded, &anyDepthLimited, opts.Recursive)
		r.ByType[rel.Type] = append(r.ByType[rel.Type], future)
	}

	switch {
	case anyFailure:
		r.State = PartialFailure
	case anyDepthLimited:
		r.State = DepthLimited
	case anyExcluded:
		r.State = ExcludedEncountered
	default:
		r.State = Success
	}
	r.DepthReached = anyDepthLimited
	r.Excluded = anyExcluded
	return r
}

func relationTypeWanted(t uint8, allow []uint8) bool {
	if allow == nil {
		return true
	}
	for _, a := range allow {
		if a == t {
			return true
		}
	}
	return false
}

func resolveOne(ctx context.Context, retriever CubeRetriever, key cube.Key, opts ResolveOptions, visited map[cube.Key]bool, remainingDepth int, anyFailure, anyExcluded, anyDepthLimited *bool, recurse bool) *ResolvedFuture {
	future := &ResolvedFuture{Key: key}

	if visited[key] {
		*anyExcluded = true
		future.complete(nil, nil)
		return future
	}
	visited[key] = true

	c, err := retriever.Get(ctx, key, RetrieveOptions{TLV: true})
	if err != nil {
		*anyFailure = true
		future.complete(nil, err)
		return future
	}

	veritable := Veritable(CubeVeritable{C: c})
	sub := &Result{Main: veritable, ByType: make(map[uint8][]*ResolvedFuture), State: Success}

	if recurse {
		if remainingDepth <= 0 {
			*anyDepthLimited = true
			sub.State = DepthLimited
			sub.DepthReached = true
		} else {
			rels := veritable.Relationships(nil)
			for _, rel := range rels {
				if !relationTypeWanted(rel.Type, opts.RelationTypes) {
					continue
				}
				if rel.Type == cci.RelContinuedIn {
					// Continuation chains are a Veritum composer concern
					// (package veritum), not part of the application
					// relationship graph the resolver walks.
					continue
				}
				if opts.ExcludeKeys[cube.Key(rel.RemoteKey)] {
					*anyExcluded = true
					continue
				}
				f := resolveOne(ctx, retriever, cube.Key(rel.RemoteKey), opts, visited, remainingDepth-1, anyFailure, anyExcluded, anyDepthLimited, recurse)
				sub.ByType[rel.Type] = append(sub.ByType[rel.Type], f)
			}
		}
	}

	future.complete(sub, nil)
	return future
}
