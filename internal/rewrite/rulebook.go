package rewrite

import (
	"context"
	"sort"
	"sync"

	"github.com/rawblock/moment-algebra/pkg/models"
)

// RuleLogger receives progress notifications from Rulebook.Complete. It has
// no required implementation; a nil logger means no notifications are
// delivered. The core package never logs on its own, and no implementation
// ships in this module.
type RuleLogger interface {
	RuleIntroduced(r Rule)
	RuleRemoved(r Rule)
	Success(iteration int)
	Failure(iteration int)
}

// Rulebook is an ordered collection of oriented rewrite rules keyed by the
// shortlex hash of each rule's LHS. It owns a Hasher sized for its raw
// operator alphabet (which is twice the generator count for Bunched and
// Interleaved conjugation modes) and exposes reduction, Knuth-Bendix
// completion, and conjugate closure.
type Rulebook struct {
	mu            sync.RWMutex
	hasher        *Hasher
	mode          ConjugationMode
	numGenerators int
	operatorCount int
	hermitian     bool
	rules         map[uint64]Rule
}

// NewRulebook constructs an empty rulebook over numGenerators generators
// under the given conjugation mode. hermitian controls whether Complete
// performs an initial conjugate closure pass (see §4.3); it has no default
// and must be passed explicitly for every conjugation mode.
func NewRulebook(numGenerators int, mode ConjugationMode, hermitian bool) *Rulebook {
	opCount := numGenerators
	if mode != SelfAdjoint {
		opCount = numGenerators * 2
	}
	return &Rulebook{
		hasher:        NewHasher(opCount),
		mode:          mode,
		numGenerators: numGenerators,
		operatorCount: opCount,
		hermitian:     hermitian,
		rules:         make(map[uint64]Rule),
	}
}

// Hasher returns the hasher this rulebook reduces and compares sequences
// with.
func (rb *Rulebook) Hasher() *Hasher {
	return rb.hasher
}

// OperatorCount returns the raw alphabet size (generators plus any
// auto-appended conjugate operators).
func (rb *Rulebook) OperatorCount() int {
	return rb.operatorCount
}

// ConjugationMode returns the fixed conjugation mode.
func (rb *Rulebook) ConjugationMode() ConjugationMode {
	return rb.mode
}

// Len returns the number of stored rules.
func (rb *Rulebook) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return len(rb.rules)
}

// Rules returns a snapshot of the stored rules, ordered by ascending LHS
// hash.
func (rb *Rulebook) Rules() []Rule {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.orderedRulesLocked()
}

func (rb *Rulebook) orderedRulesLocked() []Rule {
	out := make([]Rule, 0, len(rb.rules))
	for _, r := range rb.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LHS.Hash < out[j].LHS.Hash })
	return out
}

// AddRule inserts r, cascading through the majorization/zero-implication
// logic of §4.3 step 3/4, and returns the total number of rules inserted or
// replaced (counting cascaded insertions).
func (rb *Rulebook) AddRule(r Rule) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.addRuleLocked(r)
}

func (rb *Rulebook) addRuleLocked(r Rule) (int, error) {
	if r.Trivial() {
		return 0, nil
	}
	key := r.LHS.Hash
	e, exists := rb.rules[key]
	if !exists {
		rb.rules[key] = r
		return 1, nil
	}
	if r.RHS.Equal(e.RHS) {
		return 0, nil
	}

	sameRaw := !r.RHS.Zero && !e.RHS.Zero && sliceEqual(r.RHS.Raw, e.RHS.Raw)
	if sameRaw && r.RHS.Sign != e.RHS.Sign {
		total := 0
		rb.rules[key] = Rule{LHS: e.LHS.WithSign(models.SignPlusOne), RHS: Zero()}
		total++
		zeroRule, err := NewRule(New(rb.hasher, e.RHS.Raw, models.SignPlusOne), Zero())
		if err == nil {
			n, _ := rb.addRuleLocked(zeroRule)
			total += n
		}
		return total, nil
	}

	if e.RHS.Hash < r.RHS.Hash {
		derived, err := NewRule(r.RHS, e.RHS)
		if err != nil {
			return 0, nil
		}
		n, _ := rb.addRuleLocked(derived)
		return n, nil
	}

	delete(rb.rules, key)
	rb.rules[key] = r
	total := 1
	derived, err := NewRule(e.RHS, r.RHS)
	if err == nil {
		n, _ := rb.addRuleLocked(derived)
		total += n
	}
	return total, nil
}

// Reduce rewrites seq to its normal form: while some rule's LHS appears,
// the leftmost match is rewritten, the scan restarts from the first rule,
// and signs accumulate multiplicatively. Short-circuits to the zero
// sentinel as soon as any rewrite produces it.
func (rb *Rulebook) Reduce(seq HashedSequence) HashedSequence {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.reduceLocked(seq)
}

func (rb *Rulebook) reduceLocked(seq HashedSequence) HashedSequence {
	if seq.Zero {
		return seq
	}
	current := seq
	ordered := rb.orderedRulesLocked()
	for {
		rewritten := false
		for _, r := range ordered {
			pos := r.MatchesAnywhere(current)
			if pos < 0 {
				continue
			}
			next, err := r.ApplyMatchWithHint(rb.hasher, current, pos)
			if err != nil {
				continue
			}
			current = next
			rewritten = true
			break
		}
		if !rewritten || current.Zero {
			break
		}
	}
	return current
}

// ReduceRuleset removes each rule in turn, reduces both of its sides by the
// remaining rules, and reinserts the result unless it is now trivial. Stable
// under repeated calls.
func (rb *Rulebook) ReduceRuleset() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.reduceRulesetLocked()
}

func (rb *Rulebook) reduceRulesetLocked() {
	keys := make([]uint64, 0, len(rb.rules))
	for k := range rb.rules {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		r, ok := rb.rules[k]
		if !ok {
			continue
		}
		delete(rb.rules, k)

		reducedLHS := rb.reduceLocked(r.LHS.WithSign(models.SignPlusOne))
		if reducedLHS.Zero {
			continue
		}
		reducedRHS := rb.reduceLocked(r.RHS)

		lhs, rhs := reducedLHS, reducedRHS
		if lhs.Less(rhs) {
			lhs, rhs = rhs, lhs
		}
		if lhs.Zero {
			continue
		}
		newRule, err := NewRule(lhs, rhs)
		if err != nil || newRule.Trivial() {
			continue
		}
		rb.addRuleLocked(newRule)
	}
}

// TryNewCombination scans ordered pairs of rules, computes their combined
// rule, reduces it, and inserts it if nontrivial, reducing the ruleset
// afterward. Returns whether a new rule was introduced.
func (rb *Rulebook) TryNewCombination() bool {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return rb.tryNewCombinationLocked(nil)
}

func (rb *Rulebook) tryNewCombinationLocked(logger RuleLogger) bool {
	ordered := rb.orderedRulesLocked()
	for i := range ordered {
		for j := range ordered {
			if i == j {
				continue
			}
			combined, ok := ordered[i].Combine(ordered[j], rb.hasher)
			if !ok {
				continue
			}
			reducedLHS := rb.reduceLocked(combined.LHS)
			reducedRHS := rb.reduceLocked(combined.RHS)
			lhs, rhs := reducedLHS, reducedRHS
			if lhs.Less(rhs) {
				lhs, rhs = rhs, lhs
			}
			if lhs.Zero {
				continue
			}
			newRule, err := NewRule(lhs, rhs)
			if err != nil || newRule.Trivial() {
				continue
			}
			n, _ := rb.addRuleLocked(newRule)
			if n > 0 {
				if logger != nil {
					logger.RuleIntroduced(newRule)
				}
				rb.reduceRulesetLocked()
				return true
			}
		}
	}
	return false
}

// conjugateRulesetLocked adds the conjugate of every current rule when
// nontrivial. In mock mode nothing is mutated; it only reports how many
// nontrivial conjugate rules the current rules do not already reduce to a
// trivial pair.
func (rb *Rulebook) conjugateRulesetLocked(mock bool, logger RuleLogger) int {
	snapshot := rb.orderedRulesLocked()
	added := 0
	for _, r := range snapshot {
		conj, err := r.Conjugate(rb.hasher, rb.mode, rb.operatorCount)
		if err != nil || conj.Trivial() {
			continue
		}
		if mock {
			if !rb.reducesTrivially(&conj) {
				added++
			}
			continue
		}
		n, _ := rb.addRuleLocked(conj)
		if n > 0 && logger != nil {
			logger.RuleIntroduced(conj)
		}
		added += n
	}
	return added
}

// Complete runs the Knuth-Bendix completion loop: an initial conjugate
// closure pass (if Hermitian), then repeated TryNewCombination until no new
// rule is produced or maxIterations is reached. maxIterations == 0 runs in
// mock mode: no mutation occurs, and the return value reports whether the
// set was already complete. ctx is checked between iterations so a caller
// can cancel a long completion run; on cancellation the rulebook is left in
// whatever state it reached.
func (rb *Rulebook) Complete(ctx context.Context, maxIterations int, logger RuleLogger) (bool, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	mockMode := maxIterations == 0
	iteration := 0
	if rb.hermitian {
		newRules := rb.conjugateRulesetLocked(mockMode, logger)
		if mockMode && newRules > 0 {
			return false, nil
		}
		iteration += newRules
	}
	if mockMode {
		complete := rb.isCompleteLocked(true)
		return complete, nil
	}

	for iteration < maxIterations {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		default:
		}
		if !rb.tryNewCombinationLocked(logger) {
			if logger != nil {
				logger.Success(iteration)
			}
			return true, nil
		}
		iteration++
	}

	complete := rb.isCompleteLocked(true)
	if logger != nil {
		if complete {
			logger.Success(iteration)
		} else {
			logger.Failure(iteration)
		}
	}
	return complete, nil
}

// IsComplete performs an exhaustive confluence check: every ordered pair of
// rules must combine-and-reduce to a trivial pair. When testCC is true, it
// additionally requires every rule's conjugate to reduce to a trivial pair.
func (rb *Rulebook) IsComplete(testCC bool) bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.isCompleteLocked(testCC)
}

func (rb *Rulebook) isCompleteLocked(testCC bool) bool {
	ordered := rb.orderedRulesLocked()
	for i := range ordered {
		for j := range ordered {
			if i == j {
				continue
			}
			combined, ok := ordered[i].Combine(ordered[j], rb.hasher)
			if !ok {
				continue
			}
			if !rb.reducesTrivially(combined) {
				return false
			}
		}
	}
	if testCC {
		for _, r := range ordered {
			conj, err := r.Conjugate(rb.hasher, rb.mode, rb.operatorCount)
			if err != nil || conj.Trivial() {
				continue
			}
			if !rb.reducesTrivially(&conj) {
				return false
			}
		}
	}
	return true
}

func (rb *Rulebook) reducesTrivially(r *Rule) bool {
	lhs := rb.reduceLocked(r.LHS.WithSign(models.SignPlusOne))
	rhs := rb.reduceLocked(r.RHS)
	if lhs.Zero || rhs.Zero {
		return lhs.Zero == rhs.Zero
	}
	return lhs.Hash == rhs.Hash && lhs.Sign == rhs.Sign
}

// GenerateCommutators inserts {b,a -> a,b : b > a} over the full raw
// operator alphabet (including any auto-appended conjugate operators),
// returning the number of rules actually inserted.
func (rb *Rulebook) GenerateCommutators() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	added := 0
	for a := 0; a < rb.operatorCount; a++ {
		for b := a + 1; b < rb.operatorCount; b++ {
			lhs := New(rb.hasher, []int{b, a}, models.SignPlusOne)
			rhs := New(rb.hasher, []int{a, b}, models.SignPlusOne)
			rule, err := NewRule(lhs, rhs)
			if err != nil {
				continue
			}
			n, _ := rb.addRuleLocked(rule)
			added += n
		}
	}
	return added
}

// GenerateNormalOperatorRules inserts, for each of the numGenerators
// generators, the rule relating a·a* and a*·a, oriented with the higher-hash
// ordering as LHS (a*·a -> a·a*, since a generator's operator id is below
// its conjugate's), when the conjugation mode is not SelfAdjoint. It
// is a no-op (returns 0) under SelfAdjoint, since every generator is then
// already its own conjugate and the rule would be trivial.
func (rb *Rulebook) GenerateNormalOperatorRules() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	if rb.mode == SelfAdjoint {
		return 0
	}
	added := 0
	for a := 0; a < rb.numGenerators; a++ {
		aStar := ConjugateOperator(rb.mode, rb.operatorCount, a)
		first := New(rb.hasher, []int{a, aStar}, models.SignPlusOne)
		second := New(rb.hasher, []int{aStar, a}, models.SignPlusOne)
		lhs, rhs := first, second
		if lhs.Less(rhs) {
			lhs, rhs = rhs, lhs
		}
		rule, err := NewRule(lhs, rhs)
		if err != nil {
			continue
		}
		n, _ := rb.addRuleLocked(rule)
		added += n
	}
	return added
}
