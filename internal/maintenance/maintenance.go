// Package maintenance implements the refresh/maintenance protocol that owns
// a Collins-Gisin tensor and a probability tensor, building each lazily and
// keeping both monotonically up to date against the symbol table.
package maintenance

import (
	"sync"

	"github.com/rawblock/moment-algebra/internal/collinsgisin"
	"github.com/rawblock/moment-algebra/internal/polynomial"
)

// CollinsGisinBuilder constructs a fresh Collins-Gisin tensor on demand.
type CollinsGisinBuilder func() (*collinsgisin.Tensor, error)

// ProbabilityTensorBuilder constructs a fresh probability tensor over an
// existing Collins-Gisin tensor.
type ProbabilityTensorBuilder func(cg *collinsgisin.Tensor) (*polynomial.Tensor, error)

// TensorHost owns the lazily-built Collins-Gisin and probability tensors and
// gates all access to them behind a single shared_mutex-style RWMutex,
// exactly matching the lock-upgrade discipline: a read lock is always
// released before any write-lock acquisition, so a refresh call never
// deadlocks against a concurrent reader of the same host.
type TensorHost struct {
	mu sync.RWMutex

	cg         *collinsgisin.Tensor
	cgComplete bool
	buildCG    CollinsGisinBuilder

	pt         *polynomial.Tensor
	ptComplete bool
	buildPT    ProbabilityTensorBuilder

	factory polynomial.Factory
}

// NewTensorHost builds a host around the given constructors.
func NewTensorHost(buildCG CollinsGisinBuilder, buildPT ProbabilityTensorBuilder, factory polynomial.Factory) *TensorHost {
	return &TensorHost{buildCG: buildCG, buildPT: buildPT, factory: factory}
}

// RefreshCollinsGisin ensures the Collins-Gisin tensor exists and has no
// outstanding missing symbols, following §4.8's three-branch discipline:
// absent -> build under the write lock; present-and-complete -> return
// immediately; present-but-incomplete -> retry misses under the write lock.
func (h *TensorHost) RefreshCollinsGisin() (bool, error) {
	h.mu.RLock()
	if h.cg == nil {
		h.mu.RUnlock()
		h.mu.Lock()
		if h.cg == nil {
			cg, err := h.buildCG()
			if err != nil {
				h.mu.Unlock()
				return false, err
			}
			h.cg = cg
			h.cgComplete = cg.FillMissingSymbols()
		}
		complete := h.cgComplete
		h.mu.Unlock()
		return complete, nil
	}
	if h.cgComplete {
		h.mu.RUnlock()
		return true, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	h.cgComplete = h.cg.FillMissingSymbols()
	complete := h.cgComplete
	h.mu.Unlock()
	return complete, nil
}

// RefreshProbabilityTensor mirrors RefreshCollinsGisin for the probability
// tensor, building it (against the current Collins-Gisin tensor, which must
// already be refreshed by the caller) and attempting symbol resolution on
// first use, and retrying unresolved polynomials thereafter.
func (h *TensorHost) RefreshProbabilityTensor() (bool, error) {
	h.mu.RLock()
	if h.pt == nil {
		h.mu.RUnlock()
		h.mu.Lock()
		if h.pt == nil {
			if h.cg == nil {
				h.mu.Unlock()
				return false, &BadHostError{Detail: "collins-gisin tensor not yet built"}
			}
			pt, err := h.buildPT(h.cg)
			if err != nil {
				h.mu.Unlock()
				return false, err
			}
			h.pt = pt
			pt.FillMissingPolynomials(h.factory)
			h.ptComplete = ptFullyResolved(pt, h.factory)
		}
		complete := h.ptComplete
		h.mu.Unlock()
		return complete, nil
	}
	if h.ptComplete {
		h.mu.RUnlock()
		return true, nil
	}
	h.mu.RUnlock()

	h.mu.Lock()
	h.pt.FillMissingPolynomials(h.factory)
	h.ptComplete = ptFullyResolved(h.pt, h.factory)
	complete := h.ptComplete
	h.mu.Unlock()
	return complete, nil
}

func ptFullyResolved(pt *polynomial.Tensor, factory polynomial.Factory) bool {
	full := pt.Data().FullRange()
	for !full.Done() {
		if !full.Current().Value().HasSymbols {
			return false
		}
		full.Next()
	}
	return true
}

// CollinsGisin returns the current Collins-Gisin tensor, or nil if it has
// not been built yet.
func (h *TensorHost) CollinsGisin() *collinsgisin.Tensor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cg
}

// ProbabilityTensor returns the current probability tensor, or nil if it has
// not been built yet.
func (h *TensorHost) ProbabilityTensor() *polynomial.Tensor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.pt
}
