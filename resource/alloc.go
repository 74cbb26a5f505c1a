package resource

import (
	"fmt"
	"math"
)

// MaxHostAllocation bounds any single host-backed allocation.
const MaxHostAllocation = 1 << 40

// AllocError reports a host allocation the runtime cannot satisfy. It is
// raised as a panic from deep inside object construction and converted to an
// out-of-host-memory result at the API boundary.
type AllocError struct {
	What string
	Size uint64
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("resource: cannot allocate %d bytes for %s", e.Size, e.What)
}

func checkHostSize(n uint64, what string) {
	if n > MaxHostAllocation || n > math.MaxInt {
		panic(&AllocError{What: what, Size: n})
	}
}

// makeBytes allocates n zeroed bytes or panics with *AllocError.
func makeBytes(n uint64, what string) []byte {
	checkHostSize(n, what)
	return make([]byte, n)
}

// Clone copies b into a fresh host allocation.
func Clone(b []byte, what string) []byte {
	out := makeBytes(uint64(len(b)), what)
	copy(out, b)
	return out
}
