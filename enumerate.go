package softvk

// enumerate implements the two-call enumeration protocol. With out == nil
// it stores len(all) in *count. Otherwise it copies up to *count entries
// (bounded by len(out)), stores the number copied, and returns Incomplete
// when fewer than len(all) entries fit.
func enumerate[T any, N ~uint32 | ~uint64](count *N, out []T, all []T) Result {
	if count == nil {
		panic("softvk: enumeration with nil count")
	}
	if out == nil {
		*count = N(len(all))
		return Success
	}
	n := min(int(*count), len(out), len(all))
	copy(out, all[:n])
	*count = N(n)
	if n < len(all) {
		return Incomplete
	}
	return Success
}
