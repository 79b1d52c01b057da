//go:build amd64

package platform

// SyncICache is a documented no-op on x86-64: the hardware guarantees
// instruction-fetch coherency with recent stores without software
// intervention. The call is still required by the Page Service's
// contract (spec.md §4.1 calls this "benign-but-required-by-contract
// on x86-64" so that callers do not need an ISA-conditional call
// site), matching cross.c's own comment on __builtin___clear_cache:
// "It's a no-op on x86-64 as instruction cache coherency is handled by
// hardware."
func SyncICache(Region) error {
	return nil
}
