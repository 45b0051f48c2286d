// Package set provides a small concurrent integer set used by the emulator.
//
// AtomicBitSet holds integers in the range [0, 63] in a single atomically
// updated word. Device threads add elements while the CPU thread tests and
// clears them, without any additional locking.
package set
