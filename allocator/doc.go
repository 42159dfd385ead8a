// Package allocator assigns surveyed students to a fixed number of
// equally capped classes.
//
// Placement is a single greedy pass over a caller supplied order. Each
// student tries, in turn:
//   - a class that already holds one of their declared friends
//   - a fresh seat shared with a friend who has not been decided yet
//   - the least full class that admits them
//
// A student no class admits is recorded as unplaced. Avoidance is checked in
// both directions on every candidate class and no class grows beyond its
// capacity. Nothing is revisited once decided.
package allocator
