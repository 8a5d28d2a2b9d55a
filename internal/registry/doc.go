// Package registry correlates request keys to their eventual responses. A
// caller registers a key and receives a completion cell to wait on; whoever
// produces the response completes the key, which fulfills the cell and wakes
// the waiter. Registration and completion are atomic with respect to each
// other, so each registration is fulfilled at most once.
package registry
