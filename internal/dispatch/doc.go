// Package dispatch fans submitted requests out to a fixed pool of worker
// loops through a single shared queue, and correlates each response back to
// its waiting caller via the registry. There is no routing policy: all
// workers pull from one queue, so the fastest idle worker wins.
package dispatch
