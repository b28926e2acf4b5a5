// Package barrier provides reusable rendezvous points for a fixed-size team
// of goroutines.
//
// Two implementations share the [Barrier] interface:
//
//   - [Spin]: arrive/depart handshake with busy-waiting. Low wake latency,
//     burns a core per waiter. Suited to small teams and short rounds.
//   - [Cond]: generation-counted condition variable. Waiters sleep, wake-up
//     costs a scheduler round trip.
//
// # Reuse
//
// A barrier is reused for every round of the run. A fast goroutine that
// leaves round r may call Wait again immediately; neither implementation
// lets it be counted towards round r.
//
// # Liveness
//
// If fewer than Size() goroutines ever arrive, the others block forever.
// The barrier cannot detect this. Callers that need an escape hatch call
// Break, which releases every current and future waiter with [ErrBroken].
package barrier
