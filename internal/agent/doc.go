// Package agent runs the four ecosystem agents in lock-step.
//
// Every agent repeats the same cycle, one simulated month per cycle:
//
//	Computing  read a snapshot, compute a private candidate
//	barrier    "done computing"
//	Committing write the candidate into the agent's own field
//	barrier    "done assigning"
//	Observing  the Watcher persists a record, advances the clock and
//	           recomputes the climate; everybody else idles
//	barrier    "done observing"
//
// The loop ends when the shared year reaches the configured end year. That
// check reads a single field that only changes while every agent is parked
// at the last barrier, so all four agents stop in the same cycle.
//
// A single [barrier.Barrier] serves all three rendezvous points of every
// cycle.
package agent
