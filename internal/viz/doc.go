// Package viz renders a running ecosystem in the terminal.
//
// The live view is a Bubble Tea program fed by [Sink]: the observing agent
// sends every persisted month to the program as a [RecordMsg], and the run's
// outcome arrives as a [DoneMsg].
//
// # Key Bindings
//
//	Space - Freeze/unfreeze the display (the run keeps going)
//	G     - Cycle the plotted series
//	Q     - Quit and cancel the run
package viz
