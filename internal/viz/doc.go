// Package viz provides visualization sinks for control-loop environments.
//
// A [Sink] is started and bound to a model once, then receives one [Frame]
// per environment refresh:
//
//   - [Terminal]: Braille rendering of the joint chain written to an io.Writer
//   - [Live]: Bubble Tea program fed frames as messages
//   - [Recorder]: in-memory frame log
//
// Sinks mirror the backend on a best-effort basis. They are never read back
// by the control loop.
//
// # Key Bindings (Live)
//
//	T     - Cycle color themes
//	Q     - Quit the viewer (the simulation keeps running)
package viz
