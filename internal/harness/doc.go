// Package harness executes scenario files against the engine.
//
// A scenario is a YAML script: a seat set, optional threshold overrides,
// and a sequence of timestamped steps (reservations, observations,
// overrides, policy ticks). The harness drives a real Monitor through the
// steps on a simulated clock, records a trace of every state change and
// alert, and evaluates the scenario's assertions against the trace and
// the final registry state.
//
// Determinism: the clock starts at a fixed epoch and only moves where the
// scenario says so, and alert ids come from a fixed sequential generator.
// The same scenario therefore always produces a byte-identical trace,
// which is what makes golden file comparison meaningful.
package harness
