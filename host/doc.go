// Package host drives plugin modules through their lifecycle.
//
// A Host loads modules, checks their capability descriptor, runs init exactly
// once, and routes stateless calls and instance invocations across the
// boundary. Arguments and results cross as JSON; instances live behind opaque
// handles owned by the host registry. Faults raised by plugin code are
// recovered and reported as errors, never propagated as panics.
package host
