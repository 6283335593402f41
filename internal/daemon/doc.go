// Package daemon hosts the long-running amp process: a flock-guarded
// single instance that runs the coordinator and exposes it to the IPC
// server. The daemon owns shutdown ordering so the state store is closed
// only after the coordinator has stopped writing to it.
package daemon
