// Package coordinator drives the daemon's runtime state machine. On start
// it resolves entitlement, loads and clamps per-site settings, applies
// them to every discovered media element, and then watches the persisted
// store so that changes made by any context are re-derived locally. It
// also exposes the message endpoints served over the control socket; every
// endpoint folds faults into ok=false results instead of returning errors.
package coordinator
