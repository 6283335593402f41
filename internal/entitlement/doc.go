// Package entitlement derives the effective capability level from the
// persisted license flag and trial timestamp.
//
// The resolver owns the trial lifecycle: the window is a single,
// non-renewable, time-boxed elevation to full capability. Expiry is a
// persistent transition performed during Resolve, never a background timer,
// so every context converges on the same answer by re-resolving from the
// store.
package entitlement
