// Package main hosts the ampd daemon entrypoint.
//
// The daemon owns the audio routing engine, the media watcher, and the
// state store, and exposes control operations over a Unix socket consumed
// by the amp CLI. It runs until SIGINT or SIGTERM.
package main
