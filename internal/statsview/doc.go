// Package statsview serves runtime statistics for the emulator process over HTTP. It
// is only functional when built with the statsview tag:
//
//	go build -tags statsview ./cmd/trace
//
// Charts are then served at localhost:12600/debug/statsview and the standard pprof
// handlers at localhost:12600/debug/pprof/.
package statsview
