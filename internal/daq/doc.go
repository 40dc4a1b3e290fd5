// Package daq owns the digital-I/O collaborator seam.
//
// Ownership boundary:
// - task interfaces the transmit cycle consumes (clocked and immediate,
//   input and output, plus the monotonic microsecond clock)
// - the in-process loopback device used by tests and simulator binaries
//
// A binding to a physical board implements Device outside this repository;
// nothing in here talks to real hardware.
package daq
