// Package models holds example models for the sim kernel: ping-pong players
// (with and without structure changes), a generator/transducer feeding two
// queued servers, and a checkout line with a customer generator, clerks
// and an observer that summarizes waiting times.
//
// The CLI builds its scenarios from these models and the kernel tests use
// them as end-to-end fixtures.
package models
