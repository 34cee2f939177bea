// Package placement exposes a rendezvous pool over gRPC.
// Callers ask which member owns a key, rank members for a key, and announce
// members joining or leaving. The service never contacts the members.
package placement
