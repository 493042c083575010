// Package store provides the SQLite-backed archive of compiled deals.
//
// Each distinct canonical IR document is stored once:
//   - Records are keyed by a UUIDv7 id
//   - The deal fingerprint is UNIQUE, so writing the same document twice
//     is a no-op that returns the existing record
//   - seq is a logical counter assigned at insert; history queries order
//     by seq ASC, id ASC COLLATE BINARY and never by wall time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Fingerprints are computed by ir.Fingerprint over RFC 8785 canonical JSON.
package store
