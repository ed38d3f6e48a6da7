// Package journal records executed tool invocations in a SQLite database.
//
// The journal is append-only. Rows are ordered by an autoincrement seq
// column, never by wall-clock time, so listings are stable even when clocks
// jump. Writes are idempotent on the invocation ID.
//
// # Database Configuration
//
//   - WAL mode: the CLI can list history while another process records
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
package journal
