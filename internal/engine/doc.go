// Package engine applies schema revisions to a database.
//
// The Executor reads the current schema version through a caller-supplied
// function, decides whether an upgrade is needed and permitted, and then
// runs the statements of every pending revision inside a single transaction,
// recording the new version after each revision.
//
// # Version resolution
//
//	UNKNOWN ──► AT(lowest-1) ─┐
//	AT(v) ────────────────────┼──► UPGRADED(highest)
//	                          └──► failure (no partial success)
//
// A database newer than the highest known revision is always an error
// (UNRECOGNIZED_SCHEMA_REVISION). A database that needs an upgrade while the
// policy is FailInsteadOfUpgrading fails with UPGRADE_DISALLOWED.
//
// # Ordering
//
//   - Revisions apply in strictly increasing version order
//   - Statements within a revision apply in declaration order
//   - The Upgrading event for a revision precedes its ExecutingSQL events,
//     and both precede the version-set call for that revision
//
// # Transactions
//
// The executor opens one transaction on the supplied connection, commits it
// when every pending revision succeeded and rolls it back on any failure.
// The executor is synchronous and holds no locks: running at most one
// migration against a database at a time is the caller's responsibility.
package engine
