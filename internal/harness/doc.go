// Package harness runs revision scenarios against a real executor.
//
// A scenario names a revision document, seeds an in-memory SQLite
// database, runs one or more Execute calls and then checks the event
// trace and the final database state.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: upgrade_then_refuse
//	description: "What this scenario validates"
//	revisions: ../revisions/accounts.yaml
//	driver: sqlite3              # sqlite3 (default) or sqlite
//	version_store: user_version  # user_version (default) or table
//	run_id_prefix: scenario      # optional
//	setup:
//	  - create table legacy (id integer)
//	steps:
//	  - arguments: { owner: app, limit: 100 }
//	    expect:
//	      version: "1"
//	  - upgrade: FAIL_INSTEAD_OF_UPGRADING
//	    arguments: { owner: app, limit: 100 }
//	    expect:
//	      error: ARGUMENT_ERRORS
//	assertions:
//	  - type: trace_contains
//	    event: "upgrading 0 -> 1"
//	  - type: final_state
//	    table: accounts
//	    where: { owner: app }
//	    expect: { balance: 100 }
//
// Paths are relative to the scenario file. Argument values map to
// argument types by their YAML type: strings become STRING arguments,
// integers the narrowest integer type and floats double values. A
// mapping {decimal: "12.50"} gives an arbitrary-precision decimal.
//
// # Assertion Types
//
//   - trace_contains: an event with exactly this text was emitted
//   - trace_order: the listed events were emitted in this order
//   - trace_count: exactly count events of a kind (upgrading or executing)
//   - final_state: one row of a table matches where and contains expect
//
// # Deterministic Testing
//
// Trace events are numbered by a testutil.Sequence and every Execute call
// gets a run id from testutil.SequentialRunIDs, so the same scenario always
// produces the same trace. RunWithGolden compares that trace with a golden
// file in testdata/golden.
package harness
