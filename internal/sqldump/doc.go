// Package sqldump writes the SQL text of a revision set as a plain script.
//
// The output is a reporting and debugging aid: one ";"-terminated line per
// statement, in revision-then-statement order, optionally skipping whole
// categories of DDL (roles, grants, functions, triggers) that a target
// environment manages separately. Parameterized statements are written as
// their templates; no arguments are substituted.
package sqldump
