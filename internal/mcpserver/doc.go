// Package mcpserver serves the layout engine to MCP clients over stdio.
//
// Tools (names get server.toolPrefix prepended):
//
//	pack_legacy_rows   document                 -> migrated document and row counts
//	expand_repeats     document [, variables]   -> document with repeat clones
//	reconcile_panels   live, incoming           -> actions and resulting panels
//	validate_layout    document                 -> {"valid", "problems"}
//
// Every argument is a JSON string. Tool failures are returned as error
// results, never as protocol errors. Logging goes to stderr since stdout
// carries the protocol.
package mcpserver
