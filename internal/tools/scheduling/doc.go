// Package scheduling exposes the assistant's two calendar actions as tools
// with string-only inputs and outputs.
//
// The reasoning loop can only pass primitive arguments and read textual
// results, so every input is parsed and validated here at the tool boundary
// and every failure is returned as a descriptive string rather than an
// error. The same tools are also registered on an MCP server for the
// stdio transport.
package scheduling
