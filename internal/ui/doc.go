// Package ui renders nsqwire CLI output with Lipgloss, Bubbles and Bubble Tea.
//
// Components render to strings and are printed once by a Printer:
//
//   - Header: command banner with sorted parameters
//   - FrameTable: decoded frames in a bubbles/table
//   - RenderHexDump: offset, hex and ascii columns
//   - Result: success or failure box
//
// The interactive frame browser lives in the inspector package and reuses
// these styles.
//
// When stdout is not a terminal (see IsTerminal), commands use
// RenderFrameLines instead so output stays greppable.
//
// Logging is controlled separately by NSQWIRE_LOG_LEVEL and goes to stderr,
// so it never interleaves with rendered output on stdout.
package ui
