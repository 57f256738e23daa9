// Package ui provides terminal UI pieces shared by zenctl's commands and the
// console: colors, status symbols, tables and spinners.
//
// # Color Scheme
//
// Colors are ANSI codes so they follow the terminal's own palette:
//
//	ColorSuccess   (green)  - daemons up, jobs that succeeded
//	ColorError     (red)    - daemons down, failed jobs, errors
//	ColorWarning   (yellow) - aborted jobs, restarts in flight
//	ColorInfo      (cyan)   - collectors and hubs
//	ColorMuted     (gray)   - secondary text
//
// ConfigureColor applies the output.color setting; DisableColors forces
// monochrome output (for --no-color).
//
// # Restart Icons
//
// A restart in flight shows an animated RestartFrames icon; once settled the
// row shows the still SymbolRestart. The CLI uses Spinner for the same
// effect on a single line.
package ui
