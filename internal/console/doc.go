// Package console implements the interactive terminal console for daemons
// and discovery jobs.
//
// # Architecture
//
// The console is a Bubble Tea program (Model-Update-View):
//
//   - Model: the daemon tree cache, the restart tracker, the job grid, the
//     cursor and marks, and whatever overlay is open
//   - Update: keystrokes, ticks and router answers
//   - View: renders the current state
//
// Router calls run inside tea.Cmd functions and only read the services.
// Their answers come back as messages and are folded into the model in
// Update, so the tree, the tracker and the grid are only ever touched from
// the program's goroutine.
//
// # Message Flow
//
//  1. refreshTickMsg fires every refresh_interval and reloads the tree, and
//     the jobs while the Discoveries view is open or a job is still running
//  2. treeMsg reconciles the cache against the server's getTree answer
//  3. a restart tracks the rows and starts pollTickMsg at poll_interval
//  4. pollMsg applies one round of getInfo answers; ticks stop once nothing
//     is pending
//
// # Keyboard Shortcuts
//
// Bindings live in keybindings.go:
//
//	tab            - Switch between Daemons and Discoveries
//	space, a       - Mark row, mark all
//	s, x, r        - Start, stop, restart marked rows (or the cursor row)
//	R, t           - Restart row, toggle row
//	e              - Toggle auto-start
//	m              - Assign devices to the collector under the cursor
//	n, d, l        - New discovery, remove job, view job log
//	enter          - Details
//	F5, Ctrl+R     - Refresh
//	?              - Toggle help overlay
//	q, Ctrl+C      - Quit
package console
