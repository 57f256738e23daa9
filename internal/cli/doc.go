// Package cli implements the zenctl command-line interface.
//
// Each Cobra command loads a session (config, router client and services),
// delegates to the daemons, discovery or console packages for the actual
// work, and renders the outcome either as text or, with --json, inside a
// JSONEnvelope.
//
// # Command Structure
//
//	zenctl daemons list|info|start|stop|restart|autostart
//	zenctl devices assign --collector <name> <uid>...
//	zenctl discover [add|jobs|rm|log]
//	zenctl console [--select id]
//	zenctl init
//	zenctl config show|set|path
//	zenctl version
//	zenctl completion <shell>
//
// # Flag Handling
//
// Global flags (--config, --verbose, --json, --no-color) live on the root
// command. --json also turns color off and suppresses spinners and prompts
// that would corrupt machine output.
package cli
