// Package discovery covers network auto-discovery: the wizard request, range
// validation and preview, and the grid of discovery jobs the console runs.
package discovery
