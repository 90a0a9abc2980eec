// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for generating a group playlist:
//  1. [GroupListView] : Browse and select one of your groups
//  2. [PreviewView] : Inspect the songs every member likes
//  3. [ConfirmView] : Confirm playlist creation
//  4. [GenerateView] : Monitor real-time progress updates
//  5. [ResultView] : Display the created playlist and any songs that failed to add
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the GroupEngine, providing non-blocking status reporting during generation.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
