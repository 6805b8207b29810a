// Package ui implements an interactive download monitor using bubbletea's Elm architecture.
//
// The [Model] renders every job in a [downloads.Registry] as a list entry with
// its kind, status, completed/total counts and the progress of the item
// currently being fetched. Statuses are colored through a shared [Palette].
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// It subscribes to the registry before taking its initial snapshot, then a [tea.Cmd] wait loop
// turns each registry event into a [Msg] and re-arms itself. The monitor exits when the user
// quits, when the registry closes the stream, or once the last job it has shown is swept out.
//
// Keyboard navigation uses vim-style bindings (j/k, c to cancel the selected job, q to quit) with contextual help displayed via charmbracelet/bubbles/help.
package ui
