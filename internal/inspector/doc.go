// Package inspector is an interactive browser for decoded NSQ frames.
//
// It shows a frame table above a detail pane. Moving the cursor updates the
// detail pane with the decoded fields and a hex dump of the wire bytes.
// Pressing / filters frames by kind or summary text.
//
// The browser is started by "nsqwire decode --interactive" and needs a
// terminal. Styles come from the ui package.
package inspector
