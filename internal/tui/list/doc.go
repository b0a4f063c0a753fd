// Package listview provides a virtual scrolling list for Bubble Tea.
//
// Only the rows inside the viewport are rendered, so lists that keep growing
// as pages are appended stay cheap to draw. The model supports:
//   - Keyboard navigation (up/down, j/k, pgup/pgdn, home/end, g/G)
//   - Mouse wheel scrolling
//   - Appending and removing items while displayed
//   - Row hit testing for mouse clicks
//
// DistanceFromBottom reports how many rows remain below the viewport, which is
// what infinite scrolling compares against its threshold.
package listview
