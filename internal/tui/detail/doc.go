// Package detail opens item details in a modal dialog without leaving the list.
//
// A Binder is attached to the modal shell of a loaded page. Item links that
// carry both a fragment URL and a title are intercepted: the title slot is
// set at once, the fragment is fetched in the background, and the modal is
// shown only after the body slot holds the fetched content. Links without
// those attributes fall through to normal navigation.
//
// Failed requests are shown inline in the body with a retry key ('r') so the
// modal never leaves the user stuck. When several items are clicked in quick
// succession, only the response to the latest click is applied.
package detail
