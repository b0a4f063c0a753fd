package tui

// ViewState is the top-level state of the browse view.
type ViewState int

const (
	// ViewStateLoading is shown while a page is being fetched.
	ViewStateLoading ViewState = iota
	// ViewStateList shows the mounted page.
	ViewStateList
	// ViewStateError shows a page that could not be loaded.
	ViewStateError
	// ViewStateQuitting is set right before the program exits.
	ViewStateQuitting
)

func (s ViewState) String() string {
	switch s {
	case ViewStateLoading:
		return "loading"
	case ViewStateList:
		return "list"
	case ViewStateError:
		return "error"
	case ViewStateQuitting:
		return "quitting"
	default:
		return "unknown"
	}
}
