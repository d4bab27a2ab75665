package filehub

// PageControl is one element of a pagination window: either a jump target or
// an ellipsis marker standing in for a run of skipped pages.
type PageControl struct {
	Page     int
	Ellipsis bool
}

// Window maps (currentPage, totalPages) to a bounded sequence of page
// controls: up to five consecutive pages centred on the current one, extended
// toward the open edge when clamping narrows the run, with page 1 and the
// last page always reachable and an ellipsis inserted only when the gap to
// them spans two or more pages. No window is rendered for a single page.
func Window(currentPage, totalPages int) []PageControl {
	if totalPages <= 1 {
		return nil
	}

	start := max(1, currentPage-2)
	end := min(totalPages, currentPage+2)
	if end-start < 4 {
		if start == 1 {
			end = min(totalPages, start+4)
		} else {
			start = max(1, end-4)
		}
	}

	controls := make([]PageControl, 0, end-start+5)
	if start > 1 {
		controls = append(controls, PageControl{Page: 1})
		if start > 2 {
			controls = append(controls, PageControl{Ellipsis: true})
		}
	}
	for p := start; p <= end; p++ {
		controls = append(controls, PageControl{Page: p})
	}
	if end < totalPages {
		if end < totalPages-1 {
			controls = append(controls, PageControl{Ellipsis: true})
		}
		controls = append(controls, PageControl{Page: totalPages})
	}
	return controls
}

// Controls reports which step buttons are enabled for the given position.
type Controls struct {
	First    bool
	Previous bool
	Next     bool
	Last     bool
}

// StepControls returns the enabled state of the First/Previous/Next/Last
// buttons: the backward pair is disabled on page 1, the forward pair on the
// last page.
func StepControls(currentPage, totalPages int) Controls {
	return Controls{
		First:    currentPage > 1,
		Previous: currentPage > 1,
		Next:     currentPage < totalPages,
		Last:     currentPage < totalPages,
	}
}
