// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: menu/scroll/window.go
// Summary: Selection-driven scroll window arithmetic for item lists.
// Composes the visible range from a list length, a viewport height and the
// current selection/offset pair.

package scroll

// Window is the visible slice of a list together with the clamped
// selection and offset it was computed from.
type Window struct {
	// Start is the first visible index (inclusive).
	Start int
	// End is one past the last visible index.
	End int
	// Selected is the clamped selection.
	Selected int
	// Offset is the clamped scroll offset; always equal to Start.
	Offset int
	// Count is the list length the window was computed for.
	Count int
	// Height is the viewport height the window was computed for.
	Height int
}

// ComputeWindow clamps selected into the list, moves the offset so the
// selection is visible, then clamps the offset to [0, max(0, count-height)].
func ComputeWindow(count, height, selected, offset int) Window {
	if height < 1 {
		height = 1
	}
	if count <= 0 {
		return Window{Height: height}
	}

	if selected < 0 {
		selected = 0
	}
	if selected > count-1 {
		selected = count - 1
	}

	if selected < offset {
		offset = selected
	}
	if selected >= offset+height {
		offset = selected - height + 1
	}

	maxOffset := count - height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}

	end := offset + height
	if end > count {
		end = count
	}
	return Window{
		Start:    offset,
		End:      end,
		Selected: selected,
		Offset:   offset,
		Count:    count,
		Height:   height,
	}
}

// CanScrollUp reports whether rows precede the window.
func (w Window) CanScrollUp() bool {
	return w.Start > 0
}

// CanScrollDown reports whether rows follow the window.
func (w Window) CanScrollDown() bool {
	return w.End < w.Count
}

// Overflows reports whether the list is longer than the viewport.
func (w Window) Overflows() bool {
	return w.Count > w.Height
}

// Visible reports whether index is inside the window.
func (w Window) Visible(index int) bool {
	return index >= w.Start && index < w.End
}

// PageUp returns the selection one viewport above selected.
func PageUp(selected, height int) int {
	if height < 1 {
		height = 1
	}
	return selected - height
}

// PageDown returns the selection one viewport below selected.
func PageDown(selected, height int) int {
	if height < 1 {
		height = 1
	}
	return selected + height
}

// Home returns the first index.
func Home() int { return 0 }

// End returns the last index of a list of count items.
func End(count int) int {
	if count <= 0 {
		return 0
	}
	return count - 1
}

// RowAt maps a 1-based terminal row to a list index for a window whose
// first item is drawn at startRow. ok is false when the row is outside the
// viewport or past the end of the list.
func (w Window) RowAt(row, startRow int) (index int, ok bool) {
	if row < startRow || row >= startRow+w.Height {
		return 0, false
	}
	index = row - startRow + w.Offset
	if index < 0 || index >= w.Count {
		return 0, false
	}
	return index, true
}
