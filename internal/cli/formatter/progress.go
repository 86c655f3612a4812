package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderProgress renders a percentage as a bar like [████░░░░]  45%.
// Green from 66%, yellow from 33%, red below.
func RenderProgress(percent int, width int) string {
	percent = max(0, min(percent, 100))
	width = max(width, 2)

	filled := percent * width / 100
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	style := StyleGreen
	switch {
	case percent < 33:
		style = StyleRed
	case percent < 66:
		style = StyleYellow
	}
	return fmt.Sprintf("[%s] %3d%%", style.Render(bar), percent)
}
