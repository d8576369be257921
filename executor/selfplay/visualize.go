// visualize.go - text rendering of sessions for logs and the TUI.
package selfplay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/mcts2048/game"
)

const cellWidth = 6

// RenderSession draws every board side by side, followed by the score.
func RenderSession(s *game.Session) string {
	return renderBoards(s, func(v int) string {
		if v == 0 {
			return fmt.Sprintf("%*s", cellWidth, ".")
		}
		return fmt.Sprintf("%*d", cellWidth, v)
	}) + fmt.Sprintf("turn=%d score=%d max=%d\n", s.Turn, s.Score, s.MaxTile())
}

// RenderSessionStyled is RenderSession with coloured tiles.
func RenderSessionStyled(s *game.Session) string {
	return renderBoards(s, func(v int) string {
		label := "."
		if v != 0 {
			label = fmt.Sprint(v)
		}
		return tileStyle(v).Render(label)
	})
}

func renderBoards(s *game.Session, cell func(int) string) string {
	var sb strings.Builder
	for r := 0; r < game.Size; r++ {
		for i := range s.Boards {
			if i > 0 {
				sb.WriteString("   |")
			}
			for c := 0; c < game.Size; c++ {
				sb.WriteString(cell(s.Boards[i][r][c]))
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

var tileColors = map[int]string{
	0:    "240",
	2:    "252",
	4:    "223",
	8:    "215",
	16:   "209",
	32:   "203",
	64:   "196",
	128:  "229",
	256:  "228",
	512:  "227",
	1024: "226",
	2048: "220",
}

func tileStyle(v int) lipgloss.Style {
	color, ok := tileColors[v]
	if !ok {
		color = "201"
	}
	st := lipgloss.NewStyle().Width(cellWidth).Align(lipgloss.Right).Foreground(lipgloss.Color(color))
	if v >= 128 {
		st = st.Bold(true)
	}
	return st
}
