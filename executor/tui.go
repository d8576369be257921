package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/brensch/mcts2048/executor/selfplay"
	"github.com/brensch/mcts2048/game"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type model struct {
	gamesPlayed int
	totalGames  int
	bestScore   int
	bestTile    int
	moves       int64
	startTime   time.Time
	recentGames []string
	current     *game.Session

	updates chan GameUpdate
	boards  chan *game.Session
	done    chan struct{}

	// quit is set when the user asked to stop, as opposed to the run ending.
	quit bool
}

func initialModel(updates chan GameUpdate, boards chan *game.Session, done chan struct{}, total int) model {
	return model{
		totalGames: total,
		startTime:  time.Now(),
		updates:    updates,
		boards:     boards,
		done:       done,
	}
}

type TickMsg time.Time

type doneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), waitForBoard(m.boards), waitForDone(m.done), tickCmd())
}

func waitForUpdate(updates chan GameUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func waitForBoard(boards chan *game.Session) tea.Cmd {
	return func() tea.Msg {
		return <-boards
	}
}

func waitForDone(done chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return doneMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.quit = true
			return m, tea.Quit
		}
	case doneMsg:
		return m, tea.Quit
	case TickMsg:
		m.moves = totalMoves.Load()
		return m, tickCmd()
	case *game.Session:
		m.current = msg
		return m, waitForBoard(m.boards)
	case GameUpdate:
		m.gamesPlayed++
		m.bestScore = max(m.bestScore, msg.Result.Score)
		m.bestTile = max(m.bestTile, msg.Result.MaxTile)
		logMsg := fmt.Sprintf("Worker %d: Score %d, Max %d, Turns %d", msg.WorkerID, msg.Result.Score, msg.Result.MaxTile, msg.Result.Turns)
		m.recentGames = append([]string{logMsg}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	movesPerSec := float64(m.moves) / duration.Seconds()
	if duration.Seconds() < 1 {
		movesPerSec = 0
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("2048 self-play") + "\n\n")
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("%-14s", label)) + value + "\n")
	}
	row("Games:", fmt.Sprintf("%d / %d", m.gamesPlayed, m.totalGames))
	row("Total Moves:", fmt.Sprint(m.moves))
	row("Moves/Sec:", fmt.Sprintf("%.2f", movesPerSec))
	row("Best Score:", fmt.Sprint(m.bestScore))
	row("Best Tile:", fmt.Sprint(m.bestTile))
	row("Duration:", duration.Round(time.Second).String())

	if m.current != nil {
		board := selfplay.RenderSessionStyled(m.current)
		footer := fmt.Sprintf("turn=%d score=%d", m.current.Turn, m.current.Score)
		sb.WriteString("\n" + boxStyle.Render(strings.TrimRight(board, "\n")+"\n"+footer) + "\n")
	}

	sb.WriteString("\nRecent Games:\n")
	for _, g := range m.recentGames {
		sb.WriteString(g + "\n")
	}

	sb.WriteString("\nPress q to quit.\n")
	return sb.String()
}
