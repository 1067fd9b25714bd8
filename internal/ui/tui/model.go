package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bamsammich/backupdata/internal/backup"
	"github.com/bamsammich/backupdata/internal/event"
	"github.com/bamsammich/backupdata/internal/stats"
	"github.com/bamsammich/backupdata/internal/ui"
)

// Bubble Tea messages.
type engineEventMsg event.Event
type channelDoneMsg struct{}
type tickMsg time.Time
type saveResultMsg struct{ err error }

// readNextEvent returns a tea.Cmd that blocks on the event channel.
func readNextEvent(ch <-chan event.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return channelDoneMsg{}
		}
		return engineEventMsg(ev)
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// saveModal manages the text input overlay for saving the report.
type saveModal struct {
	active bool
	input  string
	cursor int
}

func (s *saveModal) insertRune(r rune) {
	s.input = s.input[:s.cursor] + string(r) + s.input[s.cursor:]
	s.cursor += utf8.RuneLen(r)
}

func (s *saveModal) backspace() {
	if s.cursor > 0 {
		_, size := utf8.DecodeLastRuneInString(s.input[:s.cursor])
		s.input = s.input[:s.cursor-size] + s.input[s.cursor:]
		s.cursor -= size
	}
}

func (s *saveModal) left() {
	if s.cursor > 0 {
		_, size := utf8.DecodeLastRuneInString(s.input[:s.cursor])
		s.cursor -= size
	}
}

func (s *saveModal) right() {
	if s.cursor < len(s.input) {
		_, size := utf8.DecodeRuneInString(s.input[s.cursor:])
		s.cursor += size
	}
}

func (s *saveModal) render() string {
	prompt := styleSavePrompt.Render("Save report to: ")
	cursor := styleSaveInput.Render("█")
	return "  " + prompt + styleSaveInput.Render(s.input[:s.cursor]) + cursor + styleSaveInput.Render(s.input[s.cursor:])
}

// Model is the root Bubble Tea model.
type Model struct {
	events  <-chan event.Event
	stats   stats.ReadTicker
	cancel  func()
	srcRoot string

	feed       feedView
	spinner    spinner.Model
	width      int
	height     int
	statusMsg  string // transient notification
	currentDir string
	cancelled  bool // cancel requested from the keyboard
	done       bool // event channel closed
	quitting   bool
	outcome    ui.Outcome

	lastSnap  stats.Snapshot
	lastSpeed float64

	save saveModal
}

// NewModel creates a new TUI model. cancel stops the backup; it is called
// at most once.
func NewModel(events <-chan event.Event, collector stats.ReadTicker, srcRoot string, cancel func()) Model {
	return Model{
		events:  events,
		stats:   collector,
		cancel:  cancel,
		srcRoot: srcRoot,
		feed:    newFeedView(srcRoot),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styleSpinner)),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		readNextEvent(m.events),
		tickCmd(),
		m.spinner.Tick,
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case engineEventMsg:
		return m.handleEngineEvent(event.Event(msg))

	case channelDoneMsg:
		m.done = true
		m.lastSnap = m.stats.Snapshot()
		m.lastSpeed = 0
		return m, nil

	case tickMsg:
		if m.done {
			return m, nil
		}
		m.stats.Tick()
		m.lastSnap = m.stats.Snapshot()
		m.lastSpeed = m.stats.RollingSpeed(5)
		return m, tickCmd()

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case saveResultMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("save failed: %v", msg.err)
		} else {
			m.statusMsg = "saved to " + m.save.input
		}
		m.save.active = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.save.active {
		return m.handleSaveKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		m = m.requestCancel()
		m.quitting = true
		return m, tea.Quit

	case "c", "esc":
		if !m.done {
			m = m.requestCancel()
		}
		return m, nil

	case "q":
		if !m.done {
			m.statusMsg = "backup still running: press c to cancel"
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "j", "down":
		m.feed.scrollDown()
	case "k", "up":
		m.feed.scrollUp()
	case "G", "end":
		m.feed.scrollToBottom()
	case "g", "home":
		m.feed.scrollToTop()

	case "s":
		if m.done {
			m.save.active = true
			m.save.input = fmt.Sprintf("backupdata-%s.log", time.Now().Format("2006-01-02-150405"))
			m.save.cursor = len(m.save.input)
			m.statusMsg = ""
		}
	}
	return m, nil
}

// requestCancel invokes the cancel func once.
func (m Model) requestCancel() Model {
	if m.cancelled || m.done {
		return m
	}
	m.cancelled = true
	m.statusMsg = "cancelling, removing partial backup..."
	if m.cancel != nil {
		m.cancel()
	}
	return m
}

func (m Model) handleSaveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.save.active = false
		m.statusMsg = ""
	case tea.KeyEnter:
		return m, m.writeReport(m.save.input)
	case tea.KeyBackspace:
		m.save.backspace()
	case tea.KeyLeft:
		m.save.left()
	case tea.KeyRight:
		m.save.right()
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.save.insertRune(r)
		}
	}
	return m, nil
}

func (m Model) writeReport(path string) tea.Cmd {
	snap := m.lastSnap
	out := m.outcome
	srcRoot := m.srcRoot
	entries := make([]feedEntry, len(m.feed.entries))
	copy(entries, m.feed.entries)

	return func() tea.Msg {
		var b strings.Builder

		b.WriteString("backupdata report\n")
		b.WriteString("=================\n")
		fmt.Fprintf(&b, "source:      %s\n", srcRoot)
		fmt.Fprintf(&b, "backup:      %s\n", out.BackupRoot)
		fmt.Fprintf(&b, "status:      %s\n", out.Status)
		fmt.Fprintf(&b, "finished:    %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&b, "duration:    %s\n", ui.FormatDuration(snap.Elapsed))
		fmt.Fprintf(&b, "files:       %s\n", ui.FormatCount(out.Copied))
		fmt.Fprintf(&b, "size:        %s\n", ui.FormatBytes(snap.BytesCopied))
		fmt.Fprintf(&b, "excluded:    %s\n", ui.FormatCount(snap.DirsExcluded))
		fmt.Fprintf(&b, "unreadable:  %s\n", ui.FormatCount(snap.DirsUnreadable))
		if out.Err != nil {
			fmt.Fprintf(&b, "reason:      %s\n", out.Err)
		}
		b.WriteString("\n--- activity ---\n")

		for _, e := range entries {
			rel := ui.StripRoot(srcRoot, e.path)
			switch e.kind {
			case entryExcluded:
				fmt.Fprintf(&b, "-  %-50s  excluded (%s)\n", rel, e.note)
			case entryUnreadable:
				fmt.Fprintf(&b, "!  %-50s  %s\n", rel, e.note)
			case entryFailed:
				fmt.Fprintf(&b, "x  %-50s  %s\n", rel, e.note)
			default:
				fmt.Fprintf(&b, "v  %-50s  %s\n", rel, ui.FormatBytes(e.size))
			}
		}

		err := os.WriteFile(path, []byte(b.String()), 0o644) //nolint:gosec // user-chosen path for report output
		return saveResultMsg{err: err}
	}
}

func (m Model) handleEngineEvent(ev event.Event) (tea.Model, tea.Cmd) {
	m.outcome.Record(ev)
	m.feed.handleEvent(ev)
	switch ev.Type {
	case event.DirEntered:
		m.currentDir = ev.Path
	case event.FileCopied:
		m.currentDir = filepath.Dir(ev.Path)
	}
	return m, readNextEvent(m.events)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteByte('\n')

	contentHeight := max(m.height-3, 3) // header, status line, footer
	b.WriteString(m.feed.view(m.width, contentHeight))

	switch {
	case m.save.active:
		b.WriteString(m.save.render())
	case m.statusMsg != "":
		b.WriteString(styleStatus.Render("  " + m.statusMsg))
	}
	b.WriteByte('\n')

	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	snap := m.lastSnap
	label := styleHeaderLabel.Render("backupdata")

	if m.done {
		var state string
		switch m.outcome.Status {
		case backup.StatusCompleted:
			state = styleIconDone.Render("done")
		case backup.StatusCancelled:
			state = styleWarning.Render("cancelled")
		default:
			state = styleIconFailed.Render("failed")
		}
		return styleHeader.Render(fmt.Sprintf("  %s  %s  %s files  %s  %s",
			label, state,
			ui.FormatCount(m.outcome.Copied),
			ui.FormatBytes(snap.BytesCopied),
			ui.FormatDuration(snap.Elapsed),
		))
	}

	dir := ui.TruncPath(ui.StripRoot(m.srcRoot, m.currentDir), max(m.width-60, 10))
	return styleHeader.Render(fmt.Sprintf("  %s %s  %s files  %s  %s  %s",
		m.spinner.View(), label,
		ui.FormatCount(snap.FilesCopied),
		ui.FormatBytes(snap.BytesCopied),
		ui.FormatRate(m.lastSpeed),
		styleFileDir.Render(dir),
	))
}

func (m Model) renderFooter() string {
	type keybind struct {
		key   string
		label string
	}

	binds := []keybind{{"c/esc", "cancel"}, {"j/k", "scroll"}, {"ctrl+c", "abort"}}
	if m.done {
		binds = []keybind{{"s", "save report"}, {"j/k", "scroll"}, {"q", "quit"}}
	}

	parts := make([]string, 0, len(binds))
	for _, kb := range binds {
		parts = append(parts, styleKeybindKey.Render(kb.key)+" "+styleKeybindLabel.Render(kb.label))
	}
	return "  " + strings.Join(parts, "   ")
}
