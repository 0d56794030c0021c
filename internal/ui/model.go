package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/planilha/internal/config"
	"github.com/nconklindev/planilha/internal/processor"
	"github.com/nconklindev/planilha/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateChargesPicker state = iota
	stateLookupPicker
	stateProcessing
	stateComplete
	stateError
)

type Model struct {
	ctx          context.Context
	cfg          *config.Config
	processor    *processor.Processor
	report       *processor.Report
	state        state
	filepicker   filepicker.Model
	chargesFile  string
	lookupFile   string
	result       *types.ProcessResult
	err          error
	width        int
	height       int
	spinner      spinner.Model
	progress     progress.Model
	progressChan chan float64
	resultChan   chan processResultMsg
}

type processResultMsg struct {
	result *types.ProcessResult
	err    error
}

type processCompleteMsg struct {
	result *types.ProcessResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(ctx context.Context, cfg *config.Config) Model {
	if cfg == nil {
		cfg = config.Default()
	}

	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx"}
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color(softAccentColor))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color(softAccentColor))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor)).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color(mutedColor))

	prog := progress.New(progress.WithGradient(accentColor, softAccentColor))

	spin := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(accentColor))),
	)

	return Model{
		ctx:        ctx,
		cfg:        cfg,
		processor:  processor.New(cfg),
		report:     processor.NewReport(cfg.Language()),
		state:      stateChargesPicker,
		filepicker: fp,
		spinner:    spin,
		progress:   prog,
	}
}

func (m Model) Init() tea.Cmd {
	return m.filepicker.Init()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Leave room for title, step line, help text, and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateChargesPicker, stateLookupPicker, stateProcessing:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			}

		case stateComplete, stateError:
			switch msg.String() {
			case "n":
				return m.restart()
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case processCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		m.state = stateComplete
		return m, nil

	case spinner.TickMsg:
		if m.state != stateProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case progressMsg:
		if m.state == stateProcessing {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	// Handle filepicker updates
	if m.state == stateChargesPicker || m.state == stateLookupPicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			return m.selectFile(path)
		}

		return m, cmd
	}

	return m, nil
}

// selectFile records the picked file; the second pick starts processing.
func (m Model) selectFile(path string) (Model, tea.Cmd) {
	if m.state == stateChargesPicker {
		m.chargesFile = path
		m.state = stateLookupPicker
		return m, nil
	}

	m.lookupFile = path
	m.state = stateProcessing
	return m.processFiles()
}

func (m Model) restart() (Model, tea.Cmd) {
	m.state = stateChargesPicker
	m.chargesFile = ""
	m.lookupFile = ""
	m.result = nil
	m.err = nil
	m.progress = progress.New(progress.WithGradient(accentColor, softAccentColor))
	return m, m.filepicker.Init()
}

func (m Model) processFiles() (Model, tea.Cmd) {
	m.progressChan = make(chan float64, 100)
	m.resultChan = make(chan processResultMsg, 1)

	cmd := tea.Batch(
		func() tea.Msg {
			// Capture channels for the goroutine
			progressChan := m.progressChan
			resultChan := m.resultChan
			req := types.Request{
				ChargesFile: m.chargesFile,
				LookupFile:  m.lookupFile,
			}
			proc := m.processor
			ctx := m.ctx

			go func() {
				result, err := proc.Run(ctx, req, progressChan)

				resultChan <- processResultMsg{result: result, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		waitForProgress(m.progressChan, m.resultChan),
		m.progress.Init(),
		m.spinner.Tick,
	)

	return m, cmd
}

func waitForProgress(progressChan chan float64, resultChan chan processResultMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			// Progress channel closed, check result
			res, ok := <-resultChan
			if ok {
				return processCompleteMsg(res)
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateChargesPicker, stateLookupPicker:
		return m.viewFilePicker()
	case stateProcessing:
		return m.viewProcessing()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📊 Planilha - Charges × CPF Reconciler"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Matches the charges sheet with the CPF sheet, inserts the CPF column and formats the result."))
	s.WriteString("\n\n")

	if m.state == stateChargesPicker {
		s.WriteString(StepStyle.Render("1. Select the CHARGES spreadsheet (.xlsx or .csv)"))
	} else {
		s.WriteString(CheckedStyle.Render(fmt.Sprintf("✓ Charges: %s", filepath.Base(m.chargesFile))))
		s.WriteString("\n")
		s.WriteString(StepStyle.Render("2. Select the NAMES and CPFs spreadsheet (.xlsx or .csv)"))
	}
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to quit"))

	return s.String()
}

func (m Model) viewProcessing() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📊 Processing..."))
	s.WriteString("\n\n")
	s.WriteString(m.spinner.View())
	s.WriteString(" Processing files... Please wait.")
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Spreadsheet processed and formatted!"))
	s.WriteString("\n\n")

	if m.result.DuplicatesRemoved > 0 {
		s.WriteString(SuccessStyle.Render(m.report.Duplicates(m.result.DuplicatesRemoved)))
	} else {
		s.WriteString(InfoStyle.Render(m.report.Duplicates(0)))
	}
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Charges: %s\n", truncatePath(m.result.ChargesFile, m.width)))
	s.WriteString(fmt.Sprintf("CPFs:    %s\n", truncatePath(m.result.LookupFile, m.width)))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Output:  %s", truncatePath(m.result.OutputFile, m.width))))
	s.WriteString("\n\n")
	for _, line := range m.report.Lines(m.result) {
		s.WriteString(line)
		s.WriteString("\n")
	}

	if preview := renderPreview(m.result.Annotated, m.cfg.PreviewRows, m.width-8); preview != "" {
		s.WriteString("\n")
		s.WriteString(preview)
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("n: new run • q, enter or esc: exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	headline, hint := processor.Failure(m.err)

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(headline)
	s.WriteString("\n\n")
	s.WriteString(WarningStyle.Render(hint))
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("n: try again • q, enter or esc: exit"))

	return BoxStyle.Render(s.String())
}

// truncatePath keeps the tail of long paths so the file name stays visible.
func truncatePath(path string, width int) string {
	maxPathLen := width - 20 // Leave room for padding and borders
	if maxPathLen < 30 {
		maxPathLen = 30
	}
	if len(path) > maxPathLen {
		return "..." + path[len(path)-maxPathLen+3:]
	}
	return path
}
