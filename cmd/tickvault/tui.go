package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/urfave/cli/v3"

	tickvault "github.com/tickvault/go-tickvault-client/client"
	"github.com/tickvault/go-tickvault-client/pkg/frame"
	"github.com/tickvault/go-tickvault-client/pkg/predicate"
)

const (
	formPageID    = "query"
	resultsPageID = "results"
	errorPageID   = "error"

	tuiQueryTimeout = 120 * time.Second
)

func newTUICommand() *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Browse query results interactively",
		Action: tuiAction,
	}
}

func tuiAction(ctx context.Context, cmd *cli.Command) error {
	client, err := clientFromCommand(cmd)
	if err != nil {
		return err
	}

	ui := NewTUI(ctx, client)
	go func() {
		<-ctx.Done()
		ui.Stop()
	}()
	return ui.Run()
}

// TUI is an interactive query browser: a form feeding a results table.
type TUI struct {
	app   *tview.Application
	pages *tview.Pages

	form            *tview.Form
	systemField     *tview.InputField
	datasetField    *tview.InputField
	sourceField     *tview.InputField
	tickersField    *tview.InputField
	startField      *tview.InputField
	endField        *tview.InputField
	fieldsField     *tview.InputField
	predicatesField *tview.InputField
	limitField      *tview.InputField
	statusBar       *tview.TextView

	resultsTable *tview.Table

	client  *tickvault.Client
	service *tickvault.QueryService

	fetchMu  sync.Mutex
	fetching bool

	baseCtx    context.Context
	baseCancel context.CancelFunc
	stopOnce   sync.Once
}

// configureStyles sets the tview global styles for the TUI.
// Note: This modifies global state in tview.Styles.
func configureStyles() {
	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorDarkSlateGray
	tview.Styles.BorderColor = tcell.ColorWhite
	tview.Styles.TitleColor = tcell.ColorWhite
	tview.Styles.GraphicsColor = tcell.ColorWhite
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = tcell.ColorYellow
	tview.Styles.TertiaryTextColor = tcell.ColorGreen
	tview.Styles.InverseTextColor = tcell.ColorBlue
}

// NewTUI creates the browser. The provided context controls the lifetime of
// background queries; pass nil to use context.Background().
func NewTUI(ctx context.Context, client *tickvault.Client) *TUI {
	if ctx == nil {
		ctx = context.Background()
	}
	baseCtx, baseCancel := context.WithCancel(ctx)

	configureStyles()

	t := &TUI{
		app:        tview.NewApplication(),
		pages:      tview.NewPages(),
		client:     client,
		service:    client.Query(),
		baseCtx:    baseCtx,
		baseCancel: baseCancel,
	}

	t.setupFormPage()
	t.setupResultsPage()
	t.app.SetInputCapture(t.onInputCapture)

	return t
}

// Run starts the event loop. It blocks until the application exits and
// returns any error that occurred.
func (t *TUI) Run() error {
	return t.app.SetRoot(t.pages, true).Run()
}

func (t *TUI) Stop() {
	t.stopOnce.Do(func() {
		if t.baseCancel != nil {
			t.baseCancel()
		}
		t.app.Stop()
	})
}

func (t *TUI) setupFormPage() {
	t.systemField = tview.NewInputField().
		SetLabel("System").
		SetFieldWidth(30)
	t.datasetField = tview.NewInputField().
		SetLabel("Dataset").
		SetFieldWidth(30)
	t.sourceField = tview.NewInputField().
		SetLabel("Source").
		SetFieldWidth(30)
	t.tickersField = tview.NewInputField().
		SetLabel("Tickers (comma-separated)").
		SetFieldWidth(40)
	t.startField = tview.NewInputField().
		SetLabel("Start (yyyyMMddHHmmss)").
		SetFieldWidth(20).
		SetAcceptanceFunc(tview.InputFieldInteger)
	t.endField = tview.NewInputField().
		SetLabel("End (yyyyMMddHHmmss)").
		SetFieldWidth(20).
		SetAcceptanceFunc(tview.InputFieldInteger)
	t.fieldsField = tview.NewInputField().
		SetLabel("Fields (comma-separated)").
		SetFieldWidth(40)
	t.predicatesField = tview.NewInputField().
		SetLabel("Predicates").
		SetFieldWidth(60)
	t.limitField = tview.NewInputField().
		SetLabel("Limit").
		SetFieldWidth(10).
		SetAcceptanceFunc(tview.InputFieldInteger)

	t.form = tview.NewForm()
	t.form.AddFormItem(t.systemField)
	t.form.AddFormItem(t.datasetField)
	t.form.AddFormItem(t.sourceField)
	t.form.AddFormItem(t.tickersField)
	t.form.AddFormItem(t.startField)
	t.form.AddFormItem(t.endField)
	t.form.AddFormItem(t.fieldsField)
	t.form.AddFormItem(t.predicatesField)
	t.form.AddFormItem(t.limitField)
	t.form.AddButton("Run", func() {
		t.runQuery()
	})
	t.form.AddButton("Quit", func() {
		t.Stop()
	})
	t.form.SetButtonsAlign(tview.AlignCenter)
	t.form.SetBorder(true).SetTitle("TickVault Query")

	t.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false)
	t.statusBar.SetBorder(true).SetTitle("Status")
	t.setStatus("Fill in the query and press Run. [yellow]Ctrl+C[white] quits.")

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.form, 0, 1, true).
		AddItem(t.statusBar, 3, 0, false)

	t.pages.AddPage(formPageID, layout, true, true)
}

func (t *TUI) setupResultsPage() {
	t.resultsTable = tview.NewTable().
		SetFixed(1, 1).
		SetSelectable(true, false)
	t.resultsTable.SetBorder(true).SetTitle("Results")

	help := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignCenter).
		SetText("[yellow]↑/↓[white] scroll  [yellow]Esc[white] back to query  [yellow]q[white] quit")
	help.SetBorder(true).SetTitle("Controls")

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.resultsTable, 0, 1, true).
		AddItem(help, 3, 0, false)

	t.pages.AddPage(resultsPageID, layout, true, false)
}

func (t *TUI) onInputCapture(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyCtrlC {
		t.Stop()
		return nil
	}

	currentPage, _ := t.pages.GetFrontPage()
	if currentPage == resultsPageID {
		if event.Key() == tcell.KeyEscape {
			t.pages.SwitchToPage(formPageID)
			t.app.SetFocus(t.form)
			return nil
		}
		if event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q') {
			t.Stop()
			return nil
		}
	}

	return event
}

func (t *TUI) setStatus(format string, args ...any) {
	t.statusBar.SetText(fmt.Sprintf(format, args...))
}

// buildQuery assembles a query from the form fields. Predicate syntax is
// checked here so errors surface before any request goes out.
func (t *TUI) buildQuery() (tickvault.Query, error) {
	q := tickvault.Query{
		System:  strings.TrimSpace(t.systemField.GetText()),
		Dataset: strings.TrimSpace(t.datasetField.GetText()),
		Source:  strings.TrimSpace(t.sourceField.GetText()),
		Tickers: splitCSV(t.tickersField.GetText()),
		Fields:  splitCSV(t.fieldsField.GetText()),
	}

	if raw := strings.TrimSpace(t.startField.GetText()); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return tickvault.Query{}, fmt.Errorf("start must be yyyyMMddHHmmss digits")
		}
		q.Start = v
	}
	if raw := strings.TrimSpace(t.endField.GetText()); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return tickvault.Query{}, fmt.Errorf("end must be yyyyMMddHHmmss digits")
		}
		q.End = v
	}
	if raw := strings.TrimSpace(t.limitField.GetText()); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return tickvault.Query{}, fmt.Errorf("limit must be a positive integer")
		}
		q.Limit = v
	}
	if raw := strings.TrimSpace(t.predicatesField.GetText()); raw != "" {
		expr, err := predicate.Parse(raw)
		if err != nil {
			return tickvault.Query{}, err
		}
		q.Predicates = expr
	}

	if err := q.Validate(); err != nil {
		return tickvault.Query{}, err
	}
	return q, nil
}

func (t *TUI) runQuery() {
	q, err := t.buildQuery()
	if err != nil {
		t.setStatus("[red]%s", tview.Escape(err.Error()))
		return
	}

	t.fetchMu.Lock()
	if t.fetching {
		t.fetchMu.Unlock()
		return
	}
	t.fetching = true
	t.fetchMu.Unlock()

	t.setStatus("[yellow]Running query…")

	ctx, cancel := context.WithTimeout(t.baseCtx, tuiQueryTimeout)
	go func() {
		defer cancel()
		f, err := t.service.RunFrame(ctx, q)

		t.fetchMu.Lock()
		t.fetching = false
		t.fetchMu.Unlock()

		if err != nil {
			t.app.QueueUpdateDraw(func() {
				t.setStatus("[red]%s", tview.Escape(err.Error()))
			})
			t.showError(err.Error())
			return
		}

		t.app.QueueUpdateDraw(func() {
			t.renderResults(f)
			t.setStatus("[green]%d rows", f.Len())
			t.pages.SwitchToPage(resultsPageID)
			t.app.SetFocus(t.resultsTable)
		})
	}()
}

func (t *TUI) renderResults(f *frame.Frame) {
	t.resultsTable.Clear()

	headers := append([]string{f.IndexName()}, f.Columns()...)
	for col, name := range headers {
		t.resultsTable.SetCell(0, col, tview.NewTableCell(name).
			SetSelectable(false).
			SetTextColor(tcell.ColorYellow).
			SetAttributes(tcell.AttrBold))
	}

	index := f.Index()
	for i := 0; i < f.Len(); i++ {
		t.resultsTable.SetCell(i+1, 0, tview.NewTableCell(index[i].Format(time.RFC3339)))
		for j, v := range f.Row(i) {
			t.resultsTable.SetCell(i+1, j+1, tview.NewTableCell(frame.FormatValue(v)))
		}
	}

	t.resultsTable.SetTitle(fmt.Sprintf("Results (%d rows)", f.Len()))
	t.resultsTable.ScrollToBeginning()
}

func (t *TUI) showError(message string) {
	t.app.QueueUpdateDraw(func() {
		modal := tview.NewModal().
			SetText(message).
			AddButtons([]string{"OK"}).
			SetDoneFunc(func(buttonIndex int, buttonLabel string) {
				t.pages.HidePage(errorPageID)
				t.app.SetFocus(t.form)
			})
		t.pages.RemovePage(errorPageID)
		t.pages.AddPage(errorPageID, modal, false, true)
		t.pages.ShowPage(errorPageID)
	})
}

func splitCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
