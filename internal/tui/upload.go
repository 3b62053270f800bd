package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/recondesk/internal/database/repository"
	"github.com/jask/recondesk/internal/directory"
	"github.com/jask/recondesk/internal/domain"
	"github.com/jask/recondesk/internal/service"
)

const historyLimit = 5

type uploadPage struct {
	accountID   string
	mode        domain.ProcessingMode
	path        string
	preview     *service.CSVPreview
	previewErr  string
	previewPage int
	outcome     *service.UploadOutcome
	uploading   bool
	history     []repository.Upload
}

func newUploadPage() uploadPage {
	return uploadPage{mode: domain.ModeConfirmation, previewPage: 1}
}

func (p *uploadPage) reset() {
	*p = newUploadPage()
}

// syncAccount drops a selected account that is no longer listed.
func (p *uploadPage) syncAccount(accounts []domain.Account) {
	for _, acct := range accounts {
		if acct.ID == p.accountID {
			return
		}
	}
	p.accountID = ""
}

func (p *uploadPage) applyPreview(m previewMsg) {
	if m.path != p.path {
		return
	}
	p.previewPage = 1
	if m.err != nil {
		p.preview = nil
		if service.IsInline(m.err) {
			p.previewErr = service.InlineMessage(m.err)
		} else {
			p.previewErr = "Could not read file: " + m.err.Error()
		}
		return
	}
	p.preview, p.previewErr = &m.preview, ""
}

func (a *App) loadPreview(path string) tea.Cmd {
	return func() tea.Msg {
		preview, err := service.PreviewFile(path)
		return previewMsg{path: path, preview: preview, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	merchantID := a.merchantID
	if merchantID == "" {
		return nil
	}
	uploader := a.services.Uploader
	return func() tea.Msg {
		list, err := uploader.Recent(a.ctx, merchantID, historyLimit)
		if err != nil {
			a.log.Warn().Err(err).Msg("load upload history")
			return nil
		}
		return historyMsg{merchantID: merchantID, uploads: list}
	}
}

func (a *App) updateUpload(m tea.KeyMsg) tea.Cmd {
	p := &a.upload
	if a.merchantID == "" || p.uploading {
		return nil
	}
	switch {
	case m.String() == "a":
		p.accountID = cycleAccount(a.accounts, p.accountID, "", 1)
		a.formErr = ""
	case m.String() == "A":
		p.accountID = cycleAccount(a.accounts, p.accountID, "", -1)
		a.formErr = ""
	case m.String() == "m":
		p.mode = p.mode.Toggle()
	case m.String() == "f":
		return a.openInput(modalUploadPath, p.path, "path/to/file.csv")
	case m.String() == "u":
		return a.startUpload()
	case key.Matches(m, a.keys.PrevPage):
		if p.previewPage > 1 {
			p.previewPage--
		}
	case key.Matches(m, a.keys.NextPage):
		if p.preview != nil && p.previewPage < p.preview.Page(p.previewPage).Pages {
			p.previewPage++
		}
	case key.Matches(m, a.keys.Reload):
		return tea.Batch(a.loadAccounts(), a.loadHistory())
	}
	return nil
}

func (a *App) updateUploadPath(m tea.KeyMsg) tea.Cmd {
	switch m.String() {
	case "esc":
		a.closeModal()
		return nil
	case "enter":
		path := strings.TrimSpace(a.input.Value())
		a.closeModal()
		a.upload.path = path
		a.upload.preview, a.upload.previewErr, a.upload.outcome = nil, "", nil
		if err := service.CheckFile(path); err != nil {
			a.formErr = service.InlineMessage(err)
			return nil
		}
		return a.loadPreview(path)
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	return cmd
}

func (a *App) startUpload() tea.Cmd {
	p := &a.upload
	req := service.UploadRequest{
		MerchantID:  a.merchantID,
		AccountID:   p.accountID,
		AccountName: a.accountName(p.accountID),
		Mode:        p.mode,
		FileName:    p.path,
	}
	if a.merchantID == "" {
		a.formErr = service.InlineMessage(directory.ErrNoMerchantSelected)
		return nil
	}
	a.formErr = ""
	p.uploading = true
	uploader := a.services.Uploader
	return func() tea.Msg {
		outcome, err := uploader.UploadPath(a.ctx, req)
		return uploadDoneMsg{outcome: outcome, err: err}
	}
}

func (a *App) applyUpload(m uploadDoneMsg) tea.Cmd {
	p := &a.upload
	p.uploading = false
	if m.err != nil {
		if service.IsInline(m.err) {
			a.formErr = service.InlineMessage(m.err)
			return nil
		}
		a.showToast(service.UploadFailedNotice(m.err))
		return nil
	}
	p.outcome = &m.outcome
	a.showToast(m.outcome.Notice())
	return nil
}

func (a *App) viewUpload() string {
	if a.merchantID == "" {
		return a.st.muted.Render("Please select a merchant first")
	}
	p := &a.upload
	var b strings.Builder
	field := func(label, value string) {
		b.WriteString(a.st.header.Render(fmt.Sprintf("%-16s", label)) + value + "\n")
	}
	field("Account", fmt.Sprintf("‹ %s ›", a.pickerLabel(p.accountID, "select account")))
	field("Processing mode", fmt.Sprintf("‹ %s ›", domain.StatusLabel(string(p.mode))))
	if a.modal == modalUploadPath {
		field("File", a.input.View())
	} else {
		file := p.path
		if file == "" {
			file = a.st.muted.Render("press f to choose a .csv file")
		}
		field("File", file)
	}
	if a.formErr != "" {
		b.WriteString(a.st.inlineErr.Render(a.formErr) + "\n")
	}
	if p.uploading {
		b.WriteString(a.st.info.Render("Uploading...") + "\n")
	}

	switch {
	case p.outcome != nil:
		b.WriteString("\n" + a.viewUploadOutcome(*p.outcome))
	case p.previewErr != "":
		b.WriteString("\n" + a.st.inlineErr.Render(p.previewErr))
	case p.preview != nil:
		b.WriteString("\n" + a.viewPreview(*p.preview))
	}

	if len(p.history) > 0 {
		b.WriteString("\n\n" + a.st.header.Render("Recent uploads") + "\n")
		cols := []column{{"When", 20}, {"File", 24}, {"Account", 18}, {"Mode", 12}, {"Result", 24}}
		b.WriteString(a.tableHeader(cols) + "\n")
		for _, u := range p.history {
			result := fmt.Sprintf("%d ok, %d failed", u.Successful, u.Failed)
			if u.Rejected() {
				result = "rejected: " + u.Error
			}
			b.WriteString(tableRow(cols, u.UploadedAt.Local().Format(a.cfg.UI.DateFormat), u.FileName,
				u.AccountName, domain.StatusLabel(u.ProcessingMode), result) + "\n")
		}
	}
	return a.fit(strings.TrimRight(b.String(), "\n"))
}

func (a *App) viewPreview(preview service.CSVPreview) string {
	var b strings.Builder
	page := preview.Page(a.upload.previewPage)
	b.WriteString(a.st.header.Render("Preview") + "\n")
	if len(preview.Header) == 0 {
		return b.String() + a.st.muted.Render("The file is empty.")
	}
	width := max(8, min(18, 100/len(preview.Header)))
	cols := make([]column, len(preview.Header))
	for i, h := range preview.Header {
		cols[i] = column{title: h, width: width}
	}
	b.WriteString(a.tableHeader(cols) + "\n")
	for _, r := range page.Rows {
		b.WriteString(tableRow(cols, r...) + "\n")
	}
	b.WriteString(a.pager(page.Number, page.Pages, page.Total))
	for _, err := range preview.Errors {
		b.WriteString("\n" + a.st.inlineErr.Render(err.Error()))
	}
	return b.String()
}

func (a *App) viewUploadOutcome(o service.UploadOutcome) string {
	var b strings.Builder
	r := o.Response
	b.WriteString(a.st.header.Render("Result: "+o.FileName) + "\n")
	if r.Message != "" {
		b.WriteString(r.Message + "\n")
	}
	b.WriteString(fmt.Sprintf("Successful: %d  Failed: %d", r.SuccessfulIngestions, r.FailedIngestions))
	if len(r.Errors) == 0 {
		return b.String()
	}
	cols := []column{{"Row", 6}, {"Error", 48}, {"Data", 40}}
	b.WriteString("\n\n" + a.tableHeader(cols) + "\n")
	for _, e := range r.Errors {
		b.WriteString(tableRow(cols, strconv.Itoa(e.RowNumber), e.ErrorDetails, e.DataText()) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
