package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docchat/config"
	"docchat/format"
	appmodel "docchat/model"
	"docchat/reveal"
	"docchat/storage"
)

// Lines used around the viewport: title, separator, attached files,
// textarea (3) and status bar
const chromeHeight = 7

type AppView struct {
	dataModel *appmodel.Model
	kb        *config.KeyBindingsConfig

	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	width  int
	height int
	ready  bool

	// Running reveal animations by answer message ID
	reveals map[int64]reveal.Model
	// Static answer views by message ID, valid for renderWidth
	rendered    map[int64]string
	renderWidth int
	// Static views of revealing answers, formulas resolved on completion
	pending map[int64]*format.View

	showHelp bool

	filePicker FilePickerState

	showDocuments bool
	documents     []storage.Document
	documentList  listState

	showAttached bool
	attachedList listState

	showConversations bool
	conversations     []storage.ConversationMetadata
	conversationList  listState
	renameMode        bool
	renameInput       textinput.Model
	confirmDelete     *storage.ConversationMetadata

	showSearch     bool
	searchInput    textinput.Model
	searchResults  []storage.MessageMatch
	searchSelected int
	searchedFor    string
	searchErr      string

	export exportState

	showInfoModal  bool
	infoModalTitle string
	infoModalMsg   string
	infoModalType  ModalType

	// Status toast, cleared by the FlashTickMsg carrying flashSeq
	flash      string
	flashError bool
	flashSeq   int
}

func NewAppView(dataModel *appmodel.Model, kb *config.KeyBindingsConfig) AppView {
	if kb == nil {
		kb = config.DefaultKeybindings()
	}

	ta := textarea.New()
	ta.Placeholder = "Ask a question about the attached files..."
	ta.Focus()
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.SetHeight(3)
	ta.SetWidth(80)

	// Enter sends; Alt+Enter inserts a newline
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))

	ta.SetPromptFunc(2, func(lineIdx int) string {
		if lineIdx == 0 {
			return "> "
		}
		return "| "
	})

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = AnswerStyle

	renameInput := textinput.New()
	renameInput.Prompt = "Name: "
	renameInput.CharLimit = 100
	renameInput.Width = 50

	searchInput := textinput.New()
	searchInput.Prompt = "Search: "
	searchInput.CharLimit = 100
	searchInput.Width = 50

	return AppView{
		dataModel:      dataModel,
		kb:             kb,
		textarea:       ta,
		viewport:       viewport.New(0, 0),
		loadingSpinner: sp,
		reveals:        make(map[int64]reveal.Model),
		rendered:       make(map[int64]string),
		pending:        make(map[int64]*format.View),
		filePicker: NewFilePickerState(FilePickerConfig{
			Title: "Attach File",
		}),
		documentList:     newListState(),
		attachedList:     newListState(),
		conversationList: newListState(),
		renameInput:      renameInput,
		searchInput:      searchInput,
		export:           newExportState(),
	}
}

func (a AppView) Init() tea.Cmd {
	return textarea.Blink
}

func (a AppView) View() string {
	if !a.ready {
		return "Loading docchat..."
	}

	if a.showInfoModal {
		return RenderAcknowledgeModal(a.infoModalTitle, a.infoModalMsg, a.infoModalType, a.width, a.height)
	}

	// Help stays on top so it can be opened over any modal
	if a.showHelp {
		return a.renderHelpModal()
	}

	if a.filePicker.Active {
		return RenderFilePickerModal(a.filePicker, a.dataModel.Files.Len(), a.dataModel.Files.Max(), a.width, a.height)
	}

	if a.showDocuments {
		return a.renderDocumentsModal()
	}

	if a.showAttached {
		return a.renderAttachedModal()
	}

	if a.showSearch {
		return a.renderSearchModal()
	}

	if a.showConversations {
		return a.renderConversationsModal()
	}

	if a.export.active {
		return a.renderExportModal()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		a.renderTitle(),
		"",
		a.viewport.View(),
		a.renderAttachedFiles(),
		a.textarea.View(),
		a.renderStatusBar(),
	)
}

func (a AppView) renderTitle() string {
	name := "New conversation"
	if a.dataModel.Current != nil && a.dataModel.Current.Name != "" {
		name = a.dataModel.Current.Name
	}

	title := AnswerStyle.Render("docchat") + TitleStyle.Render(" - ") + UserStyle.Render(name)
	if a.dataModel.Client != nil {
		title += DimStyle.Render(" | " + a.dataModel.Client.BaseURL())
	}
	if !a.dataModel.RevealEnabled() {
		title += DimStyle.Render(" | reveal off")
	}
	return lipgloss.NewStyle().MaxWidth(a.width).Render(title)
}

func (a AppView) renderAttachedFiles() string {
	files := a.dataModel.Files.Names()
	if len(files) == 0 {
		return DimStyle.Render(fmt.Sprintf("No files attached. %s to attach one.", a.kb.DisplayActionKey("attach_file")))
	}

	line := fmt.Sprintf("Files (%d/%d): %s", len(files), a.dataModel.Files.Max(), strings.Join(files, ", "))
	return TitleStyle.Render(truncate(line, max(a.width, 1)))
}

func (a AppView) renderStatusBar() string {
	if a.flash != "" {
		if a.flashError {
			return ErrorStyle.Render(a.flash)
		}
		return HighlightStyle.Render(a.flash)
	}

	hints := formatStatusHints(
		a.kb.DisplayActionKey("quit"), "Quit",
		a.kb.DisplayActionKey("attach_file"), "Attach",
		a.kb.DisplayActionKey("recent_documents"), "Recent",
		a.kb.DisplayActionKey("conversations"), "Conversations",
		"Enter", "Ask",
		a.kb.DisplayActionKey("yank_last_answer"), "Copy",
		a.kb.DisplayActionKey("help"), "Help",
	)
	return StatusStyle.Render(hints)
}

func (a *AppView) closeAllModals() {
	a.showInfoModal = false
	a.showHelp = false
	a.filePicker.Reset()
	a.showDocuments = false
	a.showAttached = false
	a.showConversations = false
	a.showSearch = false
	a.export.Close()

	a.renameMode = false
	a.confirmDelete = nil
	if a.documentList.filterMode {
		a.documentList.StopFilter()
	}
	if a.conversationList.filterMode {
		a.conversationList.StopFilter()
	}
	a.renameInput.Blur()
	a.searchInput.Blur()
}

// modalOpen reports whether any modal covers the chat view
func (a AppView) modalOpen() bool {
	return a.showInfoModal || a.showHelp || a.filePicker.Active || a.showDocuments ||
		a.showAttached || a.showConversations || a.showSearch || a.export.active
}

func (a *AppView) showInfo(title, message string, modalType ModalType) {
	a.closeAllModals()
	a.showInfoModal = true
	a.infoModalTitle = title
	a.infoModalMsg = message
	a.infoModalType = modalType
}
