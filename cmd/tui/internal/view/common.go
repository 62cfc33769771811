package view

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

type CommonModel struct {
	Width  int
	Height int
}

type BackMsg struct{}

func Back() tea.Msg {
	return BackMsg{}
}

// GrantSelectedMsg switches every screen to another grant.
type GrantSelectedMsg struct {
	GrantID uuid.UUID
}
