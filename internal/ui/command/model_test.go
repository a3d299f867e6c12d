package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line string
		want CommandMsg
		ok   bool
	}{
		{"", CommandMsg{}, false},
		{"   ", CommandMsg{}, false},
		{"refresh", CommandMsg{Name: "refresh", Args: []string{}}, true},
		{"Read All", CommandMsg{Name: "read all", Args: []string{}}, true},
		{"filter direct", CommandMsg{Name: "filter direct", Args: []string{}}, true},
		{"set system.openlinks background", CommandMsg{Name: "set", Args: []string{"system.openlinks", "background"}}, true},
		{"logout acc-1", CommandMsg{Name: "logout", Args: []string{"acc-1"}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, ok := Parse(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUpdate_EnterEmitsParsedCommand(t *testing.T) {
	m := New(80, 24)
	m.input.SetValue("read all")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	assert.Equal(t, CommandMsg{Name: "read all", Args: []string{}}, cmd())
	assert.Empty(t, m.input.Value())
}

func TestUpdate_EnterOnEmptyInput(t *testing.T) {
	m := New(80, 24)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}
