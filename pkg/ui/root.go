// Copyright 2023 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	humanize "github.com/dustin/go-humanize"

	"github.com/binkynet/RadioWorker/pkg/service"
	"github.com/binkynet/RadioWorker/pkg/service/netlink"
	"github.com/binkynet/RadioWorker/pkg/service/supervisor"
)

const (
	refreshInterval = 500 * time.Millisecond
	volumeStep      = 5
	barWidth        = 40
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("8"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// stateColors holds the color of every state shown in the UI.
var stateColors = map[supervisor.State]lipgloss.Color{
	supervisor.StatePlaying:           "10",
	supervisor.StateConnecting:        "11",
	supervisor.StateBuffering:         "11",
	supervisor.StateReconnecting:      "208",
	supervisor.StateWaitingForNetwork: "9",
	supervisor.StateFailed:            "9",
}

type Root struct {
	svc    service.API
	term   string
	width  int
	status supervisor.Status
	link   netlink.LinkStatus
	err    error
	buffer progress.Model
	volume progress.Model
}

var _ tea.Model = Root{}

// NewRoot creates the status model for the given service.
func NewRoot(svc service.API, term string) Root {
	return Root{
		svc:    svc,
		term:   term,
		status: svc.Status(),
		link:   svc.LinkStatus(),
		buffer: progress.New(progress.WithDefaultGradient(), progress.WithWidth(barWidth)),
		volume: progress.New(progress.WithSolidFill("12"), progress.WithWidth(barWidth)),
	}
}

type statusMsg struct {
	status supervisor.Status
	link   netlink.LinkStatus
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return r.doRefresh()
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		r.status = msg.status
		r.link = msg.link
		return r, r.doRefresh()
	case tea.WindowSizeMsg:
		r.width = msg.Width
		width := min(barWidth, max(msg.Width-16, 10))
		r.buffer.Width = width
		r.volume.Width = width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case "+", "=":
			r.err = r.svc.SetVolume(min(r.status.Volume+volumeStep, 100))
			r.status = r.svc.Status()
		case "-":
			r.err = r.svc.SetVolume(max(r.status.Volume-volumeStep, 0))
			r.status = r.svc.Status()
		case "r":
			r.svc.Reconnect()
		case "s":
			if r.status.State == supervisor.StateStopped {
				r.svc.Play()
			} else {
				r.svc.Stop()
			}
		}
	}
	return r, nil
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	st := r.status
	var b strings.Builder
	b.WriteString(r.headerView())
	b.WriteString("\n\n")

	stateStyle := lipgloss.NewStyle().Bold(true)
	if c, found := stateColors[st.State]; found {
		stateStyle = stateStyle.Foreground(c)
	}
	state := stateStyle.Render(st.State.String())
	if !st.Since.IsZero() {
		state += " (" + humanize.Time(st.Since) + ")"
	}
	if st.Attempt > 0 {
		state += fmt.Sprintf(" attempt %d", st.Attempt)
	}
	row(&b, "State", state)
	row(&b, "Stream", st.StreamURL)
	if st.Title != "" {
		row(&b, "Title", st.Title)
	}
	if info := st.Info; info.Codec != "" {
		codec := info.Codec
		if info.Bitrate > 0 {
			codec += fmt.Sprintf(" %d kbps", info.Bitrate)
		}
		if info.Name != "" {
			codec += " (" + info.Name + ")"
		}
		row(&b, "Codec", codec)
	}
	row(&b, "Buffer", r.buffer.ViewAs(st.BufferFill())+" "+fmt.Sprintf("%s / %s",
		humanize.Bytes(uint64(st.Buffer.Ring.Filled)),
		humanize.Bytes(uint64(st.Buffer.Ring.Capacity))))
	row(&b, "Underruns", humanize.Comma(st.Underruns))
	row(&b, "Volume", r.volume.ViewAs(float64(st.Volume)/100)+fmt.Sprintf(" %d%%", st.Volume))
	row(&b, "Output", string(st.Mode))
	row(&b, "WiFi", r.linkView())
	if st.LastError != "" {
		row(&b, "Error", errorStyle.Render(st.LastError))
	}
	if r.err != nil {
		row(&b, "", errorStyle.Render(r.err.Error()))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("+/- volume • r reconnect • s stop/play • q disconnect"))
	b.WriteString("\n")
	return b.String()
}

func (r Root) headerView() string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("RadioWorker "+r.svc.Version()),
		helpStyle.Render(fmt.Sprintf("  host %s, up %s", r.svc.HostID(),
			humanize.RelTime(r.svc.StartedAt(), time.Now(), "", ""))),
	)
}

func (r Root) linkView() string {
	if !r.link.Connected {
		return r.status.Link.String()
	}
	s := r.status.Link.String()
	if r.link.SSID != "" {
		s += " " + r.link.SSID
	}
	if r.link.Address != "" {
		s += " " + r.link.Address
	}
	return s
}

func row(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(value)
	b.WriteString("\n")
}

// doRefresh polls the service for a new status.
func (r Root) doRefresh() tea.Cmd {
	svc := r.svc
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return statusMsg{status: svc.Status(), link: svc.LinkStatus()}
	})
}
