package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/custodix/exchain/internal/events"
)

// ingress-watch 终端实时面板：订阅网关的入口消息流，
// 按区块滚动展示最近的消息。运维联调用。

const maxRows = 200

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	epochStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("3")) // 黄色：纪元边界

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")) // 青色

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))
)

type ingressFrame struct {
	Block    uint64                  `json:"block"`
	Epoch    bool                    `json:"epoch"`
	Messages []events.IngressMessage `json:"messages"`
}

type row struct {
	block uint64
	epoch bool
	kind  string
	desc  string
	at    time.Time
}

type frameMsg ingressFrame

type connErrMsg struct{ err error }

type model struct {
	wsURL  string
	frames chan ingressFrame

	rows      []row
	lastBlock uint64
	connErr   error
	width     int
	height    int
}

func newModel(wsURL string) model {
	return model{wsURL: wsURL, frames: make(chan ingressFrame, 16)}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.connect(), m.waitFrame())
}

// connect 建立 websocket 连接并在后台读帧
func (m model) connect() tea.Cmd {
	return func() tea.Msg {
		conn, _, err := websocket.DefaultDialer.DialContext(context.Background(), m.wsURL, nil)
		if err != nil {
			return connErrMsg{err: err}
		}
		go func() {
			defer conn.Close()
			for {
				var frame ingressFrame
				if err := conn.ReadJSON(&frame); err != nil {
					return
				}
				m.frames <- frame
			}
		}()
		return nil
	}
}

func (m model) waitFrame() tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-m.frames)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case connErrMsg:
		m.connErr = msg.err
		return m, tea.Quit
	case frameMsg:
		m.lastBlock = msg.Block
		at := time.Now()
		for _, im := range msg.Messages {
			m.rows = append(m.rows, row{
				block: msg.Block,
				epoch: msg.Epoch,
				kind:  string(im.Kind),
				desc:  describe(im),
				at:    at,
			})
		}
		if msg.Epoch && len(msg.Messages) == 0 {
			m.rows = append(m.rows, row{block: msg.Block, epoch: true, kind: "epoch", desc: "纪元边界，审计日志已清空", at: at})
		}
		if len(m.rows) > maxRows {
			m.rows = m.rows[len(m.rows)-maxRows:]
		}
		return m, m.waitFrame()
	}
	return m, nil
}

// describe 生成消息的单行摘要
func describe(im events.IngressMessage) string {
	switch im.Kind {
	case events.IngressRegisterUser:
		return fmt.Sprintf("主账户 %s", short(im.Main.Hex()))
	case events.IngressAddProxy:
		return fmt.Sprintf("主账户 %s 代理 %s", short(im.Main.Hex()), short(im.Proxy.Hex()))
	case events.IngressDeposit:
		return fmt.Sprintf("用户 %s 资产 %s 数量 %s", short(im.User.Hex()), im.Asset.String(), im.Amount.String())
	case events.IngressOpenTradingPair:
		return fmt.Sprintf("交易对 %s/%s 开放", im.Pair.BaseAsset.String(), im.Pair.QuoteAsset.String())
	case events.IngressCloseTradingPair:
		return fmt.Sprintf("交易对 %s/%s 关闭", im.Pair.BaseAsset.String(), im.Pair.QuoteAsset.String())
	case events.IngressShutdown:
		return "交易所紧急停机"
	default:
		return string(im.Kind)
	}
}

func short(hexAddr string) string {
	if len(hexAddr) <= 12 {
		return hexAddr
	}
	return hexAddr[:8] + ".." + hexAddr[len(hexAddr)-4:]
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf(" exchain 入口消息流  区块 %d  按 q 退出 ", m.lastBlock)))
	b.WriteString("\n\n")

	if m.connErr != nil {
		b.WriteString(errStyle.Render("连接失败: " + m.connErr.Error()))
		b.WriteString("\n")
		return b.String()
	}

	visible := m.rows
	if m.height > 4 && len(visible) > m.height-4 {
		visible = visible[len(visible)-(m.height-4):]
	}
	if len(visible) == 0 {
		b.WriteString(dimStyle.Render("等待入口消息..."))
		b.WriteString("\n")
		return b.String()
	}
	for _, r := range visible {
		blockLabel := fmt.Sprintf("#%-6d", r.block)
		if r.epoch {
			blockLabel = epochStyle.Render(blockLabel)
		} else {
			blockLabel = dimStyle.Render(blockLabel)
		}
		b.WriteString(fmt.Sprintf("%s %s %s %s\n",
			dimStyle.Render(r.at.Format("15:04:05")),
			blockLabel,
			kindStyle.Render(fmt.Sprintf("%-18s", r.kind)),
			r.desc,
		))
	}
	return b.String()
}

func main() {
	_ = godotenv.Load()

	getenv := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}

	wsURL := flag.String("ws", getenv("EXCHAIN_WS", "ws://127.0.0.1:8545/ws/ingress"), "入口消息流地址")
	flag.Parse()

	p := tea.NewProgram(newModel(*wsURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI 退出: %v", err)
	}
}
