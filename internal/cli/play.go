package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/rankparty/internal/model"
	"github.com/mcoot/rankparty/internal/protocol"
)

const playHelp = `Commands:
  role player|spectator   switch role
  start [rounds]          start the game
  entry <text>            submit an entry
  rankphase [judge]       close entries and start ranking
  rank a, b, c, d, e      submit your ranking (judge), best first
  guess a, b, c, d, e     submit your guess of the judge's ranking
  entries                 show this round's entries again
  restart                 restart from round one
  help                    show this help
  quit                    leave the room`

// closeWait bounds how long quitting waits for the server's close frame
const closeWait = time.Second

func newPlayCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "play <code> <player-name>",
		Short: "Join a room over the real-time channel and play",
		Long: `Connect to the server's real-time channel, join the room as the given
player and print room events as they arrive. Commands are read one per line
from standard input.

` + playHelp + `

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			code := model.RoomCode(strings.ToUpper(args[0]))
			return play(ctx, code, args[1], cmd.InOrStdin(), cmd.OutOrStdout(), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}

// session is one player's connection. Only the command loop writes to conn.
type session struct {
	conn       *websocket.Conn
	code       model.RoomCode
	w          io.Writer
	jsonOutput bool
}

func play(ctx context.Context, code model.RoomCode, name string, in io.Reader, w io.Writer, jsonOutput bool) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, cfg.WebSocketURL(), nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	s := &session{conn: conn, code: code, w: w, jsonOutput: jsonOutput}
	if err := s.send(protocol.JoinGameRoom{PlayerName: name}); err != nil {
		return err
	}
	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to room %s as %s (type help for commands)\n", code, name)
	}

	done := make(chan error, 1)
	go func() { done <- s.readLoop() }()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return s.leave(done)
		case err := <-done:
			if err == nil && !jsonOutput {
				_, _ = fmt.Fprintln(w, "Disconnected")
			}
			return err
		case line, ok := <-lines:
			if !ok {
				return s.leave(done)
			}
			line = strings.TrimSpace(line)
			switch line {
			case "":
				continue
			case "quit", "exit":
				return s.leave(done)
			case "help":
				_, _ = fmt.Fprintln(w, playHelp)
				continue
			}

			action, err := ParseCommand(line)
			if err != nil {
				_, _ = fmt.Fprintf(w, "Error: %s\n", err)
				continue
			}
			if err := s.send(action); err != nil {
				return err
			}
		}
	}
}

func (s *session) send(action protocol.Action) error {
	data, err := protocol.Encode(s.code, action)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", action.Type(), err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

// leave sends a close frame and waits briefly for the server to answer
func (s *session) leave(done <-chan error) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWait))

	select {
	case <-done:
	case <-time.After(closeWait):
	}
	if !s.jsonOutput {
		_, _ = fmt.Fprintln(s.w, "Disconnected")
	}
	return nil
}

func (s *session) readLoop() error {
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("stream error: %w", err)
		}

		if s.jsonOutput {
			_, _ = fmt.Fprintln(s.w, string(data))
			continue
		}

		var msg protocol.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			_, _ = fmt.Fprintf(s.w, "unreadable frame: %s\n", data)
			continue
		}
		timestamp := msg.Timestamp.Local().Format("15:04:05")
		_, _ = fmt.Fprintf(s.w, "[%s] %s\n", timestamp, DescribeEvent(msg))
	}
}

// ParseCommand turns one line of play input into a client action
func ParseCommand(line string) (protocol.Action, error) {
	verb, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "role":
		role := model.Role(strings.ToLower(rest))
		if !role.Valid() {
			return nil, errors.New("usage: role player|spectator")
		}
		return protocol.SetRole{Role: role}, nil
	case "start":
		if rest == "" {
			return protocol.StartGame{}, nil
		}
		rounds, err := strconv.Atoi(rest)
		if err != nil || rounds < 1 {
			return nil, errors.New("usage: start [rounds]")
		}
		return protocol.StartGame{RoundLimit: rounds}, nil
	case "entry":
		if rest == "" {
			return nil, errors.New("usage: entry <text>")
		}
		return protocol.SubmitEntry{Text: rest}, nil
	case "rankphase":
		return protocol.StartRankingPhase{JudgeName: rest}, nil
	case "rank":
		items := splitList(rest)
		if len(items) == 0 {
			return nil, errors.New("usage: rank a, b, c, d, e")
		}
		return protocol.SubmitRanking{Ranking: items}, nil
	case "guess":
		items := splitList(rest)
		if len(items) == 0 {
			return nil, errors.New("usage: guess a, b, c, d, e")
		}
		return protocol.SubmitGuess{Guess: items}, nil
	case "entries":
		return protocol.RequestEntries{}, nil
	case "restart":
		return protocol.RestartGame{}, nil
	default:
		return nil, fmt.Errorf("unknown command %q (type help for commands)", verb)
	}
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// DescribeEvent renders a server frame as one line of text
func DescribeEvent(msg protocol.RawMessage) string {
	switch msg.Type {
	case model.EventPhaseChanged:
		var p protocol.PhaseChanged
		if decode(msg, &p) {
			return "Phase: " + string(p.Phase)
		}
	case model.EventRoomState:
		var p protocol.RoomView
		if decode(msg, &p) {
			return fmt.Sprintf("Room %s: %s, round %d/%d, %d players", p.Code, p.Phase, p.Round, p.RoundLimit, len(p.Players))
		}
	case model.EventPlayerList:
		var p protocol.PlayerList
		if decode(msg, &p) {
			names := make([]string, len(p.Players))
			for i, pl := range p.Players {
				names[i] = pl.Name
				if pl.Role == model.RoleSpectator {
					names[i] += " (spectator)"
				}
			}
			return "Players: " + strings.Join(names, ", ")
		}
	case model.EventPlayerJoined:
		var p protocol.PlayerJoined
		if decode(msg, &p) {
			return p.PlayerName + " joined"
		}
	case model.EventGameStarted:
		var p protocol.GameStarted
		if decode(msg, &p) {
			return fmt.Sprintf("Round %d/%d: %q, judged by %s", p.Round, p.RoundLimit, p.Category, p.JudgeName)
		}
	case model.EventNewEntry:
		var p protocol.NewEntry
		if decode(msg, &p) {
			return "New entry: " + p.Text
		}
	case model.EventAllEntries:
		var p protocol.AllEntries
		if decode(msg, &p) {
			return "Entries: " + strings.Join(p.Entries, ", ")
		}
	case model.EventRankingPhase:
		var p protocol.RankingPhaseStarted
		if decode(msg, &p) {
			return "Ranking started, judged by " + p.JudgeName
		}
	case model.EventResultsReveal:
		var p protocol.ResultsRevealed
		if decode(msg, &p) {
			return describeResults(p)
		}
	case model.EventFinalScores:
		var p protocol.FinalScores
		if decode(msg, &p) {
			parts := make([]string, len(p.Standings))
			for i, st := range p.Standings {
				parts[i] = fmt.Sprintf("%s %d", st.PlayerName, st.Score)
			}
			return "Final scores: " + strings.Join(parts, ", ")
		}
	case model.EventToastWarning:
		var p protocol.Notice
		if decode(msg, &p) {
			return "Warning: " + p.Message
		}
	case model.EventJoinError:
		var p protocol.Notice
		if decode(msg, &p) {
			return "Join failed: " + p.Message
		}
	}
	return fmt.Sprintf("%s: %s", msg.Type, msg.Payload)
}

func describeResults(p protocol.ResultsRevealed) string {
	names := make([]string, 0, len(p.Results))
	for name := range p.Results {
		names = append(names, name)
	}
	sort.Strings(names)

	scores := make([]string, len(names))
	for i, name := range names {
		scores[i] = fmt.Sprintf("%s +%d", name, p.Results[name].Score)
	}

	text := "Ranking: " + strings.Join(p.JudgeRanking, " > ")
	if p.Fallback {
		text += " (judge ran out of time)"
	}
	if len(scores) > 0 {
		text += "; " + strings.Join(scores, ", ")
	}
	return text
}

func decode(msg protocol.RawMessage, v any) bool {
	return json.Unmarshal(msg.Payload, v) == nil
}
