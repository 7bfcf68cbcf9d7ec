// Command othello-cli is a terminal client for the Othello server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"golang.org/x/term"

	"github.com/othello-net/othello-server/internal/client"
	"github.com/othello-net/othello-server/internal/engine"
	wire "github.com/othello-net/othello-server/pkg/types"
)

const help = `commands:
  join            find an opponent
  play d3         place a stone (also: play <x> <y>, zero-based)
  board           show the board
  moves           list your legal moves
  quit            leave`

type session struct {
	conn *client.Conn
	out  io.Writer
	pal  palette

	mu    sync.Mutex
	id    string
	match *client.Match
}

func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "server websocket URL")
	nick := flag.String("nick", os.Getenv("USER"), "nickname")
	flag.Parse()

	if err := run(*url, *nick); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(url, nick string) error {
	if strings.TrimSpace(nick) == "" {
		return errors.New("a nickname is required (-nick)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	conn, err := client.Dial(ctx, url, nil)
	cancel()
	if err != nil {
		return err
	}
	defer conn.Close()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "othello > ",
		HistoryFile:     os.ExpandEnv("$HOME/.othello_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	s := &session{
		conn: conn,
		out:  rl.Stdout(),
		pal:  palette{on: term.IsTerminal(int(os.Stdout.Fd()))},
	}
	if err := conn.Send(wire.ConnectingParam{Nickname: nick}); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() { done <- s.receive(rl) }()

	fmt.Fprintln(s.out, help)
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil { // io.EOF
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprintln(s.out, help)
		case "join":
			s.join()
		case "play":
			s.play(fields[1:])
		case "board":
			s.showBoard()
		case "moves":
			s.showMoves()
		default:
			s.say(yellow, "unknown command %q, try help", fields[0])
		}

		select {
		case err := <-done:
			return err
		default:
		}
	}
}

func (s *session) say(color, format string, args ...any) {
	fmt.Fprintln(s.out, s.pal.paint(color, fmt.Sprintf(format, args...)))
}

func (s *session) join() {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.id == "":
		s.say(yellow, "not connected yet")
		return
	case s.match != nil && !s.match.Over() && !s.match.Abandoned():
		s.say(yellow, "already on a board")
		return
	}
	s.send(wire.JoinBoard{SessionID: s.id})
}

func (s *session) play(args []string) {
	x, y, err := parseMove(args)
	if err != nil {
		s.say(red, "%v", err)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		s.say(yellow, "join a board first")
		return
	}
	req, err := s.match.Play(x, y)
	if err != nil {
		s.say(red, "%v", err)
		return
	}
	s.send(req)
	s.afterMove()
}

func (s *session) showBoard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil {
		s.say(yellow, "no board")
		return
	}
	var hints engine.PosSet
	if s.match.MyTurn() {
		hints = s.match.LegalMoves()
	}
	fmt.Fprint(s.out, renderBoard(s.match.Board(), hints, s.pal))
	score := s.match.Score()
	fmt.Fprintf(s.out, "black %d  white %d  you are %s\n", score.Black, score.White, s.match.Color)
}

func (s *session) showMoves() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == nil || !s.match.MyTurn() {
		s.say(yellow, "not your turn")
		return
	}
	fmt.Fprintln(s.out, formatMoves(s.match.LegalMoves()))
}

// afterMove reports turn changes and sends GameOver once. Callers hold mu.
func (s *session) afterMove() {
	if gameOver, ok := s.match.GameOver(); ok {
		score := s.match.Score()
		s.say(cyan, "game over: black %d, white %d", score.Black, score.White)
		s.send(gameOver)
		return
	}
	if s.match.MyTurn() {
		s.say(green, "your move")
	}
}

func (s *session) send(req wire.Request) {
	if err := s.conn.Send(req); err != nil {
		s.say(red, "send: %v", err)
	}
}

// receive handles server notifications until the connection drops.
func (s *session) receive(rl *readline.Instance) error {
	for {
		resp, err := s.conn.Receive()
		if err != nil {
			s.say(red, "disconnected: %v", err)
			rl.Close()
			return err
		}
		s.handle(resp)
		rl.Refresh()
	}
}

func (s *session) handle(resp wire.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m := resp.(type) {
	case wire.ConnectedParam:
		s.id = m.SessionID
		s.say(cyan, "connected, %d players online", m.UsersCount)

	case wire.JoinedBoard:
		s.match = client.NewMatch(m)
		if m.Opponent == nil {
			s.say(cyan, "waiting for an opponent (you are black)")
			return
		}
		s.say(cyan, "playing %s (you are white)", *m.Opponent)

	case wire.OpponentJoinedBoard:
		if s.match == nil || s.match.OpponentJoined(m) != nil {
			return
		}
		s.say(cyan, "%s joined", m.Opponent)
		s.afterMove()

	case wire.PlayedBoard:
		if s.match == nil {
			return
		}
		if _, err := s.match.Apply(m); err != nil {
			s.say(red, "opponent move rejected locally: %v", err)
			return
		}
		s.say(cyan, "opponent played %s", engine.At(m.Pos.X(), m.Pos.Y()))
		s.afterMove()

	case wire.OpponentDisconnected:
		if s.match != nil && s.match.Abandon(m) {
			s.say(yellow, "opponent left; type join for a new game")
		}
	}
}
