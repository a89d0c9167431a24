package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/arthurdotwork/livechat/internal/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/manifoldco/promptui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const newChatItem = "+ new chat"

type apiClient struct {
	base   string
	header string
	user   string
	http   *http.Client
}

func Client(ctx context.Context, c *cobra.Command) error {
	addr, _ := c.Flags().GetString("addr")
	header, _ := c.Flags().GetString("identity-header")
	user, _ := c.Flags().GetString("user")

	if user == "" {
		prompt := promptui.Prompt{Label: "Username"}
		username, err := prompt.Run()
		if err != nil {
			return fmt.Errorf("prompt.Run: %w", err)
		}

		user = strings.TrimSpace(username)
	}

	api := &apiClient{
		base:   "http://" + addr,
		header: header,
		user:   user,
		http:   &http.Client{Timeout: 10 * time.Second},
	}

	chat, err := pickChat(ctx, api)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, (&url.URL{Scheme: "ws", Host: addr, Path: "/ws"}).String(), http.Header{header: []string{user}})
	if err != nil {
		return fmt.Errorf("websocket.Dial: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	history, err := api.history(ctx, chat)
	if err != nil {
		return err
	}

	for _, m := range history {
		fmt.Printf("[%s] %s: %s (%s)\n", m.ID, m.SenderID, m.Content, m.Status)
	}

	sink := make(chan error, 1)
	go receiveFrames(conn, sink)

	lines := make(chan string)
	go readLines(lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sink:
			if err != nil {
				return fmt.Errorf("receiveFrames: %w", err)
			}

			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			frame, quit, err := parseLine(chat, line)
			if err != nil {
				fmt.Println(err)
				continue
			}

			if quit {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				return nil
			}

			if frame == nil {
				continue
			}

			if err := conn.WriteJSON(frame); err != nil {
				return fmt.Errorf("conn.WriteJSON: %w", err)
			}
		}
	}
}

func pickChat(ctx context.Context, api *apiClient) (domain.ChatID, error) {
	chats, err := api.chats(ctx)
	if err != nil {
		return "", err
	}

	items := append(lo.Map(chats, func(c domain.ChatSummary, _ int) string {
		return fmt.Sprintf("%s (%s)", c.Name, c.ID)
	}), newChatItem)

	selector := promptui.Select{Label: "Chat", Items: items}
	index, _, err := selector.Run()
	if err != nil {
		return "", fmt.Errorf("selector.Run: %w", err)
	}

	if index < len(chats) {
		return chats[index].ID, nil
	}

	prompt := promptui.Prompt{Label: "Participants (comma separated)"}
	input, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("prompt.Run: %w", err)
	}

	participants := lo.FilterMap(strings.Split(input, ","), func(s string, _ int) (domain.UserID, bool) {
		s = strings.TrimSpace(s)
		return domain.UserID(s), s != ""
	})

	chat, err := api.createChat(ctx, participants)
	if err != nil {
		return "", err
	}

	return chat.ID, nil
}

// parseLine turns a line typed by the user into an outbound frame.
func parseLine(chat domain.ChatID, line string) (*domain.Frame, bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false, nil
	}

	requestID := uuid.NewString()

	command, arg, _ := strings.Cut(line, " ")
	switch command {
	case "/quit":
		return nil, true, nil
	case "/ping":
		return &domain.Frame{Type: domain.FramePresence, RequestID: requestID}, false, nil
	case "/read", "/delivered":
		if arg == "" {
			return nil, false, fmt.Errorf("usage: %s <message id>", command)
		}

		status := domain.StatusRead
		if command == "/delivered" {
			status = domain.StatusDelivered
		}

		return &domain.Frame{Type: domain.FrameStatus, RequestID: requestID, ChatID: chat, MessageID: domain.MessageID(strings.TrimSpace(arg)), Status: status}, false, nil
	default:
		return &domain.Frame{Type: domain.FrameMessage, RequestID: requestID, ChatID: chat, Content: line}, false, nil
	}
}

func readLines(lines chan<- string) {
	defer close(lines)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}

func receiveFrames(conn *websocket.Conn, sink chan error) {
	for {
		var f domain.Frame
		if err := conn.ReadJSON(&f); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sink <- nil
				return
			}

			sink <- err
			return
		}

		switch f.Type {
		case domain.FrameMessage:
			fmt.Printf("[%s] %s: %s\n", f.MessageID, f.SenderID, f.Content)
		case domain.FrameStatus:
			fmt.Printf("[%s] %s by %s\n", f.MessageID, f.Status, f.SenderID)
		case domain.FramePresence:
			state := "offline"
			if f.Online != nil && *f.Online {
				state = "online"
			}
			fmt.Printf("%s is %s\n", f.UserID, state)
		case domain.FrameAck:
			if f.MessageID != "" {
				fmt.Printf("[%s] sent\n", f.MessageID)
			}
		case domain.FrameNotice, domain.FrameErr:
			if f.Error != nil {
				fmt.Printf("%s: %s\n", f.Error.Code, f.Error.Message)
			}
		case domain.FrameClosing:
			fmt.Println("Server is closing")
			sink <- nil
			return
		default:
			sink <- fmt.Errorf("unknown frame type: %s", f.Type)
			return
		}
	}
}

func (a *apiClient) chats(ctx context.Context) ([]domain.ChatSummary, error) {
	var resp struct {
		Chats []domain.ChatSummary `json:"chats"`
	}

	if err := a.do(ctx, http.MethodGet, "/api/chats", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Chats, nil
}

func (a *apiClient) createChat(ctx context.Context, participants []domain.UserID) (domain.Chat, error) {
	var chat domain.Chat
	if err := a.do(ctx, http.MethodPost, "/api/chats", map[string][]domain.UserID{"participants": participants}, &chat); err != nil {
		return domain.Chat{}, err
	}

	return chat, nil
}

func (a *apiClient) history(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	var resp struct {
		Messages []domain.Message `json:"messages"`
	}

	if err := a.do(ctx, http.MethodGet, "/api/chats/"+url.PathEscape(string(chat))+"/messages", nil, &resp); err != nil {
		return nil, err
	}

	return resp.Messages, nil
}

func (a *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			return fmt.Errorf("json.Encode: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, &payload)
	if err != nil {
		return fmt.Errorf("http.NewRequestWithContext: %w", err)
	}
	req.Header.Set(a.header, a.user)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("http.Do: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)

		return errors.New(lo.CoalesceOrEmpty(apiErr.Error, resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("json.Decode: %w", err)
	}

	return nil
}
