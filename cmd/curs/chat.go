package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/akobyansamvel/curs/internal/chat"
	"github.com/akobyansamvel/curs/internal/models"
	"github.com/akobyansamvel/curs/internal/transport"
)

func newRoomsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rooms",
		Short: "List your chat rooms",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv()
			if err != nil {
				return err
			}

			rooms, err := e.client.Rooms(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(rooms) == 0 {
				fmt.Fprintln(out, e.tr("chat.no_rooms"))
				return nil
			}

			me, err := e.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			for _, room := range rooms {
				marker := " "
				if room.UnreadCount > 0 {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %4d  %s", marker, room.ID, room.Title(me.User.ID))
				if room.LastMessage != nil {
					fmt.Fprintf(out, "  — %s", room.LastMessage.Content)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <room-id>",
		Short: "Open an interactive chat in a room",
		Long:  "Connects to the room over websocket with a polling fallback. Type a line to send it, /quit to leave.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roomID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("некорректный номер комнаты: %q", args[0])
			}

			e, err := newEnv()
			if err != nil {
				return err
			}

			me, err := e.client.Me(cmd.Context())
			if err != nil {
				return err
			}
			self := models.UserRef{
				ID:        me.User.ID,
				Username:  me.User.Username,
				FirstName: me.User.FirstName,
			}

			live := transport.NewClient(e.cfg.WSBaseURL, e.cfg.Token, e.log)
			session := chat.NewSession(e.client, live, self, e.log)

			out := cmd.OutOrStdout()
			if err := session.Open(cmd.Context(), roomID); err != nil {
				return err
			}
			defer session.Close()
			fmt.Fprintf(out, e.tr("chat.connected")+"\n", roomID)

			lines := make(chan string)
			go func() {
				scanner := bufio.NewScanner(os.Stdin)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
				close(lines)
			}()

			printer := newChatPrinter(out, self.ID)
			printer.flush(session.Messages())

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case user := <-session.Typing():
					fmt.Fprintf(out, e.tr("chat.typing")+"\n", user)
				case <-session.Updates():
					printer.flush(session.Messages())
				case line, ok := <-lines:
					if !ok || line == "/quit" {
						fmt.Fprintln(out, e.tr("chat.disconnected"))
						return nil
					}
					if _, err := session.Submit(cmd.Context(), line); err != nil {
						if err == chat.ErrEmptyMessage {
							fmt.Fprintln(out, e.tr("chat.empty_message"))
							continue
						}
						e.log.Error().Err(err).Msg("message not delivered")
					}
					printer.flush(session.Messages())
				}
			}
		},
	}
}

// chatPrinter writes each message exactly once. Entries are tracked by the
// server identifier or, while optimistic, by the attempt token the store
// preserves across confirmation, so a mid-list insert or a reorder never
// repeats an already shown line.
type chatPrinter struct {
	out    io.Writer
	selfID int64
	seen   map[string]bool
}

func newChatPrinter(out io.Writer, selfID int64) *chatPrinter {
	return &chatPrinter{out: out, selfID: selfID, seen: make(map[string]bool)}
}

func (p *chatPrinter) flush(msgs []models.ChatMessage) {
	for _, msg := range msgs {
		key := messageKey(msg)
		if p.seen[key] {
			continue
		}
		p.seen[key] = true
		printMessage(p.out, msg, p.selfID)
	}
}

func messageKey(msg models.ChatMessage) string {
	if msg.LocalToken != "" {
		return "local:" + msg.LocalToken
	}
	if msg.ID != nil {
		return "id:" + strconv.FormatInt(*msg.ID, 10)
	}
	return fmt.Sprintf("raw:%d:%s", msg.CreatedAt.UnixNano(), msg.Content)
}

func printMessage(out io.Writer, msg models.ChatMessage, selfID int64) {
	name := "система"
	if msg.Sender != nil {
		if msg.Sender.ID == selfID {
			name = "вы"
		} else {
			name = msg.Sender.DisplayName()
		}
	}
	suffix := ""
	if msg.Pending {
		suffix = " …"
	}
	fmt.Fprintf(out, "[%s] %s: %s%s\n", msg.CreatedAt.Format(time.Kitchen), name, msg.Content, suffix)
}
