// Package message sends text screens to the display daemon.
//
// A message is a list of lines. An optional first "set:" line carries
// options such as "clear" and "time=<seconds>"; every other line is
// "s=<style>:<text>" where style is h (heading), b (body) or a (alert).
package message

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// SocketEnv overrides the daemon socket path.
const SocketEnv = "DISPLAY_SOCKET"

// DefaultSocket is where the display daemon listens.
const DefaultSocket = "/var/run/pibox/display.sock"

var (
	ErrEmpty     = errors.New("message: no lines")
	ErrMalformed = errors.New("message: malformed line")
)

// Style selects how a line is rendered by the daemon.
type Style byte

const (
	Heading Style = 'h'
	Body    Style = 'b'
	Alert   Style = 'a'
)

// Line formats text in style s.
func Line(s Style, text string) string {
	return "s=" + string(s) + ":" + text
}

// Settings is the "set:" line of a message.
type Settings struct {
	// Clear wipes the screen before drawing.
	Clear bool
	// Time is how long the message stays up, rounded to whole seconds.
	Time time.Duration
}

func (s Settings) String() string {
	var opts []string
	if s.Clear {
		opts = append(opts, "clear")
	}
	if s.Time > 0 {
		opts = append(opts, "time="+strconv.Itoa(int(s.Time.Round(time.Second)/time.Second)))
	}
	return "set:" + strings.Join(opts, ",")
}

// Validate checks every line is a settings or a styled line.
func Validate(lines []string) error {
	if len(lines) == 0 {
		return ErrEmpty
	}
	for i, l := range lines {
		if strings.HasPrefix(l, "set:") {
			if i != 0 {
				return fmt.Errorf("%w: line %d: settings must come first", ErrMalformed, i+1)
			}
			continue
		}
		if len(l) < 4 || !strings.HasPrefix(l, "s=") || l[3] != ':' {
			return fmt.Errorf("%w: line %d: %q", ErrMalformed, i+1, l)
		}
		switch Style(l[2]) {
		case Heading, Body, Alert:
		default:
			return fmt.Errorf("%w: line %d: unknown style %q", ErrMalformed, i+1, l[2])
		}
	}
	return nil
}

// SocketPath returns the daemon socket to use.
func SocketPath() string {
	if p := os.Getenv(SocketEnv); p != "" {
		return p
	}
	return DefaultSocket
}

// Client talks HTTP to the daemon over its unix socket.
type Client struct {
	socket string
	hc     *http.Client
}

// NewClient returns a Client for the daemon listening on socket.
func NewClient(socket string) *Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &Client{
		socket: socket,
		hc: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					return dialer.DialContext(ctx, "unix", socket)
				},
			},
		},
	}
}

func (c *Client) String() string {
	return "unix:" + c.socket
}

// Send posts lines to the daemon. With logging set the daemon records the
// message in its log and the client logs it locally.
func (c *Client) Send(ctx context.Context, lines []string, logging bool) error {
	if err := Validate(lines); err != nil {
		return err
	}
	u := url.URL{Scheme: "http", Host: "display", Path: "/message"}
	if logging {
		u.RawQuery = url.Values{"log": {"1"}}.Encode()
		log.Printf("display message via %s: %s", c, strings.Join(lines, " | "))
	}
	body := strings.NewReader(strings.Join(lines, "\n") + "\n")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("message: could not reach display daemon at %s: %w", c.socket, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("message: display daemon answered %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}
