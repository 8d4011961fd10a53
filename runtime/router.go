package runtime

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
)

const timestampLayout = "15:04:05"

// Action tells the session lifecycle what to do after a dispatched line.
type Action int

const (
	ActionContinue Action = iota
	ActionQuit
)

// Router turns one inbound line into zero, one, or many outbound deliveries.
// It is stateless: membership always comes from the registry at dispatch
// time, so a session that left between two lines is never addressed again.
type Router struct {
	registry contract.IRegistry
	log      *slog.Logger
	now      func() time.Time
}

// NewRouter builds a router. A nil clock defaults to time.Now; tests inject
// a fixed clock to get deterministic timestamps.
func NewRouter(log *slog.Logger, registry contract.IRegistry, clock func() time.Time) *Router {
	if clock == nil {
		clock = time.Now
	}
	return &Router{registry: registry, log: log, now: clock}
}

// Dispatch routes one trimmed, non-empty line from the sender.
// Command keywords are matched case-insensitively; anything else is a
// broadcast. Only /quit escalates back to the lifecycle controller.
func (r *Router) Dispatch(sender *domain.Session, line string) Action {
	switch {
	case strings.EqualFold(line, "/quit"):
		return ActionQuit
	case strings.EqualFold(line, "/users"):
		r.sendUserList(sender)
	case isCommand(line, "/dm"):
		r.directMessage(sender, line)
	case strings.HasPrefix(line, "/"):
		r.notify(sender, "Unknown command. Try /users, /dm <user> <msg>, or /quit")
	default:
		r.Broadcast(fmt.Sprintf("%s: %s", sender.DisplayName, line))
	}
	return ActionContinue
}

// Broadcast stamps the text with the delivery time and fans it out to every
// live session, sender included. A failed delivery is logged and skipped,
// the remaining recipients still get the line. Broadcasting to an empty
// registry is a no-op.
func (r *Router) Broadcast(text string) {
	stamped := fmt.Sprintf("[%s] %s", r.now().Format(timestampLayout), text)
	for _, s := range r.registry.Snapshot() {
		if err := s.Outbound.Deliver(stamped); err != nil {
			r.log.Warn("Broadcast delivery failed, skipping recipient",
				"recipient", s.DisplayName, "error", err)
		}
	}
}

// directMessage handles "/dm <name> <text>". The first whitespace-delimited
// token after the keyword is the target, everything after it is the body.
// Malformed usage, self-targeting and unknown recipients are reported to
// the sender only; on success exactly two deliveries occur.
func (r *Router) directMessage(sender *domain.Session, line string) {
	args := strings.TrimLeftFunc(line[len("/dm"):], unicode.IsSpace)
	cut := strings.IndexFunc(args, unicode.IsSpace)
	if args == "" || cut < 0 {
		r.notify(sender, "Usage: /dm <username> <message>")
		return
	}
	target := args[:cut]
	body := strings.TrimLeftFunc(args[cut:], unicode.IsSpace)
	if body == "" {
		r.notify(sender, "Usage: /dm <username> <message>")
		return
	}

	if strings.EqualFold(target, sender.DisplayName) {
		r.notify(sender, "You cannot DM yourself.")
		return
	}

	recipient, ok := r.registry.FindByName(target)
	if !ok {
		r.notify(sender, fmt.Sprintf("User '%s' not found. Use /users to see who's online.", target))
		return
	}

	stamp := r.now().Format(timestampLayout)
	if err := recipient.Outbound.Deliver(
		fmt.Sprintf("[%s] [DM from %s] %s", stamp, sender.DisplayName, body)); err != nil {
		r.log.Warn("DM delivery failed",
			"recipient", recipient.DisplayName, "error", err)
	}
	r.notify(sender, fmt.Sprintf("[%s] [DM to %s] %s", stamp, recipient.DisplayName, body))
}

// sendUserList reports current membership to the sender only. The snapshot
// is taken once so the header count always matches the listed names.
func (r *Router) sendUserList(sender *domain.Session) {
	sessions := r.registry.Snapshot()
	if len(sessions) == 0 {
		r.notify(sender, "No users online.")
		return
	}
	r.notify(sender, fmt.Sprintf("Online users (%d):", len(sessions)))
	lines := lo.Map(sessions, func(s *domain.Session, _ int) string {
		return fmt.Sprintf("- %s", s.DisplayName)
	})
	for _, l := range lines {
		r.notify(sender, l)
	}
}

// notify sends a private line to one session, best effort.
func (r *Router) notify(session *domain.Session, text string) {
	if err := session.Outbound.Deliver(text); err != nil {
		r.log.Debug("Notice delivery failed",
			"recipient", session.DisplayName, "error", err)
	}
}

// isCommand reports whether the line starts with the given keyword,
// case-insensitively, followed by whitespace or nothing at all.
// "/dm" alone still matches so the usage notice can be produced.
func isCommand(line, keyword string) bool {
	if len(line) < len(keyword) {
		return false
	}
	if !strings.EqualFold(line[:len(keyword)], keyword) {
		return false
	}
	rest := line[len(keyword):]
	return rest == "" || unicode.IsSpace(rune(rest[0]))
}
