package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// Ntfy publishes events to an ntfy topic.
type Ntfy struct {
	topicURL string
	priority string
	opts     HTTPOptions
}

// NewNtfy creates an ntfy channel publishing to server/topic.
func NewNtfy(server, topic, priority string, opts HTTPOptions) *Ntfy {
	if server == "" {
		server = "https://ntfy.sh"
	}
	return &Ntfy{
		topicURL: strings.TrimRight(server, "/") + "/" + url.PathEscape(topic),
		priority: priority,
		opts:     opts.withDefaults(),
	}
}

func (n *Ntfy) Name() string { return "ntfy" }

func (n *Ntfy) Send(ctx context.Context, e domain.Event) error {
	priority := n.priority
	if e.Type.IsAuthAlert() {
		priority = "high"
	}

	err := post(ctx, n.opts, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, strings.NewReader(e.Summary))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Title", title(e))
		req.Header.Set("Tags", string(e.Platform)+","+string(e.Type))
		if priority != "" {
			req.Header.Set("Priority", priority)
		}
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("ntfy: %w", err)
	}
	return nil
}
