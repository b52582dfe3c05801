// internal/notify/apprise.go
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"dockermirror/internal/types"
	"dockermirror/pkg/utils"
)

// Types de message compris par l'API Apprise
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationFailure = "failure"
)

// Message est le corps JSON attendu par /notify
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Type  string `json:"type"`
	Tag   string `json:"tag,omitempty"`
}

// AppriseClient envoie les résumés d'exécution à un serveur Apprise
type AppriseClient struct {
	endpoint   string
	tag        string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAppriseClient valide l'URL du serveur.
// Le schéma apprise:// est un alias de http://.
func NewAppriseClient(rawURL string, logger *logrus.Logger) (*AppriseClient, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if rawURL == "" {
		return nil, fmt.Errorf("apprise URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid apprise URL: %w", err)
	}
	switch u.Scheme {
	case "apprise":
		u.Scheme = "http"
		logger.Debugf("Using %s for Apprise notifications", u.Redacted())
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported apprise URL scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("apprise URL has no host")
	}

	// Le tag optionnel sélectionne les services côté serveur
	tag := u.Query().Get("tag")
	q := u.Query()
	q.Del("tag")
	u.RawQuery = q.Encode()

	return &AppriseClient{
		endpoint:   u.String(),
		tag:        tag,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}, nil
}

// NotifyRun envoie le résumé d'une exécution, en échec si runErr est non nil
func (a *AppriseClient) NotifyRun(ctx context.Context, summary *types.RunSummary, runErr error) error {
	msg := Message{
		Title: "Image Mirror Completed",
		Body:  runReport(summary, runErr),
		Type:  NotificationSuccess,
		Tag:   a.tag,
	}
	if runErr != nil {
		msg.Title = "Image Mirror Failed"
		msg.Type = NotificationFailure
	}

	return a.post(ctx, msg)
}

// runReport formate le corps du message
func runReport(summary *types.RunSummary, runErr error) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s: %d/%d images mirrored in %s",
		utils.ShortenID(summary.RunID), summary.Mirrored, summary.Total, summary.Duration())
	if len(summary.Collisions) > 0 {
		fmt.Fprintf(&b, "\nDisambiguated names: %s", strings.Join(summary.Collisions, ", "))
	}
	if runErr != nil {
		fmt.Fprintf(&b, "\nError: %v", runErr)
	}

	return b.String()
}

func (a *AppriseClient) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("apprise returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	a.logger.Debugf("Notification %q sent", msg.Title)
	return nil
}

// Close libère les connexions inactives
func (a *AppriseClient) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}
