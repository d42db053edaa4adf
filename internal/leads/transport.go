package leads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/showcase-api/internal/resilience"
)

// Transport names reported in receipts and metrics.
const (
	TransportMailAPI    = "mail_api"
	TransportFormSubmit = "formsubmit"
	TransportNetlify    = "netlify"
	TransportMailto     = "mailto"
)

// ErrNoRecipients is returned by transports that have nobody to deliver to.
var ErrNoRecipients = errors.New("leads: no recipients configured")

// Receipt records which transport accepted a lead. Mailto is set when the
// client has to finish delivery by opening a mail link.
type Receipt struct {
	Transport string `json:"transport"`
	Mailto    string `json:"mailto,omitempty"`
}

// Transport delivers a lead.
type Transport interface {
	Name() string
	Send(ctx context.Context, lead Lead) (Receipt, error)
}

// NewHTTPClient returns an instrumented client for relay calls.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// MailAPI posts the lead to the site's own mail relay.
type MailAPI struct {
	URL        string
	Recipients []string
	HTTP       resilience.HTTPClient
}

// Name implements Transport.
func (MailAPI) Name() string { return TransportMailAPI }

// Send implements Transport.
func (m MailAPI) Send(ctx context.Context, lead Lead) (Receipt, error) {
	if len(m.Recipients) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	payload, err := json.Marshal(map[string]any{
		"to":       m.Recipients,
		"subject":  lead.Subject,
		"body":     lead.Body,
		"from":     lead.FromEmail,
		"fromName": lead.FromName,
	})
	if err != nil {
		return Receipt{}, err
	}
	if err := postJSON(ctx, m.HTTP, m.URL, payload); err != nil {
		return Receipt{}, err
	}
	return Receipt{Transport: TransportMailAPI}, nil
}

// FormSubmit posts to a form-to-email service. URL is the ajax endpoint for
// the primary recipient; the rest are copied.
type FormSubmit struct {
	URL  string
	CC   []string
	HTTP resilience.HTTPClient
}

// Name implements Transport.
func (FormSubmit) Name() string { return TransportFormSubmit }

// Send implements Transport.
func (f FormSubmit) Send(ctx context.Context, lead Lead) (Receipt, error) {
	body := map[string]any{
		"_subject":  lead.Subject,
		"_captcha":  "false",
		"_template": "basic",
		"message":   lead.Body,
	}
	if len(f.CC) > 0 {
		body["_cc"] = strings.Join(f.CC, ",")
	}
	for _, field := range lead.Fields {
		if _, taken := body[field.Name]; !taken {
			body[field.Name] = field.Value
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Receipt{}, err
	}
	if err := postJSON(ctx, f.HTTP, f.URL, payload); err != nil {
		return Receipt{}, err
	}
	return Receipt{Transport: TransportFormSubmit}, nil
}

// NetlifyForm posts a url-encoded form to the static host's form handler.
type NetlifyForm struct {
	URL  string
	HTTP resilience.HTTPClient
}

// Name implements Transport.
func (NetlifyForm) Name() string { return TransportNetlify }

// Send implements Transport.
func (n NetlifyForm) Send(ctx context.Context, lead Lead) (Receipt, error) {
	if n.URL == "" {
		return Receipt{}, errors.New("leads: netlify form url not configured")
	}
	values := url.Values{}
	values.Set("form-name", lead.Form.netlifyName())
	for _, field := range lead.Fields {
		values.Set(field.Name, field.Value)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, strings.NewReader(values.Encode()))
	if err != nil {
		return Receipt{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if err := do(ctx, n.HTTP, req); err != nil {
		return Receipt{}, err
	}
	return Receipt{Transport: TransportNetlify}, nil
}

// Mailto never fails while it has recipients: it hands the client a link to
// send the lead from their own mail program.
type Mailto struct {
	Recipients []string
}

// Name implements Transport.
func (Mailto) Name() string { return TransportMailto }

// Send implements Transport.
func (m Mailto) Send(_ context.Context, lead Lead) (Receipt, error) {
	if len(m.Recipients) == 0 {
		return Receipt{}, ErrNoRecipients
	}
	return Receipt{Transport: TransportMailto, Mailto: MailtoLink(m.Recipients, lead.Subject, lead.Body)}, nil
}

// MailtoLink builds a mailto: URL with an encoded subject and body.
func MailtoLink(recipients []string, subject, body string) string {
	q := url.Values{}
	q.Set("subject", subject)
	q.Set("body", body)
	// mail clients expect %20 rather than +
	return "mailto:" + strings.Join(recipients, ",") + "?" + strings.ReplaceAll(q.Encode(), "+", "%20")
}

func postJSON(ctx context.Context, cl resilience.HTTPClient, target string, payload []byte) error {
	if target == "" {
		return errors.New("leads: relay url not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return do(ctx, cl, req)
}

func do(ctx context.Context, cl resilience.HTTPClient, req *http.Request) error {
	resp, err := cl.Do(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("leads: relay responded %s", resp.Status)
	}
	return nil
}
