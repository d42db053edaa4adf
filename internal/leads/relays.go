package leads

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/showcase-api/internal/resilience"
)

// Relays configures the delivery chain.
type Relays struct {
	Recipients    []string
	MailAPIURL    string
	FormSubmitURL string
	NetlifyURL    string
	Timeout       time.Duration
}

// Transports builds the transports in fallback order, each behind its own
// breaker and making a single attempt. Relays without a URL are skipped.
// The mailto link is only useful to an interactive client.
func (r Relays) Transports(client *http.Client, breakers *resilience.Breakers, logger zerolog.Logger, withMailto bool) []Transport {
	if client == nil {
		client = NewHTTPClient(r.Timeout)
	}
	httpFor := func(target string) resilience.HTTPClient {
		return resilience.HTTPClient{
			Client:      client,
			Breaker:     breakers.For(target),
			Target:      target,
			Logger:      &logger,
			MaxAttempts: 1,
			Timeout:     r.Timeout,
		}
	}
	var out []Transport
	if r.MailAPIURL != "" {
		out = append(out, MailAPI{URL: r.MailAPIURL, Recipients: r.Recipients, HTTP: httpFor(TransportMailAPI)})
	}
	if r.FormSubmitURL != "" {
		var cc []string
		if len(r.Recipients) > 1 {
			cc = r.Recipients[1:]
		}
		out = append(out, FormSubmit{URL: r.FormSubmitURL, CC: cc, HTTP: httpFor(TransportFormSubmit)})
	}
	if r.NetlifyURL != "" {
		out = append(out, NetlifyForm{URL: r.NetlifyURL, HTTP: httpFor(TransportNetlify)})
	}
	if withMailto {
		out = append(out, Mailto{Recipients: r.Recipients})
	}
	return out
}
