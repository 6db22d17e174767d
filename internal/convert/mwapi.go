package convert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API renders wiki markup through a live MediaWiki's action=parse endpoint,
// which yields exactly the HTML the wiki itself would serve.
type API struct {
	// Endpoint is the api.php URL, e.g. https://wiki.example.org/api.php.
	Endpoint string
	Client   *http.Client
}

// NewAPI returns an API renderer with a bounded HTTP client.
func NewAPI(endpoint string, timeout time.Duration) *API {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &API{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

type parseResponse struct {
	Parse *struct {
		Text string `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Render posts text for parsing and returns the rendered HTML.
func (a *API) Render(ctx context.Context, text string) (string, error) {
	form := url.Values{
		"action":             {"parse"},
		"format":             {"json"},
		"formatversion":      {"2"},
		"contentmodel":       {"wikitext"},
		"disablelimitreport": {"1"},
		"disableeditsection": {"1"},
		"text":               {text},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("mediawiki api: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := a.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("mediawiki api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mediawiki api: unexpected status %s", resp.Status)
	}
	var body parseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("mediawiki api: decode: %w", err)
	}
	if body.Error != nil {
		return "", fmt.Errorf("mediawiki api: %s: %s", body.Error.Code, body.Error.Info)
	}
	if body.Parse == nil {
		return "", errors.New("mediawiki api: response has no parse result")
	}
	return body.Parse.Text, nil
}
