package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/frankdevcode/lp2-taller3/internal/weather"
)

// thingSpeakFields is the number of data fields a ThingSpeak channel can carry.
const thingSpeakFields = 8

// ThingSpeakConfig configures the ThingSpeak channel feed provider.
type ThingSpeakConfig struct {
	BaseURL    string // e.g. https://api.thingspeak.com
	ReadAPIKey string // only needed for private channels
	Results    int    // entries requested per fetch
	Backoff    BackoffConfig
}

// ThingSpeakProvider implements the weather.Provider interface for ThingSpeak channels.
type ThingSpeakProvider struct {
	name    string
	cfg     ThingSpeakConfig
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func NewThingSpeakProvider(client *http.Client, cfg ThingSpeakConfig, logger *slog.Logger) *ThingSpeakProvider {
	if cfg.Backoff == (BackoffConfig{}) {
		cfg.Backoff = DefaultBackoff
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &ThingSpeakProvider{
		name: "thingspeak",
		cfg:  cfg,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: cfg.Backoff,
			Logger:  logger,
		},
		circuit: newCircuitBreaker("thingspeak"),
	}
}

func (p *ThingSpeakProvider) Name() string {
	return p.name
}

// Fetch downloads the latest entries of a channel as a raw, uncleaned feed.
func (p *ThingSpeakProvider) Fetch(ctx context.Context, stationID string) (weather.FeedReading, error) {
	if _, err := strconv.ParseUint(stationID, 10, 64); err != nil {
		return weather.FeedReading{}, fmt.Errorf("invalid thingspeak channel id %q", stationID)
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		if p.cfg.Results > 0 {
			values.Set("results", strconv.Itoa(p.cfg.Results))
		}
		if p.cfg.ReadAPIKey != "" {
			values.Set("api_key", p.cfg.ReadAPIKey)
		}

		u := fmt.Sprintf("%s/channels/%s/feeds.json", p.cfg.BaseURL, url.PathEscape(stationID))
		if len(values) > 0 {
			u += "?" + values.Encode()
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.FeedReading{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Channel map[string]any   `json:"channel"`
		Feeds   []map[string]any `json:"feeds"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.FeedReading{}, fmt.Errorf("decode thingspeak feed: %w", err)
	}
	if payload.Channel == nil {
		return weather.FeedReading{}, fmt.Errorf("thingspeak channel %s not available", stationID)
	}

	reading := weather.FeedReading{
		Station: channelStation(stationID, payload.Channel),
		Rows:    make([]weather.FeedRow, 0, len(payload.Feeds)),
	}
	for i := 1; i <= thingSpeakFields; i++ {
		key := "field" + strconv.Itoa(i)
		if label, ok := cellText(payload.Channel[key]); ok {
			reading.Fields = append(reading.Fields, weather.FeedField{Key: key, Label: label})
		}
	}

	for _, entry := range payload.Feeds {
		row := weather.FeedRow{Values: make(map[string]string, len(reading.Fields))}
		row.CreatedAt, _ = cellText(entry["created_at"])
		for _, f := range reading.Fields {
			if v, ok := cellText(entry[f.Key]); ok {
				row.Values[f.Key] = v
			}
		}
		reading.Rows = append(reading.Rows, row)
	}
	return reading, nil
}

func channelStation(id string, channel map[string]any) weather.Station {
	st := weather.Station{ID: id}
	st.Name, _ = cellText(channel["name"])
	st.Description, _ = cellText(channel["description"])
	if lat, ok := cellText(channel["latitude"]); ok {
		st.Latitude, _ = strconv.ParseFloat(lat, 64)
	}
	if lon, ok := cellText(channel["longitude"]); ok {
		st.Longitude, _ = strconv.ParseFloat(lon, 64)
	}
	return st
}

// cellText renders a decoded JSON cell as text. Null and empty cells report false.
func cellText(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}
