package nmc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/angas/nmcweather-go/hours"
)

// Fetcher runs complete fetch cycles for one station.
type Fetcher struct {
	client      *Client
	stationCode string
	feeds       []ImageFeed
	logger      *slog.Logger
	now         func() time.Time
}

func NewFetcher(client *Client, stationCode string, images []ImageKind) (*Fetcher, error) {
	feeds := make([]ImageFeed, 0, len(images))
	for _, kind := range images {
		feed, ok := FeedByKind(kind)
		if !ok {
			return nil, fmt.Errorf("unknown image kind %q", kind)
		}
		feeds = append(feeds, feed)
	}

	return &Fetcher{
		client:      client,
		stationCode: stationCode,
		feeds:       feeds,
		logger:      client.logger.With(slog.String("station", stationCode)),
		now:         time.Now,
	}, nil
}

func (f *Fetcher) StationCode() string {
	return f.stationCode
}

// fetchWeather returns the decoded rest/weather payload for the station.
func (f *Fetcher) fetchWeather(ctx context.Context) (*weatherData, error) {
	u := f.client.BaseURL()
	u.Path = "/rest/weather"
	u.RawQuery = url.Values{"stationid": {f.stationCode}}.Encode()

	var res weatherResponse
	if err := f.client.getJSON(ctx, u.String(), &res); err != nil {
		return nil, err
	}

	switch {
	case res.Data == nil:
		return nil, fmt.Errorf("%w: response has no data (code %d, msg %q)", ErrParse, res.Code, res.Msg)
	case res.Data.Real == nil:
		return nil, fmt.Errorf("%w: response has no real time observation", ErrParse)
	case res.Data.Predict == nil:
		return nil, fmt.Errorf("%w: response has no forecast", ErrParse)
	case res.Data.Predict.Station.URL == "":
		return nil, fmt.Errorf("%w: forecast has no station page url", ErrParse)
	}

	return res.Data, nil
}

func (f *Fetcher) fetchHourlyMarkup(ctx context.Context, data *weatherData) (string, error) {
	u, err := f.client.Resolve(data.Predict.Station.URL)
	if err != nil {
		return "", fmt.Errorf("%w: station page url %q: %w", ErrParse, data.Predict.Station.URL, err)
	}
	return f.client.getText(ctx, u.String())
}

// Fetch runs one cycle: the weather json, the station page and every
// configured image page, one after the other. Any fetch or parse failure
// aborts the cycle and no snapshot is returned.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	now := f.now()

	data, err := f.fetchWeather(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching weather for station %s: %w", f.stationCode, err)
	}

	markup, err := f.fetchHourlyMarkup(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("fetching hourly forecast for station %s: %w", f.stationCode, err)
	}

	images := make([]Image, 0, len(f.feeds))
	for _, feed := range f.feeds {
		img, ok, err := f.client.FetchImage(ctx, feed, now)
		if err != nil {
			return nil, fmt.Errorf("fetching %s image: %w", feed.Kind, err)
		}
		if ok {
			images = append(images, img)
		}
	}

	b := snapshotBuilder{logger: f.logger, now: now}
	s := &Snapshot{
		Station: StationInfo{
			Code:     f.stationCode,
			Province: data.Real.Station.Province,
			City:     data.Real.Station.City,
			URL:      data.Predict.Station.URL,
		},
		FetchedAt:    now,
		Current:      b.current(data),
		Daily:        b.daily(data),
		Images:       images,
		HourlyMarkup: markup,
	}
	if t, err := hours.ParseMinute(data.Real.PublishTime); err == nil {
		s.PublishedAt = t
	} else {
		f.logger.Debug("unparsable publish time", slog.String("publishTime", data.Real.PublishTime))
	}

	return s, nil
}
