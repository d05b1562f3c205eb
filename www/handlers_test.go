package www

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/nmc"
	"github.com/angas/nmcweather-go/types/maybe"
)

type queueFetcher struct {
	snaps []*nmc.Snapshot
}

func (f *queueFetcher) Fetch(ctx context.Context) (*nmc.Snapshot, error) {
	if len(f.snaps) == 0 {
		return nil, errors.New("empty queue")
	}
	s := f.snaps[0]
	f.snaps = f.snaps[1:]
	return s, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTemplates(t *testing.T) *TemplateManager {
	t.Helper()
	tm, err := NewTemplateManager(quietLogger(), nil)
	if err != nil {
		t.Fatalf("NewTemplateManager: %v", err)
	}
	return tm
}

func testSnapshot(radarURL string) *nmc.Snapshot {
	today := time.Now().In(time.FixedZone("CST", 8*3600))
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	return &nmc.Snapshot{
		Station:   nmc.StationInfo{Code: "58367", Province: "上海市", City: "徐家汇"},
		FetchedAt: time.Now(),
		Current: nmc.Current{
			Condition:     nmc.Rainy,
			ConditionText: "小雨",
			Temperature:   maybe.Some(18.5),
		},
		Daily: []nmc.DailyForecast{
			{Date: today.AddDate(0, 0, -1), ConditionText: "昨天"},
			{Date: today, Condition: nmc.Cloudy, ConditionText: "多云", TempHigh: maybe.Some(24.0)},
		},
		Images:       []nmc.Image{{Kind: nmc.ImageRadar, URL: radarURL}},
		HourlyMarkup: "<html></html>",
	}
}

func seeded(s *nmc.Snapshot) *coordinator.Coordinator {
	c := coordinator.New(&queueFetcher{})
	if s != nil {
		c.Seed(s)
	}
	return c
}

func TestWeatherHandler(t *testing.T) {
	tm := testTemplates(t)

	t.Run("no data", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWeatherHandler(quietLogger(), seeded(nil), tm, "", func() {})(rec, httptest.NewRequest(http.MethodGet, "/weather", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No weather data yet") {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("snapshot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWeatherHandler(quietLogger(), seeded(testSnapshot("http://image.nmc.cn/r.png")), tm, "", func() {})(rec, httptest.NewRequest(http.MethodGet, "/weather", nil))
		body := rec.Body.String()
		for _, want := range []string{"上海市徐家汇", "18.5 °C", "多云", "/image/radar?u=", "Data provided by www.nmc.cn"} {
			if !strings.Contains(body, want) {
				t.Errorf("body should contain %q", want)
			}
		}
		if strings.Contains(body, "昨天") {
			t.Errorf("days before today should not be rendered")
		}
		if !strings.Contains(body, "<dt>Humidity</dt><dd>- %</dd>") {
			t.Errorf("absent humidity should render as -")
		}
	})

	t.Run("configured name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewWeatherHandler(quietLogger(), seeded(testSnapshot("x")), tm, "Home", func() {})(rec, httptest.NewRequest(http.MethodGet, "/weather", nil))
		body := rec.Body.String()
		if !strings.Contains(body, "<h2>Home</h2>") {
			t.Errorf("configured name not rendered: %q", body)
		}
		if strings.Contains(body, "上海市徐家汇") {
			t.Errorf("configured name should replace the station name")
		}
	})

	t.Run("refresh", func(t *testing.T) {
		called := make(chan struct{})
		rec := httptest.NewRecorder()
		NewWeatherHandler(quietLogger(), seeded(nil), tm, "", func() { close(called) })(rec, httptest.NewRequest(http.MethodPost, "/weather", nil))
		if rec.Code != http.StatusAccepted {
			t.Errorf("expected 202, got %d", rec.Code)
		}
		select {
		case <-called:
		case <-time.After(time.Second):
			t.Errorf("task was not started")
		}
	})
}

func TestSnapshotApiHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewSnapshotApiHandler(quietLogger(), seeded(nil))(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without data, got %d", rec.Code)
	}

	snap := testSnapshot("http://image.nmc.cn/r.png")
	rec = httptest.NewRecorder()
	NewSnapshotApiHandler(quietLogger(), seeded(snap))(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got nmc.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Station.Code != "58367" || got.HourlyMarkup != "" {
		t.Errorf("unexpected snapshot %+v", got)
	}
	if snap.HourlyMarkup == "" {
		t.Errorf("the stored snapshot must not be modified")
	}
}

type countingDownloader struct {
	calls int
}

func (d *countingDownloader) Download(ctx context.Context, u string) ([]byte, string, error) {
	d.calls++
	return []byte(u), "image/png", nil
}

func TestImageHandlerDownloadsOnlyOnNewURL(t *testing.T) {
	fetcher := &queueFetcher{snaps: []*nmc.Snapshot{testSnapshot("http://image.nmc.cn/r2.png")}}
	coord := coordinator.New(fetcher)
	coord.Seed(testSnapshot("http://image.nmc.cn/r1.png"))

	dl := &countingDownloader{}
	mux := http.NewServeMux()
	mux.Handle("GET /image/{kind}", NewImageHandler(quietLogger(), coord, dl))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	for range 2 {
		rec := get("/image/radar")
		if rec.Code != http.StatusOK || rec.Body.String() != "http://image.nmc.cn/r1.png" {
			t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
	}
	if dl.calls != 1 {
		t.Errorf("expected a single download, got %d", dl.calls)
	}

	if err := coord.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	rec := get("/image/radar")
	if rec.Body.String() != "http://image.nmc.cn/r2.png" || rec.Header().Get("Content-Type") != "image/png" {
		t.Errorf("unexpected response %q %q", rec.Body.String(), rec.Header().Get("Content-Type"))
	}
	if dl.calls != 2 {
		t.Errorf("expected a second download after the url changed, got %d", dl.calls)
	}

	if rec := get("/image/precipitation24"); rec.Code != http.StatusNotFound {
		t.Errorf("image not in snapshot expected 404, got %d", rec.Code)
	}
}

type fakeDirectory struct{}

func (fakeDirectory) Provinces(ctx context.Context) ([]nmc.Province, error) {
	return []nmc.Province{{Code: "ASH", Name: "上海市"}}, nil
}

func (fakeDirectory) Stations(ctx context.Context, provinceCode string) ([]nmc.StationInfo, error) {
	if provinceCode != "ASH" {
		return nil, errors.New("unknown province")
	}
	return []nmc.StationInfo{{Code: "58367", Province: "上海市", City: "徐家汇"}}, nil
}

func TestStationsHandler(t *testing.T) {
	tests := []struct {
		query    string
		code     int
		contains string
	}{
		{"", http.StatusOK, `"code":"ASH"`},
		{"?province=ASH", http.StatusOK, `"code":"58367"`},
		{"?province=XXX", http.StatusBadGateway, "unknown province"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			NewStationsHandler(quietLogger(), fakeDirectory{})(rec, httptest.NewRequest(http.MethodGet, "/stations"+tt.query, nil))
			if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.contains) {
				t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestStatusHandler(t *testing.T) {
	coord := seeded(testSnapshot("x"))
	rec := httptest.NewRecorder()
	NewStatusHandler(quietLogger(), coord, testTemplates(t), StatusInfo{Version: "1.2.3", StartedAt: time.Now()})(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	body := rec.Body.String()
	for _, want := range []string{"1.2.3", "上海市徐家汇 58367", "<dd>no</dd>"} {
		if !strings.Contains(body, want) {
			t.Errorf("body should contain %q, got %q", want, body)
		}
	}
}
