package nmc

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/angas/nmcweather-go/hours"
	"github.com/angas/nmcweather-go/slice"
	"golang.org/x/net/html"
)

type ImageKind string

const (
	ImageRadar             ImageKind = "radar"
	ImagePrecipitation24   ImageKind = "precipitation24"
	ImageMaxTemperature24  ImageKind = "max_temperature24"
	ImageTemperatureHourly ImageKind = "temperature_hourly"
)

// ImageFeed describes one of the map products published as a web page
// holding a single <img id="imgpath">.
type ImageFeed struct {
	Kind ImageKind
	Name string
	Path string
}

var ImageFeeds = []ImageFeed{
	{ImageRadar, "Radar", "/publish/radar/chinaall.html"},
	{ImagePrecipitation24, "24h Precipitation", "/publish/precipitation/1-day.html"},
	{ImageMaxTemperature24, "24h Max Temperature", "/publish/temperature/hight/24hour.html"},
	{ImageTemperatureHourly, "Temperature Hourly", "/publish/observations/hourly-temperature.html"},
}

func FeedByKind(kind ImageKind) (ImageFeed, bool) {
	return slice.Find(ImageFeeds, func(f ImageFeed) bool { return f.Kind == kind })
}

type Image struct {
	Kind      ImageKind `json:"kind"`
	URL       string    `json:"url"`
	UpdatedAt time.Time `json:"updated_at"`
}

var imageTimeRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})\s+(\d{1,2}):(\d{2})$`)

// ParseImagePage finds the image reference on a product page. The src is
// resolved against pageURL and data-time ("MM/DD HH:MM", China time) becomes
// the update time.
//
// data-time carries no year, the current year is always assumed. Shortly
// after new year a December image is therefore dated almost a year ahead.
//
// ok is false when the page has no usable image. A missing or malformed
// data-time only leaves UpdatedAt zero.
func ParseImagePage(markup string, pageURL *url.URL, now time.Time) (img Image, ok bool, err error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return Image{}, false, fmt.Errorf("%w: image page: %w", ErrParse, err)
	}

	sel := goquery.NewDocumentFromNode(root).Find("img#imgpath").First()
	src, exists := sel.Attr("src")
	if !exists || strings.TrimSpace(src) == "" {
		return Image{}, false, nil
	}

	u, err := resolve(pageURL, src)
	if err != nil {
		return Image{}, false, nil
	}
	img.URL = u.String()

	if dt, exists := sel.Attr("data-time"); exists {
		img.UpdatedAt, _ = parseImageTime(dt, now)
	}

	return img, true, nil
}

func parseImageTime(s string, now time.Time) (time.Time, bool) {
	m := imageTimeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return time.Time{}, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	hh, _ := strconv.Atoi(m[3])
	mm, _ := strconv.Atoi(m[4])

	year := hours.InService(now).Year()
	return time.Date(year, time.Month(month), day, hh, mm, 0, 0, hours.Service()), true
}

// FetchImage fetches a product page and returns the image it references.
func (c *Client) FetchImage(ctx context.Context, feed ImageFeed, now time.Time) (Image, bool, error) {
	pageURL, err := c.Resolve(feed.Path)
	if err != nil {
		return Image{}, false, fmt.Errorf("%w: image page url %q: %w", ErrFetch, feed.Path, err)
	}

	markup, err := c.getText(ctx, pageURL.String())
	if err != nil {
		return Image{}, false, err
	}

	img, ok, err := ParseImagePage(markup, pageURL, now)
	if err != nil {
		return Image{}, false, err
	}
	if !ok {
		c.logger.Warn("no image found on page", slog.String("kind", string(feed.Kind)), slog.String("url", pageURL.String()))
		return Image{}, false, nil
	}
	if img.UpdatedAt.IsZero() {
		c.logger.Warn("image without a usable data-time", slog.String("kind", string(feed.Kind)), slog.String("url", img.URL))
	}

	img.Kind = feed.Kind
	return img, true, nil
}
