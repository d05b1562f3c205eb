package nmc

import (
	"context"
	"fmt"
	"net/url"
)

type Province struct {
	Code string `json:"code"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Provinces lists the provinces stations are grouped by.
func (c *Client) Provinces(ctx context.Context) ([]Province, error) {
	u, err := c.Resolve("/rest/province/all")
	if err != nil {
		return nil, err
	}

	var res []Province
	if err := c.getJSON(ctx, u.String(), &res); err != nil {
		return nil, fmt.Errorf("fetching provinces: %w", err)
	}
	return res, nil
}

// Stations lists the stations of a province, provinceCode as returned by
// Provinces, e.g. "ABJ".
func (c *Client) Stations(ctx context.Context, provinceCode string) ([]StationInfo, error) {
	u, err := c.Resolve("/rest/province/" + url.PathEscape(provinceCode))
	if err != nil {
		return nil, err
	}

	var res []StationInfo
	if err := c.getJSON(ctx, u.String(), &res); err != nil {
		return nil, fmt.Errorf("fetching stations of province %s: %w", provinceCode, err)
	}
	return res, nil
}
