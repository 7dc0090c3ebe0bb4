package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRoute is returned when a route name is not recognized.
var ErrUnknownRoute = errors.New("unknown route")

// Route is a delivery-speed tier. Each route has a fixed whole-day delay.
type Route string

const (
	RouteLocal    Route = "local1d"
	RouteProvince Route = "province3d"
	RouteNation   Route = "nation7d"
)

var routeDays = map[Route]int{
	RouteLocal:    1,
	RouteProvince: 3,
	RouteNation:   7,
}

var routeNames = map[Route]string{
	RouteLocal:    "同城 1 天",
	RouteProvince: "同省 3 天",
	RouteNation:   "跨省 7 天",
}

// Routes lists every route, fastest first.
func Routes() []Route {
	return []Route{RouteLocal, RouteProvince, RouteNation}
}

// ParseRoute resolves a route name.
func ParseRoute(s string) (Route, error) {
	r := Route(s)
	if _, ok := routeDays[r]; !ok {
		return "", fmt.Errorf("%w %q (valid: local1d, province3d, nation7d)", ErrUnknownRoute, s)
	}
	return r, nil
}

// Days is the number of calendar days a letter on r spends in transit.
func (r Route) Days() int {
	return routeDays[r]
}

// DisplayName is the human-readable label of r.
func (r Route) DisplayName() string {
	if n, ok := routeNames[r]; ok {
		return n
	}
	return string(r)
}

// UnlockInstant returns the instant a letter sent at start on route r unlocks.
// Calendar days are added in start's location, so a DST change does not move
// the wall-clock time. The result is never before start.
func UnlockInstant(start time.Time, r Route) time.Time {
	t := start.AddDate(0, 0, r.Days())
	if t.Before(start) {
		return start
	}
	return t
}
