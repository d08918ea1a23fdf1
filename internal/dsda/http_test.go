package dsda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/dsda-bot/internal/mapid"
)

const (
	homeHTML = `<html><body><h1>DSDA</h1>
<p>Last update: <time datetime="2026-10-17T20:00:00Z">Oct 17</time></p>
</body></html>`

	playersHTML = `<html><body><table><tbody>
<tr><td><a href="/players/4shockblast">4shockblast</a></td></tr>
<tr><td><a href="/players/xit_vono">Xit Vono</a></td></tr>
</tbody></table></body></html>`

	wadsHTML = `<html><body><table><tbody>
<tr><td><a href="/wads/scythe">Scythe</a></td></tr>
<tr><td><a href="/wads/doom2">Doom II</a></td></tr>
<tr><td><a href="/wads/hr">Hell Revealed</a></td></tr>
</tbody></table></body></html>`

	scytheHTML = `<html><body><table><tbody>
<tr><td rowspan="3">Map 01</td><td>UV Speed</td><td>Xit Vono</td><td>PrBoom+</td><td></td><td><a href="/files/demos/sc01-009.zip">0:09.14</a></td></tr>
<tr><td>UV Max</td><td>4shockblast</td><td>PrBoom+</td><td></td><td><a href="/files/demos/sc01-021.zip">0:21.40</a></td></tr>
<tr><td>UV Speed</td><td>4shockblast</td><td>PrBoom+</td><td></td><td><a href="/files/demos/sc01-010.zip">0:10.03</a></td></tr>
<tr><td>Map 07</td><td>UV Speed</td><td>4shockblast, Xit Vono</td><td>PrBoom+</td><td>co-op</td><td><a href="/files/demos/sc07-030.zip">0:30.00</a></td></tr>
<tr><td>E1M1</td><td>UV Speed</td><td>Xit Vono</td><td>PrBoom+</td><td></td><td><a href="/files/demos/e1m1.zip">1:00.00</a></td></tr>
<tr><td>Map 08</td><td>UV Speed</td><td>4shockblast</td><td>PrBoom+</td><td></td><td>-</td></tr>
</tbody></table></body></html>`

	placeholderFirstHTML = `<html><body><table><tbody>
<tr><td rowspan="2">Map 01</td><td>UV Speed</td><td>Xit Vono</td><td>PrBoom+</td><td></td><td>-</td></tr>
<tr><td>UV Speed</td><td>4shockblast</td><td>PrBoom+</td><td></td><td><a href="/files/demos/hr01.zip">0:45.20</a></td></tr>
</tbody></table></body></html>`

	shockHTML = `<html><body><table><tbody>
<tr><td rowspan="2">Scythe</td><td>Map 01</td><td>UV Max</td><td>PrBoom+</td><td></td><td>0:21.40</td></tr>
<tr><td>Map 01</td><td>UV Speed</td><td>PrBoom+</td><td></td><td>0:10.03</td></tr>
<tr><td>Doom II</td><td>Map 01</td><td>UV Speed</td><td>PrBoom+</td><td>TAS</td><td>0:05.00</td></tr>
</tbody></table></body></html>`

	emptyPlayerHTML = `<html><body><table><tbody></tbody></table></body></html>`
)

type fixtureServer struct {
	*httptest.Server
	hits     atomic.Int64
	homeHits atomic.Int64
}

func newFixtureServer(t *testing.T) *fixtureServer {
	t.Helper()
	fs := &fixtureServer{}
	pages := map[string]string{
		"/players":             playersHTML,
		"/wads":                wadsHTML,
		"/wads/scythe":         scytheHTML,
		"/wads/doom2":          emptyPlayerHTML,
		"/wads/hr":             placeholderFirstHTML,
		"/players/4shockblast": shockHTML,
		"/players/xit_vono":    emptyPlayerHTML,
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.hits.Add(1)
		if r.URL.Path == "/" {
			fs.homeHits.Add(1)
			_, _ = w.Write([]byte(homeHTML))
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(fs.Close)
	return fs
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	c, err := NewHTTPClient(Config{BaseURL: baseURL, Rate: 100, Logger: log})
	require.NoError(t, err)
	return c
}

func TestNewHTTPClientRejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient(Config{BaseURL: "not a url"})
	assert.Error(t, err)
}

func TestGetRecord(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	t.Run("first map picks fastest in category", func(t *testing.T) {
		rec, msg := c.GetRecord(ctx, "scythe", "uv speed", mapid.ID{})
		require.NotNil(t, rec, msg)
		assert.Equal(t, "0:09.14", rec.Time)
		assert.Equal(t, "Xit Vono", rec.Player)
		assert.Equal(t, srv.URL+"/files/demos/sc01-009.zip", rec.DemoURL)
	})

	t.Run("explicit map", func(t *testing.T) {
		id, err := mapid.Parse("7")
		require.NoError(t, err)
		rec, msg := c.GetRecord(ctx, "Scythe", "UV Speed", id)
		require.NotNil(t, rec, msg)
		assert.Equal(t, "0:30.00", rec.Time)
		assert.Equal(t, "4shockblast, Xit Vono", rec.Player)
	})

	t.Run("episode map", func(t *testing.T) {
		id, err := mapid.Parse("e1m1")
		require.NoError(t, err)
		rec, _ := c.GetRecord(ctx, "scythe", "UV Speed", id)
		require.NotNil(t, rec)
		assert.Equal(t, "1:00.00", rec.Time)
	})

	t.Run("missing category", func(t *testing.T) {
		rec, msg := c.GetRecord(ctx, "scythe", "NM 100S", mapid.ID{})
		assert.Nil(t, rec)
		assert.Equal(t, "No NM 100S record found for Scythe on Map 01.", msg)
	})

	t.Run("unknown wad", func(t *testing.T) {
		rec, msg := c.GetRecord(ctx, "nope", "UV Speed", mapid.ID{})
		assert.Nil(t, rec)
		assert.Equal(t, "Wad nope not found.", msg)
	})
}

func TestDemoPagesAreCached(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	_, _ = c.GetWadStats(ctx, "scythe")
	first := srv.hits.Load()
	_, _ = c.GetWadStats(ctx, "scythe")
	assert.Equal(t, first, srv.hits.Load())

	require.NoError(t, c.SyncFull(ctx))
	_, _ = c.GetWadStats(ctx, "scythe")
	assert.Greater(t, srv.hits.Load(), first)
}

func TestGetPlayerStats(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)

	stats, msg := c.GetPlayerStats(context.Background(), "4SHOCK")
	require.NotNil(t, stats, msg)
	assert.Equal(t, "4shockblast", stats.PlayerName)
	assert.Equal(t, 3, stats.TotalRunCount)
	assert.Equal(t, "0:36.43", stats.TotalTime)
	assert.Equal(t, "0:21.40", stats.LongestTime)
	assert.Equal(t, "0:12.14", stats.AverageTime)
	assert.Equal(t, 1, stats.TASRunCount)
	assert.Equal(t, 2, stats.NumDistinctWads)
	assert.Equal(t, "1.50", stats.AverageRunsPerWad)
	assert.Equal(t, NameCount{Name: "Scythe", Count: 2}, stats.MaxWad)
	assert.Equal(t, NameCount{Name: "UV Speed", Count: 2}, stats.MaxCategory)
}

func TestGetPlayerStatsWithoutDemos(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)

	stats, _ := c.GetPlayerStats(context.Background(), "xit vono")
	require.NotNil(t, stats)
	assert.Equal(t, 0, stats.TotalRunCount)
	assert.Equal(t, 0, stats.MaxWad.Count)
	assert.Equal(t, "", stats.MaxWad.Name)
	assert.Equal(t, "0.00", stats.AverageRunsPerWad)
}

func TestGetWadStats(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)

	stats, msg := c.GetWadStats(context.Background(), "scythe")
	require.NotNil(t, stats, msg)
	assert.Equal(t, "Scythe", stats.WadName)
	assert.Equal(t, 5, stats.TotalRunCount)
	assert.Equal(t, 2, stats.NumDistinctPlayers)
	assert.Equal(t, NameCount{Name: "Xit Vono", Count: 3}, stats.MaxPlayer)
}

func TestRowsWithoutTimeAreSkipped(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	stats, msg := c.GetWadStats(ctx, "hell revealed")
	require.NotNil(t, stats, msg)
	assert.Equal(t, 1, stats.TotalRunCount)
	assert.Equal(t, NameCount{Name: "4shockblast", Count: 1}, stats.MaxPlayer)

	rec, msg := c.GetRecord(ctx, "hell revealed", "UV Speed", mapid.ID{})
	require.NotNil(t, rec, msg)
	assert.Equal(t, "0:45.20", rec.Time)
	assert.Equal(t, "4shockblast", rec.Player)

	id, err := mapid.Parse("8")
	require.NoError(t, err)
	rec, msg = c.GetRecord(ctx, "scythe", "UV Speed", id)
	assert.Nil(t, rec)
	assert.Equal(t, "No UV Speed record found for Scythe on MAP08.", msg)
}

func TestRandomPages(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	p, msg := c.RandomPlayerPage(ctx)
	require.NotNil(t, p, msg)
	assert.Contains(t, []string{"4shockblast", "Xit Vono"}, p.Name)
	assert.Contains(t, p.URL, srv.URL+"/players/")

	w, msg := c.RandomWadPage(ctx)
	require.NotNil(t, w, msg)
	assert.Contains(t, w.URL, srv.URL+"/wads/")
}

func TestLastUpdateIsNotCached(t *testing.T) {
	srv := newFixtureServer(t)
	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	marker, err := c.LastUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17T20:00:00Z", marker)

	_, err = c.LastUpdate(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), srv.homeHits.Load())
}

func TestUnavailableUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)
	c.retry.InitialDelay = 0
	c.retry.MaxAttempts = 1

	stats, msg := c.GetWadStats(context.Background(), "scythe")
	assert.Nil(t, stats)
	assert.Equal(t, unavailableMessage, msg)

	_, err := c.LastUpdate(context.Background())
	assert.Error(t, err)
	assert.Error(t, c.SyncFull(context.Background()))
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	for _, code := range []int{http.StatusForbidden, http.StatusGone} {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.WriteHeader(code)
		}))
		c := newTestClient(t, srv.URL)
		c.retry.InitialDelay = 0
		c.retry.MaxAttempts = 3

		_, err := c.LastUpdate(context.Background())
		srv.Close()

		require.Error(t, err, "status %d", code)
		assert.Equal(t, int64(1), hits.Load(), "status %d", code)
	}
}

func TestServerErrorsAreRetried(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(homeHTML))
	}))
	t.Cleanup(srv.Close)
	c := newTestClient(t, srv.URL)
	c.retry.InitialDelay = 0
	c.retry.MaxAttempts = 3

	marker, err := c.LastUpdate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17T20:00:00Z", marker)
	assert.Equal(t, int64(2), hits.Load())
}
