package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/villa-web/internal/middleware"
	"github.com/iliyamo/villa-web/internal/model"
	"github.com/iliyamo/villa-web/internal/service"
	"github.com/iliyamo/villa-web/internal/session"
)

// PublicHandler serves listing reads and the search box.  None of these
// need a signed-in user.
type PublicHandler struct {
	Villas   *service.VillaService
	Base     context.Context // outlives requests; debounced searches run on it
	Debounce time.Duration
}

func NewPublicHandler(base context.Context, villas *service.VillaService, debounce time.Duration) *PublicHandler {
	return &PublicHandler{Villas: villas, Base: base, Debounce: debounce}
}

const searcherKey = "searcher"

// searcher returns the session's search box, creating it on first use.
func (h *PublicHandler) searcher(c echo.Context) *service.Searcher {
	s := middleware.SessionFrom(c)
	return s.Attach(searcherKey, func() session.Closer {
		return service.NewSearcher(h.Base, h.Villas, s.Store, h.Debounce)
	}).(*service.Searcher)
}

// queryFrom reads ?location=&guests=&date=.  A non-numeric guests value is
// ignored.
func queryFrom(c echo.Context) model.SearchQuery {
	q := model.SearchQuery{
		Location: strings.TrimSpace(c.QueryParam("location")),
		Date:     strings.TrimSpace(c.QueryParam("date")),
	}
	if g, err := strconv.Atoi(c.QueryParam("guests")); err == nil {
		q.Guests = model.Guests(g)
	}
	return q
}

// ListVillas: GET /api/villas
func (h *PublicHandler) ListVillas(c echo.Context) error {
	villas, err := h.Villas.Search(c.Request().Context(), middleware.StoreFrom(c), queryFrom(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"villas": nonNil(villas)})
}

// AISearch: GET /api/villas/ai-search?query=
func (h *PublicHandler) AISearch(c echo.Context) error {
	villas, err := h.Villas.AISearch(c.Request().Context(), middleware.StoreFrom(c), c.QueryParam("query"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"villas": nonNil(villas)})
}

// GetVilla: GET /api/villas/:id
func (h *PublicHandler) GetVilla(c echo.Context) error {
	v, err := h.Villas.Get(c.Request().Context(), middleware.StoreFrom(c), c.Param("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, villaDetail(v))
}

func villaDetail(v *model.Villa) echo.Map {
	days := service.BlockedDays(v)
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(time.DateOnly)
	}
	return echo.Map{"villa": v, "blockedDays": out}
}

// SearchInput: POST /api/search/input records what is typed.  The search
// itself fires once typing pauses; poll /api/search/results.
func (h *PublicHandler) SearchInput(c echo.Context) error {
	var q model.SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	s := h.searcher(c)
	s.Input(q)
	return c.JSON(http.StatusAccepted, echo.Map{"pending": s.Pending()})
}

// Search: POST /api/search submits the form right away.
func (h *PublicHandler) Search(c echo.Context) error {
	var q model.SearchQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	villas, err := h.searcher(c).Submit(c.Request().Context(), q)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"villas": nonNil(villas)})
}

// SearchResults: GET /api/search/results
func (h *PublicHandler) SearchResults(c echo.Context) error {
	v := middleware.StoreFrom(c).State().Villas
	return c.JSON(http.StatusOK, echo.Map{
		"villas":  nonNil(v.Villas),
		"query":   v.Query,
		"loading": v.Loading,
		"error":   v.Error,
		"pending": h.searcher(c).Pending(),
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
