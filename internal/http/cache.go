package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/krishi/internal/entities"
)

// maxPayloadBytes bounds raw JSON bodies stored verbatim (weather, preferences).
const maxPayloadBytes = 1 << 20

// CacheController exposes the read-through caches and the small per-user
// collections.
type CacheController struct {
	cache CacheService
}

func NewCacheController(cache CacheService) *CacheController {
	return &CacheController{cache: cache}
}

// --- Prices ---

// ListPrices returns recent prices, or matches for q.
// GET /api/prices?limit=&q=
func (cc *CacheController) ListPrices(c *gin.Context) {
	if query := strings.TrimSpace(c.Query("q")); query != "" {
		list, err := cc.cache.SearchPrices(c.Request.Context(), query)
		if err != nil {
			respondServiceError(c, err, "search prices")
			return
		}
		c.JSON(http.StatusOK, list)
		return
	}

	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	list, err := cc.cache.RecentPrices(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "recent prices")
		return
	}
	c.JSON(http.StatusOK, list)
}

// LookupPrice returns one price by natural key. A missing price is reported
// as stale rather than as 404 so the caller knows to fetch.
// GET /api/prices/lookup?commodity=&market=&district=&state=
func (cc *CacheController) LookupPrice(c *gin.Context) {
	key := entities.PriceKey{
		Commodity: c.Query("commodity"),
		Market:    c.Query("market"),
		District:  c.Query("district"),
		State:     c.Query("state"),
	}
	if key.Commodity == "" || key.Market == "" {
		respondBadRequest(c, "commodity and market are required")
		return
	}

	lookup, err := cc.cache.Price(c.Request.Context(), key)
	if err != nil {
		respondServiceError(c, err, "lookup price")
		return
	}
	c.JSON(http.StatusOK, lookup)
}

// StorePrices caches a batch fetched by the caller.
// PUT /api/prices
func (cc *CacheController) StorePrices(c *gin.Context) {
	var rows []entities.CachedPrice
	if err := c.ShouldBindJSON(&rows); err != nil {
		respondBadRequest(c, "invalid price list: "+err.Error())
		return
	}
	if err := cc.cache.StorePrices(c.Request.Context(), rows); err != nil {
		respondServiceError(c, err, "store prices")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stored": len(rows)})
}

// --- Weather ---

// GetWeather returns cached weather for a location.
// GET /api/weather/:location
func (cc *CacheController) GetWeather(c *gin.Context) {
	lookup, err := cc.cache.Weather(c.Request.Context(), c.Param("location"))
	if err != nil {
		respondServiceError(c, err, "get weather")
		return
	}
	c.JSON(http.StatusOK, lookup)
}

// StoreWeather caches the request body verbatim for a location.
// PUT /api/weather/:location
func (cc *CacheController) StoreWeather(c *gin.Context) {
	payload, ok := readRawJSON(c)
	if !ok {
		return
	}
	if err := cc.cache.StoreWeather(c.Request.Context(), c.Param("location"), payload); err != nil {
		respondServiceError(c, err, "store weather")
		return
	}
	respondSuccess(c, "weather cached")
}

// SweepCaches drops expired prices and weather now.
// POST /api/cache/sweep
func (cc *CacheController) SweepCaches(c *gin.Context) {
	result, err := cc.cache.SweepCaches(c.Request.Context(), time.Now().UTC())
	if err != nil {
		respondServiceError(c, err, "sweep caches")
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- Lessons ---

type progressRequest struct {
	Progress float64  `json:"progress"`
	Score    *float64 `json:"score,omitempty"`
}

// RecordProgress stores lesson progress.
// POST /api/lessons/:id/progress
func (cc *CacheController) RecordProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid progress: "+err.Error())
		return
	}
	lesson, err := cc.cache.RecordProgress(c.Request.Context(), entities.LessonProgress{
		LessonID: c.Param("id"),
		Progress: req.Progress,
		Score:    req.Score,
	})
	if err != nil {
		respondServiceError(c, err, "record progress")
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// GetLesson returns progress for one lesson.
// GET /api/lessons/:id
func (cc *CacheController) GetLesson(c *gin.Context) {
	lesson, err := cc.cache.Lesson(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err, "get lesson")
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// ListLessons returns lessons by last access.
// GET /api/lessons?limit=
func (cc *CacheController) ListLessons(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	lessons, err := cc.cache.Lessons(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "list lessons")
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

// --- Preferences ---

// ListPreferences returns every user preference.
// GET /api/preferences
func (cc *CacheController) ListPreferences(c *gin.Context) {
	prefs, err := cc.cache.Preferences(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list preferences")
		return
	}
	values := make(map[string]json.RawMessage, len(prefs))
	for _, p := range prefs {
		values[p.Key] = json.RawMessage(p.Value)
	}
	c.JSON(http.StatusOK, gin.H{"preferences": values})
}

// GetPreference returns a single preference value.
// GET /api/preferences/:key
func (cc *CacheController) GetPreference(c *gin.Context) {
	var value json.RawMessage
	found, err := cc.cache.Preference(c.Request.Context(), c.Param("key"), &value)
	if err != nil {
		respondServiceError(c, err, "get preference")
		return
	}
	if !found {
		respondNotFound(c, "preference")
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": c.Param("key"), "value": value})
}

// SetPreference stores the request body as the preference value.
// PUT /api/preferences/:key
func (cc *CacheController) SetPreference(c *gin.Context) {
	payload, ok := readRawJSON(c)
	if !ok {
		return
	}
	if err := cc.cache.SetPreference(c.Request.Context(), c.Param("key"), payload); err != nil {
		respondServiceError(c, err, "set preference")
		return
	}
	respondSuccess(c, "preference saved")
}

// --- Generic ---

// RecentRows returns the newest rows of a collection by name.
// GET /api/collections/:collection/recent?limit=
func (cc *CacheController) RecentRows(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	collection := entities.Collection(c.Param("collection"))
	rows, err := cc.cache.Recent(c.Request.Context(), collection, limit)
	if err != nil {
		respondServiceError(c, err, "recent "+string(collection))
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": collection, "rows": rows})
}

func readRawJSON(c *gin.Context) (json.RawMessage, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes+1))
	if err != nil {
		respondBadRequest(c, "failed to read body")
		return nil, false
	}
	if len(body) > maxPayloadBytes {
		respondBadRequest(c, "body too large")
		return nil, false
	}
	if !json.Valid(body) {
		respondBadRequest(c, "body must be valid JSON")
		return nil, false
	}
	return json.RawMessage(body), true
}
