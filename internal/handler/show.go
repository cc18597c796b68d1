package handler // handler package contains the show CRUD handlers

import (
    "context"   // context bounds store calls
    "errors"    // errors.Is matches repository sentinels
    "net/http"  // http defines status codes
    "net/url"   // url.Values holds parsed form fields
    "strconv"   // strconv converts path, query and form values to integers
    "strings"   // strings trims numeric input
    "time"      // time sets the store call timeout

    "github.com/labstack/echo/v4" // echo provides the web context
    "github.com/rs/zerolog"       // zerolog logs publish failures

    "github.com/iliyamo/show-tracker/internal/metrics"    // metrics counts mutations
    "github.com/iliyamo/show-tracker/internal/model"      // model defines Show and ShowPatch
    "github.com/iliyamo/show-tracker/internal/queue"      // queue publishes show events
    "github.com/iliyamo/show-tracker/internal/repository" // repository defines the store
)

// Response messages.
const (
    msgShowReturned      = "Show returned"
    msgShowUnchanged     = "Show returned unchanged"
    msgShowDeleted       = "Show deleted"
    msgShowNotFound      = "No show with this id exists"
    msgNoShowMinEps      = "No show with at least this amount of episodes seen exists"
    msgMissingParams     = "Missing required parameters"
    msgEpisodesNotInt    = "episodes_seen must be an integer"
    msgInvalidShowID     = "Invalid show id"
    msgMinEpisodesNotInt = "minEpisodes must be an integer"
    msgInvalidBody       = "invalid request body"
)

const storeTimeout = 5 * time.Second

// ShowHandler serves the /shows routes.
type ShowHandler struct {
    Store  repository.ShowStore // Store holds the show records
    Events queue.Publisher      // Events receives one event per successful mutation
    Logger zerolog.Logger
}

// NewShowHandler constructs a ShowHandler and panics if the store is nil.  A
// nil publisher is replaced by queue.NoopPublisher.
func NewShowHandler(store repository.ShowStore, events queue.Publisher, logger zerolog.Logger) *ShowHandler {
    if store == nil {
        panic("nil store passed to NewShowHandler")
    }
    if events == nil {
        events = queue.NoopPublisher{}
    }
    return &ShowHandler{Store: store, Events: events, Logger: logger}
}

// ListShows handles GET /shows.  With ?minEpisodes=N only shows with at
// least N episodes seen are returned, and an empty selection is a 404.
func (h *ShowHandler) ListShows(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout) // bound the store call
    defer cancel()

    raw, filtered := c.QueryParams()["minEpisodes"] // presence switches on filtering
    var minEpisodes int
    if filtered { // parse the threshold only when it was sent
        n, err := strconv.Atoi(strings.TrimSpace(firstValue(raw)))
        if err != nil { // malformed threshold
            return respond(c, http.StatusBadRequest, msgMinEpisodesNotInt, nil)
        }
        minEpisodes = n
    }

    shows, err := h.Store.List(ctx) // load every show ordered by id
    if err != nil {
        return err // rendered as 500 by the router
    }
    if shows == nil {
        shows = []model.Show{} // encode as [] rather than null
    }
    if !filtered { // no filter: return everything
        return respond(c, http.StatusOK, "", map[string]any{"shows": shows})
    }

    shows = repository.FilterMinEpisodes(shows, minEpisodes) // keep episodes_seen >= minEpisodes
    if len(shows) == 0 { // nothing qualifies
        return respond(c, http.StatusNotFound, msgNoShowMinEps, nil)
    }
    return respond(c, http.StatusOK, "", map[string]any{"shows": shows})
}

// GetShow handles GET /shows/:id.
func (h *ShowHandler) GetShow(c echo.Context) error {
    id, ok := parseShowID(c) // read :id
    if !ok { // not an integer
        return respond(c, http.StatusBadRequest, msgInvalidShowID, nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
    defer cancel()

    show, err := h.Store.GetByID(ctx, id) // look the show up
    if errors.Is(err, repository.ErrShowNotFound) { // unknown id
        return respond(c, http.StatusNotFound, msgShowNotFound, nil)
    }
    if err != nil { // storage failure, rendered as 500
        return err
    }
    return respond(c, http.StatusOK, msgShowReturned, show.ToMap()) // the record itself is the result
}

// CreateShow handles POST /shows.  Both name and episodes_seen form fields
// must be present; presence, not content, is what is checked for name.
func (h *ShowHandler) CreateShow(c echo.Context) error {
    form, err := bodyForm(c) // body fields only, never the query string
    if err != nil { // unparsable body
        return respond(c, http.StatusBadRequest, msgInvalidBody, nil)
    }
    name, hasName := formField(form, "name")                     // required
    rawEpisodes, hasEpisodes := formField(form, "episodes_seen") // required
    if !hasName || !hasEpisodes { // both must be present
        return respond(c, http.StatusUnprocessableEntity, msgMissingParams, nil)
    }
    episodes, err := strconv.Atoi(strings.TrimSpace(rawEpisodes)) // coerce to int
    if err != nil {
        return respond(c, http.StatusUnprocessableEntity, msgEpisodesNotInt, nil)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
    defer cancel()
    show, err := h.Store.Create(ctx, model.Show{Name: name, EpisodesSeen: episodes}) // store assigns the id
    if err != nil {
        return err
    }
    metrics.ShowMutationsTotal.WithLabelValues("create").Inc() // count the mutation
    h.publish(c, queue.ShowCreated, show)                      // announce it
    return respond(c, http.StatusCreated, "", show.ToMap())
}

// UpdateShow handles PUT /shows/:id.  Only the supplied form fields are
// changed; with neither field the current record is returned as is.
func (h *ShowHandler) UpdateShow(c echo.Context) error {
    id, ok := parseShowID(c) // read :id
    if !ok {
        return respond(c, http.StatusBadRequest, msgInvalidShowID, nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
    defer cancel()

    current, err := h.Store.GetByID(ctx, id) // unknown id wins over any body problem
    if errors.Is(err, repository.ErrShowNotFound) {
        return respond(c, http.StatusNotFound, msgShowNotFound, nil)
    }
    if err != nil {
        return err
    }

    form, err := bodyForm(c) // body fields only, never the query string
    if err != nil {
        return respond(c, http.StatusBadRequest, msgInvalidBody, nil)
    }
    var patch model.ShowPatch // nil fields stay untouched
    if name, ok := formField(form, "name"); ok { // optional new name
        patch.Name = &name
    }
    if raw, ok := formField(form, "episodes_seen"); ok { // optional new count
        n, err := strconv.Atoi(strings.TrimSpace(raw))
        if err != nil {
            return respond(c, http.StatusUnprocessableEntity, msgEpisodesNotInt, nil)
        }
        patch.EpisodesSeen = &n
    }
    if patch.Empty() { // nothing to change
        return respond(c, http.StatusOK, msgShowUnchanged, current.ToMap())
    }

    updated, err := h.Store.UpdateByID(ctx, id, patch) // merge supplied fields
    if errors.Is(err, repository.ErrShowNotFound) { // deleted concurrently
        return respond(c, http.StatusNotFound, msgShowNotFound, nil)
    }
    if err != nil {
        return err
    }
    metrics.ShowMutationsTotal.WithLabelValues("update").Inc() // count the mutation
    h.publish(c, queue.ShowUpdated, updated)                   // announce the new state
    return respond(c, http.StatusOK, "", updated.ToMap())
}

// DeleteShow handles DELETE /shows/:id.
func (h *ShowHandler) DeleteShow(c echo.Context) error {
    id, ok := parseShowID(c) // read :id
    if !ok {
        return respond(c, http.StatusBadRequest, msgInvalidShowID, nil)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), storeTimeout)
    defer cancel()

    show, err := h.Store.GetByID(ctx, id) // keep the record for the event
    if errors.Is(err, repository.ErrShowNotFound) { // unknown id
        return respond(c, http.StatusNotFound, msgShowNotFound, nil)
    }
    if err != nil {
        return err
    }
    if err := h.Store.DeleteByID(ctx, id); err != nil { // remove it
        if errors.Is(err, repository.ErrShowNotFound) { // deleted concurrently
            return respond(c, http.StatusNotFound, msgShowNotFound, nil)
        }
        return err
    }
    metrics.ShowMutationsTotal.WithLabelValues("delete").Inc() // count the mutation
    h.publish(c, queue.ShowDeleted, show)                      // announce the last known state
    return respond(c, http.StatusOK, msgShowDeleted, nil)      // no payload
}

// publish hands the event to the broker.  Failures are logged only; the
// mutation has already happened.
func (h *ShowHandler) publish(c echo.Context, eventType string, show model.Show) {
    ctx := context.WithoutCancel(c.Request().Context()) // a client disconnect must not drop the event
    if err := h.Events.Publish(ctx, queue.NewShowEvent(eventType, show)); err != nil {
        h.Logger.Warn().Err(err).Str("type", eventType).Int64("show_id", show.ID).Msg("publish show event")
    }
}

// parseShowID reads the :id path parameter.
func parseShowID(c echo.Context) (int64, bool) {
    id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
    if err != nil {
        return 0, false
    }
    return id, true
}

// bodyForm returns the fields sent in the request body only.  echo's
// FormParams merges the URL query into the result, so the parsed PostForm
// (which also holds multipart values) is read instead.
func bodyForm(c echo.Context) (url.Values, error) {
    if _, err := c.FormParams(); err != nil { // parses url-encoded and multipart bodies
        return nil, err
    }
    if c.Request().PostForm == nil { // nothing parsed, e.g. GET-style request without body
        return url.Values{}, nil
    }
    return c.Request().PostForm, nil
}

// formField returns the first value of key and whether the key was sent at
// all.  An empty value still counts as present.
func formField(form url.Values, key string) (string, bool) {
    vals, ok := form[key] // presence check
    if !ok {
        return "", false
    }
    return firstValue(vals), true // first value wins
}

func firstValue(vals []string) string {
    if len(vals) == 0 {
        return ""
    }
    return vals[0]
}
