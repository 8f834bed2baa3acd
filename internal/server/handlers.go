package server

import (
	"errors"

	"github.com/kataras/iris/v12"

	"github.com/autobrr/go-psindex/internal/psindex"
)

// Handlers serves queries against one loaded index. The index is never
// modified after load so handlers run without locking.
type Handlers struct {
	searcher  *psindex.Searcher
	maxFrames int
}

func NewHandlers(searcher *psindex.Searcher, maxFrames int) *Handlers {
	if maxFrames <= 0 {
		maxFrames = defaultMaxFrames
	}
	return &Handlers{searcher: searcher, maxFrames: maxFrames}
}

// GetIndex returns the index header.
// GET /api/v1/index
func (h *Handlers) GetIndex(ctx iris.Context) {
	ctx.JSON(psindex.Summarize(h.searcher.Index()))
}

// Search looks up one frame.
// GET /api/v1/search?mode=pts&value=90000
func (h *Handlers) Search(ctx iris.Context) {
	mode, err := psindex.ParseMode(ctx.URLParam("mode"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	key, err := psindex.ParseKey(mode, ctx.URLParam("value"))
	if err != nil {
		badRequest(ctx, err)
		return
	}
	res, err := h.searcher.Search(mode, key)
	if err != nil {
		badRequest(ctx, err)
		return
	}
	view := h.searcher.View(mode, key, res)
	if !res.Found {
		ctx.StatusCode(iris.StatusNotFound)
	}
	ctx.JSON(view)
}

// GetFrames pages through the records in PTS order.
// GET /api/v1/frames?offset=0&limit=100
func (h *Handlers) GetFrames(ctx iris.Context) {
	offset := ctx.URLParamIntDefault("offset", 0)
	limit := ctx.URLParamIntDefault("limit", 100)
	if offset < 0 {
		badRequest(ctx, errors.New("offset must not be negative"))
		return
	}
	if limit <= 0 || limit > h.maxFrames {
		limit = h.maxFrames
	}

	idx := h.searcher.Index()
	total := idx.Len()
	start := min(offset, total)
	end := min(start+limit, total)
	frames := make([]psindex.FrameView, 0, end-start)
	for i := start; i < end; i++ {
		frames = append(frames, psindex.NewFrameView(i, idx.Records[i]))
	}
	ctx.JSON(iris.Map{
		"total":  total,
		"offset": start,
		"limit":  limit,
		"frames": frames,
	})
}

func badRequest(ctx iris.Context, err error) {
	ctx.StatusCode(iris.StatusBadRequest)
	ctx.JSON(iris.Map{"error": err.Error()})
}

func RegisterRoutes(app *iris.Application, h *Handlers) {
	v1 := app.Party("/api/v1")
	{
		v1.Get("/index", h.GetIndex)
		v1.Get("/search", h.Search)
		v1.Get("/frames", h.GetFrames)
	}
}
