package api

import (
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/service/search"
	"github.com/gin-gonic/gin"
)

type SearchHandler struct {
	service search.SearchUseCase
}

func NewSearchHandler(service search.SearchUseCase) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Register(router *gin.RouterGroup) {
	router.GET("/search", h.search)
}

// search answers GET /search?start=London&end=Paris.
func (h *SearchHandler) search(c *gin.Context) {
	res, err := h.service.Search(c.Request.Context(), c.Query("start"), c.Query("end"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
