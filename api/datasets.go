package api

import (
	"net/http"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/service/datasets"
	"github.com/gin-gonic/gin"
)

type DatasetHandler struct {
	service datasets.DatasetUseCase
}

func NewDatasetHandler(service datasets.DatasetUseCase) *DatasetHandler {
	return &DatasetHandler{service: service}
}

func (h *DatasetHandler) Register(router *gin.RouterGroup) {
	router.GET("/latest", h.latest)
	router.GET("/:id", h.get)
}

func (h *DatasetHandler) latest(c *gin.Context) {
	ds, err := h.service.Latest(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if ds == nil {
		writeError(c, domain.ErrDatasetUnavailable)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (h *DatasetHandler) get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ds, err := h.service.ByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if ds == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "dataset is expired or unknown"})
		return
	}
	c.JSON(http.StatusOK, ds)
}
