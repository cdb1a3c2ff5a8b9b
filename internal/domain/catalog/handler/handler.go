package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/FACorreiaa/subscription-finder/internal/domain/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(c *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: c}
}

type entryResponse struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Logo           string  `json:"logo"`
	SuggestedPrice float64 `json:"suggested_price"`
}

// List returns the catalog, optionally filtered by a fuzzy ?q= query.
func (h *CatalogHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	var entries []catalog.Entry
	if q := c.Query("q"); q != "" {
		entries = h.catalog.Search(q, limit)
	} else {
		entries = h.catalog.Entries()
	}

	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryResponse{
			Name:           e.Name,
			Category:       e.Category,
			Logo:           e.Logo,
			SuggestedPrice: e.SuggestedPrice.InexactFloat64(),
		})
	}
	c.JSON(http.StatusOK, out)
}
