package httpserver

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-catalog/internal/catalog"
)

const defaultSimilarLimit = 4

var validSorts = map[string]bool{
	"":                    true,
	catalog.SortDefault:   true,
	catalog.SortPriceAsc:  true,
	catalog.SortPriceDesc: true,
	catalog.SortRating:    true,
}

func (h *handlers) listProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
		return
	}
	sortBy := strings.TrimSpace(c.Query("sort"))
	if !validSorts[sortBy] {
		writeError(c, http.StatusBadRequest, "invalid_sort", "unsupported sort", gin.H{
			"allowed": []string{catalog.SortDefault, catalog.SortPriceAsc, catalog.SortPriceDesc, catalog.SortRating},
		})
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), catalog.ListOptions{
		Limit:    limit,
		Category: strings.TrimSpace(c.Query("category")),
		Sort:     sortBy,
	})
	if err != nil {
		h.logger.Printf("list products: %v", err)
		products = nil
	}
	total := len(products)
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	c.JSON(http.StatusOK, newProductList(products, limit, total))
}

func (h *handlers) searchProducts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		writeError(c, http.StatusBadRequest, "missing_query", "q is required", nil)
		return
	}
	products, err := h.catalog.SearchProducts(c.Request.Context(), q)
	if err != nil {
		h.logger.Printf("search products q=%q: %v", q, err)
		products = nil
	}
	c.JSON(http.StatusOK, newProductList(products, 0, len(products)))
}

func (h *handlers) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p := h.catalog.FetchProductByID(c.Request.Context(), id)
	if p == nil {
		writeError(c, http.StatusNotFound, "not_found", "product "+strconv.Itoa(id)+" not found", nil)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handlers) similarProducts(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultSimilarLimit)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
		return
	}
	if limit == 0 {
		limit = defaultSimilarLimit
	}
	ctx := c.Request.Context()
	p := h.catalog.FetchProductByID(ctx, id)
	if p == nil {
		writeError(c, http.StatusNotFound, "not_found", "product "+strconv.Itoa(id)+" not found", nil)
		return
	}
	similar := h.recommendations.GetSimilarProducts(ctx, p.ID, p.Category, p.Price, limit)
	c.JSON(http.StatusOK, newProductList(similar, limit, len(similar)))
}

func (h *handlers) listCategories(c *gin.Context) {
	categories, err := h.catalog.FetchAllCategories(c.Request.Context())
	if err != nil {
		h.logger.Printf("list categories: %v", err)
	}
	if categories == nil {
		categories = []string{}
	}
	c.JSON(http.StatusOK, categoryList{Count: len(categories), Results: categories})
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid_id", "product id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}
