package httpserver

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"storefront-catalog/internal/domain"
)

type productList struct {
	Limit   int              `json:"limit"`
	Count   int              `json:"count"`
	Total   int              `json:"total"`
	Results []domain.Product `json:"results"`
}

type categoryList struct {
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

type errorBody struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// newProductList reports total as the number of matches before truncation.
func newProductList(products []domain.Product, limit, total int) productList {
	if products == nil {
		products = []domain.Product{}
	}
	return productList{
		Limit:   limit,
		Count:   len(products),
		Total:   total,
		Results: products,
	}
}

func writeError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, errorBody{Error: code, Message: message, Details: details})
}

// queryInt reads a non-negative integer query parameter. Missing values yield def.
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
