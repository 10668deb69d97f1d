package product

import (
	"errors"
	"net/http"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/display"
	"proteinrank-go-worker/services/lookup"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/structs"
	"strings"

	"github.com/gin-gonic/gin"
)

type ProductController struct {
	Fetcher lookup.Fetcher
}

// Show 查詢單一條碼並回傳計算好的顯示資料
func (p *ProductController) Show(c *gin.Context) {
	barcode := strings.TrimSpace(c.Param("barcode"))
	if barcode == "" {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: "barcode is required"})
		return
	}

	product, err := p.Fetcher.Lookup(c.Request.Context(), barcode)
	switch {
	case errors.Is(err, lookup.ErrUnknownBarcode):
		c.JSON(http.StatusNotFound, structs.ApiResponse{
			Success: false,
			Message: enums.UnknownFood,
			Data:    gin.H{"product_name": enums.UnknownFood},
		})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, structs.ApiResponse{Success: false, Message: enums.FailedMessage})
		return
	}

	view := display.NewProductView(product)
	metrics.ScoreTotal.WithLabelValues(string(view.Tier), enums.SourceBarcode).Inc()
	c.JSON(http.StatusOK, structs.ApiResponse{Success: true, Data: view})
}
