package score

import (
	"net/http"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/metrics"
	"proteinrank-go-worker/services/scorer"
	"proteinrank-go-worker/structs"

	"github.com/gin-gonic/gin"
)

// Compute 手動輸入四個營養素計算分數，缺少或不是數字的欄位視為 0
func Compute(c *gin.Context) {
	var param structs.ManualScoreParam
	if err := c.ShouldBindJSON(&param); err != nil {
		c.JSON(http.StatusBadRequest, structs.ApiResponse{Success: false, Message: err.Error()})
		return
	}

	input := structs.NutrientInput{
		Protein:       scorer.Normalize(param.Protein),
		Fat:           scorer.Normalize(param.Fat),
		Carbohydrates: scorer.Normalize(param.Carbohydrates),
		Fiber:         scorer.Normalize(param.Fiber),
	}
	result := scorer.Evaluate(input)
	metrics.ScoreTotal.WithLabelValues(string(result.Tier), enums.SourceManual).Inc()

	c.JSON(http.StatusOK, structs.ApiResponse{Success: true, Data: scorer.View(result)})
}
