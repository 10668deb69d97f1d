package structs

type ActivityLogJsonModel struct {
	TaskID    uint           `json:"task_id"`
	Result    bool           `json:"result"`
	Statistic StatisticModel `json:"statistic"`
	Message   string         `json:"message"`
	Messages  []ErrorModel   `json:"messages"`
}

type StatisticModel struct {
	TotalBarcode   int `json:"total_barcode"`
	OKBarcode      int `json:"ok_barcode"`
	UnknownBarcode int `json:"unknown_barcode"`
	FailBarcode    int `json:"fail_barcode"`
}

type ErrorModel struct {
	Barcode      string `json:"barcode"`
	ErrorMessage string `json:"error_message"`
}

type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}
