package structs

type ScanQueueParam struct {
	Barcodes  []string `json:"barcodes" form:"barcodes"`
	TaskID    uint     `json:"task_id" form:"task_id"`
	Result    string   `json:"result" form:"result"`
	QueueType string   `json:"queue_type" form:"queue_type"`
}

type ManualScoreParam struct {
	Protein       interface{} `json:"protein"`
	Fat           interface{} `json:"fat"`
	Carbohydrates interface{} `json:"carbohydrates"`
	Fiber         interface{} `json:"fiber"`
}

type ScanParam struct {
	Barcode string `json:"barcode" binding:"required"`
}

type ManualEditParam struct {
	Field string      `json:"field" binding:"required"`
	Value interface{} `json:"value"`
}

type MismatchQueueResponse struct {
	TaskId uint   `json:"task_id"`
	Queue  string `json:"queue"`
}
