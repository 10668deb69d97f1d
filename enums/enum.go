package enums

const (
	ScanQueue      = "scan"
	FinishedStatus = "finished"
	FailedStatus   = "failed"
)

// 分數等級
type Tier string

const (
	TierLow    Tier = "LOW"
	TierMedium Tier = "MEDIUM"
	TierHigh   Tier = "HIGH"
)

// 等級顏色
const (
	LowScoreColor    = "#FD333A"
	MediumScoreColor = "#8780FF"
	HighScoreColor   = "#2DFF42"
)

// 掃描畫面的狀態
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseUnknown Phase = "unknown"
	PhaseFailed  Phase = "failed"
)

const (
	IdleMessage    = "Looking for UPC barcode..."
	LoadingMessage = "Barcode detected... loading food data"
	UnknownFood    = "Unknown food"
	FailedMessage  = "Could not reach the food database"
)

// 手動輸入欄位
const (
	FieldProtein       = "protein"
	FieldFat           = "fat"
	FieldCarbohydrates = "carbohydrates"
	FieldFiber         = "fiber"
)

// 掃描來源
const (
	SourceBarcode = "barcode"
	SourceManual  = "manual"
	SourceBatch   = "batch"
)
