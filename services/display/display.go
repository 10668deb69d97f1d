// Package display holds the presentation state of the scan and manual-entry screens.
//
// States are values. Reduce and ApplyManualEdit return a new state and never mutate
// their argument, so a snapshot handed to a reader stays valid.
package display

import (
	"errors"
	"fmt"
	"proteinrank-go-worker/enums"
	"proteinrank-go-worker/services/scorer"
	"proteinrank-go-worker/structs"
)

var ErrUnknownField = errors.New("unknown manual field")

// ScanState is what the scan screen shows.
type ScanState struct {
	Phase   enums.Phase          `json:"phase"`
	Barcode string               `json:"barcode,omitempty"`
	Seq     uint64               `json:"seq"`
	Message string               `json:"message"`
	Product *structs.ProductView `json:"product,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// ManualState is what the manual-entry screen shows.
type ManualState struct {
	Input structs.NutrientInput `json:"input"`
	Score structs.ScoreView     `json:"score"`
}

type Event interface {
	isEvent()
}

// ScanStarted is issued when a lookup for Barcode is sent with sequence Seq.
type ScanStarted struct {
	Barcode string
	Seq     uint64
}

// LookupResolved carries the answer to lookup Seq. A nil Product means the barcode
// is unknown.
type LookupResolved struct {
	Seq     uint64
	Product *structs.Product
}

type LookupFailed struct {
	Seq uint64
	Err error
}

func (ScanStarted) isEvent()    {}
func (LookupResolved) isEvent() {}
func (LookupFailed) isEvent()   {}

func InitialScanState() ScanState {
	return ScanState{Phase: enums.PhaseIdle, Message: enums.IdleMessage}
}

func InitialManualState() ManualState {
	return manualState(structs.NutrientInput{})
}

// ShouldLookup reports whether scanning barcode should start a new lookup. A barcode
// that is already loading or on screen is ignored; a failed one may be retried.
func ShouldLookup(state ScanState, barcode string) bool {
	if barcode == "" {
		return false
	}
	if state.Barcode != barcode {
		return true
	}
	switch state.Phase {
	case enums.PhaseLoading, enums.PhaseLoaded, enums.PhaseUnknown:
		return false
	}
	return true
}

// IsStale reports whether an outcome for seq arrives after a newer scan was issued.
func IsStale(state ScanState, seq uint64) bool {
	return seq != state.Seq
}

func Reduce(state ScanState, event Event) ScanState {
	switch e := event.(type) {
	case ScanStarted:
		return ScanState{
			Phase:   enums.PhaseLoading,
			Barcode: e.Barcode,
			Seq:     e.Seq,
			Message: enums.LoadingMessage,
		}
	case LookupResolved:
		if IsStale(state, e.Seq) {
			return state
		}
		if e.Product == nil {
			return ScanState{
				Phase:   enums.PhaseUnknown,
				Barcode: state.Barcode,
				Seq:     state.Seq,
				Message: enums.UnknownFood,
			}
		}
		view := NewProductView(e.Product)
		return ScanState{
			Phase:   enums.PhaseLoaded,
			Barcode: state.Barcode,
			Seq:     state.Seq,
			Message: view.ProductName,
			Product: &view,
		}
	case LookupFailed:
		if IsStale(state, e.Seq) {
			return state
		}
		next := ScanState{
			Phase:   enums.PhaseFailed,
			Barcode: state.Barcode,
			Seq:     state.Seq,
			Message: enums.FailedMessage,
		}
		if e.Err != nil {
			next.Error = e.Err.Error()
		}
		return next
	}
	return state
}

// NewProductView scores a product and shapes it for display.
func NewProductView(product *structs.Product) structs.ProductView {
	input := scorer.ExtractNutrients(product)
	result := scorer.Evaluate(input)

	name := enums.UnknownFood
	if product != nil && product.ProductName != "" {
		name = product.ProductName
	}
	return structs.ProductView{
		ProductName:       name,
		Score:             scorer.FormatScore(result.Score),
		Tier:              result.Tier,
		TierColor:         scorer.TierColor(result.Tier),
		Proteins100g:      input.Protein,
		Fat100g:           input.Fat,
		Carbohydrates100g: input.Carbohydrates,
		Fiber100g:         input.Fiber,
		ServingDescriptor: servingDescriptor(product),
	}
}

func servingDescriptor(product *structs.Product) string {
	if product == nil {
		return ""
	}
	if product.NutritionDataPer != "" {
		return "/ " + product.NutritionDataPer
	}
	if product.ServingSize != "" {
		return "/ " + product.ServingSize
	}
	return ""
}

// ApplyManualEdit sets one macro field and rescores. Negative values floor at 0.
func ApplyManualEdit(state ManualState, field string, raw interface{}) (ManualState, error) {
	value := scorer.Normalize(raw)
	if value < 0 {
		value = 0
	}

	input := state.Input
	switch field {
	case enums.FieldProtein:
		input.Protein = value
	case enums.FieldFat:
		input.Fat = value
	case enums.FieldCarbohydrates:
		input.Carbohydrates = value
	case enums.FieldFiber:
		input.Fiber = value
	default:
		return state, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return manualState(input), nil
}

func manualState(input structs.NutrientInput) ManualState {
	return ManualState{
		Input: input,
		Score: scorer.View(scorer.Evaluate(input)),
	}
}
