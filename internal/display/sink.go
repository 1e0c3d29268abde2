package display

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/petuhovskiy/powerpick/internal/log"
)

// ErrConfiguration is returned when a required slot is missing from the sink.
var ErrConfiguration = errors.New("display configuration error")

type SlotID string

const (
	SlotMain0       SlotID = "ball-0"
	SlotMain1       SlotID = "ball-1"
	SlotMain2       SlotID = "ball-2"
	SlotMain3       SlotID = "ball-3"
	SlotMain4       SlotID = "ball-4"
	SlotSecondary   SlotID = "ball-pb"
	SlotTrigger     SlotID = "generate-btn"
	SlotExport      SlotID = "export-btn"
	SlotCapture     SlotID = "number-capture-area"
	SlotNextDrawing SlotID = "next-drawing"
)

// MainSlots are the main label placeholders in reveal order.
var MainSlots = []SlotID{SlotMain0, SlotMain1, SlotMain2, SlotMain3, SlotMain4}

// Slot is an addressable element of the display.
// For the trigger, revealed means enabled. For the export control, revealed
// means visible.
type Slot interface {
	SetText(text string)
	SetRevealed(revealed bool)
}

// Cell is what a capture region shows for one label.
type Cell struct {
	Text      string
	Revealed  bool
	Secondary bool
}

// CaptureRegion is the slot holding the rendered labels, used for export.
type CaptureRegion interface {
	Cells() []Cell
}

// Sink is the rendering surface.
type Sink interface {
	Lookup(id SlotID) (Slot, bool)
}

// Handles are the slots resolved once at startup. Optional slots are nil
// when missing.
type Handles struct {
	Main        [5]Slot
	Secondary   Slot
	Trigger     Slot
	Export      Slot
	Capture     CaptureRegion
	NextDrawing Slot
}

// Labels returns the label slots in reveal order, nil for missing ones.
func (h *Handles) Labels() []Slot {
	res := make([]Slot, 0, len(h.Main)+1)
	res = append(res, h.Main[:]...)
	return append(res, h.Secondary)
}

// Resolve looks up every slot. A missing trigger is fatal, other missing
// slots are logged and their features are skipped.
func Resolve(ctx context.Context, sink Sink) (*Handles, error) {
	ctx = log.Into(ctx, "display")

	trigger, ok := sink.Lookup(SlotTrigger)
	if !ok {
		return nil, fmt.Errorf("slot %q not found: %w", SlotTrigger, ErrConfiguration)
	}

	h := &Handles{Trigger: trigger}
	optional := func(id SlotID) Slot {
		slot, ok := sink.Lookup(id)
		if !ok {
			log.Error(ctx, "slot is missing, feature disabled", zap.String("slot", string(id)))
			return nil
		}
		return slot
	}

	for i, id := range MainSlots {
		h.Main[i] = optional(id)
	}
	h.Secondary = optional(SlotSecondary)
	h.Export = optional(SlotExport)
	h.NextDrawing = optional(SlotNextDrawing)

	if capture := optional(SlotCapture); capture != nil {
		region, ok := capture.(CaptureRegion)
		if !ok {
			log.Error(ctx, "capture slot cannot be captured, export disabled")
		} else {
			h.Capture = region
		}
	}

	return h, nil
}
