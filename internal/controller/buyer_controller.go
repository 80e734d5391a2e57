package controller

import (
	"net/http"

	"github.com/cassiomorais/webpay/internal/solitude"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BuyerController exposes buyer PIN state.
type BuyerController struct {
	client *solitude.Client
	log    zerolog.Logger
}

func NewBuyerController(client *solitude.Client, logger zerolog.Logger) *BuyerController {
	return &BuyerController{
		client: client,
		log:    logger.With().Str("component", "buyer_controller").Logger(),
	}
}

// Status reports whether the buyer exists and where their PIN stands.
// Served through the conditional cache; an unknown buyer is a normal
// answer, not an error.
func (h *BuyerController) Status(w http.ResponseWriter, r *http.Request) {
	buyerUUID := chi.URLParam(r, "uuid")

	ent, err := h.client.GetBuyer(r.Context(), buyerUUID, true)
	if err != nil {
		writeError(w, err)
		return
	}
	if ent.HasErrors() || len(ent) == 0 {
		writeJSON(w, http.StatusOK, BuyerStatusResponse{UUID: buyerUUID})
		return
	}

	writeJSON(w, http.StatusOK, BuyerStatusResponse{
		UUID:            buyerUUID,
		Exists:          true,
		HasPIN:          ent.Bool("pin"),
		PinIsLockedOut:  ent.Bool("pin_is_locked_out"),
		PinWasLockedOut: ent.Bool("pin_was_locked_out"),
		NeedsPinReset:   ent.Bool("needs_pin_reset"),
	})
}
