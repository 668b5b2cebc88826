package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/asehra/shuttle-pool/backend/internal/service"
)

// driverRouteRequest is the operator-initiated route plan sent to the
// driver. Place ids arrive pre-encoded from the operator UI; names are
// encoded here.
type driverRouteRequest struct {
	Origin               string `json:"origin" validate:"required"`
	Destination          string `json:"destination" validate:"required"`
	OriginPlaceID        string `json:"origin_place_id" validate:"required"`
	DestinationPlaceID   string `json:"destination_place_id" validate:"required"`
	OriginShortName      string `json:"origin_short_name" validate:"required"`
	DestinationShortName string `json:"destination_short_name" validate:"required"`
}

// SendDriverRoute handles POST /send-message-to-driver: validate the body,
// build the navigation deep link, and send the driver a CTA-URL message.
func (s *Server) SendDriverRoute(w http.ResponseWriter, r *http.Request) {
	var req driverRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON body"})
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: "necessary parameters not present"})
		return
	}

	mapsURL := fmt.Sprintf(
		"https://www.google.com/maps/dir/?api=1&origin=%s&origin_place_id=%s&destination=%s&destination_place_id=%s",
		service.EncodeComponent(req.Origin), req.OriginPlaceID,
		service.EncodeComponent(req.Destination), req.DestinationPlaceID,
	)
	body := fmt.Sprintf("🚀 Route plan 🚀\n\n📍*%s* ➡️ 📍*%s*\n\nLet's go! 🚗💨",
		req.OriginShortName, req.DestinationShortName)

	if err := s.gateway.SendCTAURL(r.Context(), s.driverNumber, "", body, "OPEN MAPS", mapsURL); err != nil {
		s.log.Error("send driver route failed", "error", err)
		writeJSON(w, http.StatusBadGateway, errorBody{Error: "messaging gateway rejected the send"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}
