package handlers

import (
	"net/http"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

// QRImage renders the element's scan code as a PNG for label printing.
func (h *ElementHandler) QRImage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		JSONError(w, "invalid element id", http.StatusBadRequest)
		return
	}
	element, err := h.Elements.GetByID(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	png, err := qrcode.Encode(element.ScanCode, qrcode.Medium, 256)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
