package httpapi

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/antoinealex/eureka-empowerment-environment/internal/app/domain/model"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/request"
	"github.com/antoinealex/eureka-empowerment-environment/internal/app/storage"
)

// login exchanges email and password for a bearer token. Every failure mode
// answers with the same denial so credentials cannot be probed.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	params, err := bodyParams(r.Body)
	if err != nil {
		h.reject(w, r, nil, "body", err)
		return
	}
	email, _ := params["email"].(string)
	password, _ := params["password"].(string)

	deny := func() {
		rc := request.New(nil, nil)
		rc.Terminate(request.Forbidden())
		h.builder.Write(w, r, rc)
	}
	if email == "" || password == "" {
		deny()
		return
	}

	found, err := h.store.FindByCriteria(r.Context(), model.KindUser, storage.Criteria{"email": email})
	if err != nil {
		h.log.WithError(err).Error("login lookup failed")
		rc := request.New(nil, nil)
		rc.Terminate(request.ServerError())
		h.builder.Write(w, r, rc)
		return
	}
	if len(found) == 0 {
		deny()
		return
	}
	user := found[0].(*model.User)
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(hashPassword(password))) != 1 {
		deny()
		return
	}

	token, err := h.auth.IssueToken(user)
	if err != nil {
		h.log.WithError(err).Error("token not issued")
		rc := request.New(nil, nil)
		rc.Terminate(request.ServerError())
		h.builder.Write(w, r, rc)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// hashPasswordParam replaces the raw password parameter with its stored
// encoding before validation, so the cleartext never leaves the handler.
func (h *Handler) hashPasswordParam(rc *request.Context) {
	if rc.Done() {
		return
	}
	if raw, ok := rc.Param("password"); ok {
		if s, ok := raw.(string); ok && s != "" {
			rc.SetParam("password", hashPassword(s))
		}
	}
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
