package server

import (
	"encoding/json"
	"net/http"

	"adspotly/internal/domain"
	"adspotly/internal/logger"
	"adspotly/internal/media"
	"adspotly/internal/repository/sqlite"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

// --- helpers ---

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Log.Error("failed to encode response", zap.Error(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// canAccess reports whether the caller owns the record or is an admin
func canAccess(claims *Claims, ownerID string) bool {
	return claims != nil && (claims.Role == domain.RoleAdmin || claims.UserID == ownerID)
}

// --- auth ---

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// handleLogin authenticates a user and issues a JWT
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx := r.Context()
	user, err := s.repos.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		logger.Log.Error("login lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	if user == nil || !sqlite.CheckPasswordHash(req.Password, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.generateToken(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	s.setAuthCookie(w, token, s.config.JWT.ExpirationHours*3600)
	respondJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// handleLogout clears the auth cookie
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	clearAuthCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// --- QR codes ---

type qrCodeRequest struct {
	URL       string  `json:"url"`
	AdSpaceID *string `json:"adSpaceId"`
}

func (req *qrCodeRequest) validate() string {
	if req.URL == "" && (req.AdSpaceID == nil || *req.AdSpaceID == "") {
		return "a destination url or an ad space link is required"
	}
	if req.AdSpaceID != nil && *req.AdSpaceID != "" {
		if _, err := uuid.Parse(*req.AdSpaceID); err != nil {
			return "adSpaceId must be a UUID"
		}
	}
	return ""
}

func (s *Server) handleCreateQrCode(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	var req qrCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	qr := &domain.QrCode{
		ID:        uuid.New().String(),
		UserID:    claims.UserID,
		URL:       req.URL,
		AdSpaceID: req.AdSpaceID,
	}
	if err := s.repos.QrCodes.Create(r.Context(), qr); err != nil {
		logger.Log.Error("failed to create qr code", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create qr code")
		return
	}

	respondJSON(w, http.StatusCreated, qr)
}

func (s *Server) handleListQrCodes(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	codes, err := s.repos.QrCodes.ListByUserID(r.Context(), claims.UserID)
	if err != nil {
		logger.Log.Error("failed to list qr codes", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list qr codes")
		return
	}
	respondJSON(w, http.StatusOK, codes)
}

// getOwnedQrCode loads a QR code and enforces ownership
func (s *Server) getOwnedQrCode(w http.ResponseWriter, r *http.Request) *domain.QrCode {
	qr, err := s.repos.QrCodes.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		logger.Log.Error("failed to get qr code", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get qr code")
		return nil
	}
	if qr == nil {
		respondError(w, http.StatusNotFound, "qr code not found")
		return nil
	}
	if !canAccess(getUserClaims(r), qr.UserID) {
		respondError(w, http.StatusForbidden, "not your qr code")
		return nil
	}
	return qr
}

func (s *Server) handleGetQrCode(w http.ResponseWriter, r *http.Request) {
	if qr := s.getOwnedQrCode(w, r); qr != nil {
		respondJSON(w, http.StatusOK, qr)
	}
}

func (s *Server) handleUpdateQrCode(w http.ResponseWriter, r *http.Request) {
	qr := s.getOwnedQrCode(w, r)
	if qr == nil {
		return
	}

	var req qrCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	qr.URL = req.URL
	qr.AdSpaceID = req.AdSpaceID
	if err := s.repos.QrCodes.Update(r.Context(), qr); err != nil {
		logger.Log.Error("failed to update qr code", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update qr code")
		return
	}
	respondJSON(w, http.StatusOK, qr)
}

func (s *Server) handleDeleteQrCode(w http.ResponseWriter, r *http.Request) {
	qr := s.getOwnedQrCode(w, r)
	if qr == nil {
		return
	}
	if err := s.repos.QrCodes.Delete(r.Context(), qr.ID); err != nil {
		logger.Log.Error("failed to delete qr code", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete qr code")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleQrCodeImage renders the scannable PNG pointing at the public
// view page for this code
func (s *Server) handleQrCodeImage(w http.ResponseWriter, r *http.Request) {
	qr := s.getOwnedQrCode(w, r)
	if qr == nil {
		return
	}

	png, err := qrcode.Encode(s.absoluteViewURL(qr.ID), qrcode.Medium, 256)
	if err != nil {
		logger.Log.Error("failed to encode qr image", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to encode qr image")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

type qrCodeStats struct {
	Scans  int64              `json:"scans"`
	Events []domain.ScanEvent `json:"events"`
}

func (s *Server) handleQrCodeStats(w http.ResponseWriter, r *http.Request) {
	qr := s.getOwnedQrCode(w, r)
	if qr == nil {
		return
	}

	ctx := r.Context()
	count, err := s.repos.ScanEvents.CountByQrCodeID(ctx, qr.ID)
	if err != nil {
		logger.Log.Error("failed to count scans", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	events, err := s.repos.ScanEvents.ListByQrCodeID(ctx, qr.ID, 100)
	if err != nil {
		logger.Log.Error("failed to list scan events", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respondJSON(w, http.StatusOK, qrCodeStats{Scans: count, Events: events})
}

// --- ad spaces ---

type adSpaceRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Content     domain.SpaceContent `json:"content"`
	Theme       domain.Theme        `json:"theme"`
}

func (s *Server) handleCreateAdSpace(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	var req adSpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	space := &domain.AdSpace{
		ID:          uuid.New().String(),
		UserID:      claims.UserID,
		Title:       req.Title,
		Description: req.Description,
		Content:     req.Content,
		Theme:       req.Theme,
	}
	if err := s.repos.AdSpaces.Create(r.Context(), space); err != nil {
		logger.Log.Error("failed to create ad space", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create ad space")
		return
	}
	respondJSON(w, http.StatusCreated, space)
}

func (s *Server) handleListAdSpaces(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	spaces, err := s.repos.AdSpaces.ListByUserID(r.Context(), claims.UserID)
	if err != nil {
		logger.Log.Error("failed to list ad spaces", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list ad spaces")
		return
	}
	respondJSON(w, http.StatusOK, spaces)
}

func (s *Server) getOwnedAdSpace(w http.ResponseWriter, r *http.Request) *domain.AdSpace {
	space, err := s.repos.AdSpaces.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		logger.Log.Error("failed to get ad space", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get ad space")
		return nil
	}
	if space == nil {
		respondError(w, http.StatusNotFound, "ad space not found")
		return nil
	}
	if !canAccess(getUserClaims(r), space.UserID) {
		respondError(w, http.StatusForbidden, "not your ad space")
		return nil
	}
	return space
}

func (s *Server) handleGetAdSpace(w http.ResponseWriter, r *http.Request) {
	if space := s.getOwnedAdSpace(w, r); space != nil {
		respondJSON(w, http.StatusOK, space)
	}
}

func (s *Server) handleUpdateAdSpace(w http.ResponseWriter, r *http.Request) {
	space := s.getOwnedAdSpace(w, r)
	if space == nil {
		return
	}

	var req adSpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	space.Title = req.Title
	space.Description = req.Description
	space.Content = req.Content
	space.Theme = req.Theme
	if err := s.repos.AdSpaces.Update(r.Context(), space); err != nil {
		logger.Log.Error("failed to update ad space", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update ad space")
		return
	}
	respondJSON(w, http.StatusOK, space)
}

func (s *Server) handleDeleteAdSpace(w http.ResponseWriter, r *http.Request) {
	space := s.getOwnedAdSpace(w, r)
	if space == nil {
		return
	}
	if err := s.repos.AdSpaces.Delete(r.Context(), space.ID); err != nil {
		logger.Log.Error("failed to delete ad space", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete ad space")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- ad designs ---

type adDesignRequest struct {
	AdSpaceID *string              `json:"adSpaceId"`
	ImageURL  string               `json:"imageUrl"`
	VideoURL  string               `json:"videoUrl"`
	Content   domain.DesignContent `json:"content"`
}

func (req *adDesignRequest) validate() string {
	if err := media.ValidateMediaURL(req.ImageURL); err != nil {
		return "imageUrl: " + err.Error()
	}
	if err := media.ValidateMediaURL(req.VideoURL); err != nil {
		return "videoUrl: " + err.Error()
	}
	if req.AdSpaceID != nil && *req.AdSpaceID != "" {
		if _, err := uuid.Parse(*req.AdSpaceID); err != nil {
			return "adSpaceId must be a UUID"
		}
	}
	return ""
}

func (s *Server) handleCreateAdDesign(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	var req adDesignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	design := &domain.AdDesign{
		ID:        uuid.New().String(),
		UserID:    claims.UserID,
		AdSpaceID: req.AdSpaceID,
		ImageURL:  req.ImageURL,
		VideoURL:  req.VideoURL,
		Content:   req.Content,
	}
	if err := s.repos.AdDesigns.Create(r.Context(), design); err != nil {
		logger.Log.Error("failed to create ad design", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create ad design")
		return
	}
	respondJSON(w, http.StatusCreated, design)
}

func (s *Server) handleListAdDesigns(w http.ResponseWriter, r *http.Request) {
	claims := getUserClaims(r)

	designs, err := s.repos.AdDesigns.ListByUserID(r.Context(), claims.UserID)
	if err != nil {
		logger.Log.Error("failed to list ad designs", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to list ad designs")
		return
	}
	respondJSON(w, http.StatusOK, designs)
}

func (s *Server) getOwnedAdDesign(w http.ResponseWriter, r *http.Request) *domain.AdDesign {
	design, err := s.repos.AdDesigns.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		logger.Log.Error("failed to get ad design", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to get ad design")
		return nil
	}
	if design == nil {
		respondError(w, http.StatusNotFound, "ad design not found")
		return nil
	}
	if !canAccess(getUserClaims(r), design.UserID) {
		respondError(w, http.StatusForbidden, "not your ad design")
		return nil
	}
	return design
}

func (s *Server) handleGetAdDesign(w http.ResponseWriter, r *http.Request) {
	if design := s.getOwnedAdDesign(w, r); design != nil {
		respondJSON(w, http.StatusOK, design)
	}
}

func (s *Server) handleUpdateAdDesign(w http.ResponseWriter, r *http.Request) {
	design := s.getOwnedAdDesign(w, r)
	if design == nil {
		return
	}

	var req adDesignRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	design.AdSpaceID = req.AdSpaceID
	design.ImageURL = req.ImageURL
	design.VideoURL = req.VideoURL
	design.Content = req.Content
	if err := s.repos.AdDesigns.Update(r.Context(), design); err != nil {
		logger.Log.Error("failed to update ad design", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to update ad design")
		return
	}
	respondJSON(w, http.StatusOK, design)
}

func (s *Server) handleDeleteAdDesign(w http.ResponseWriter, r *http.Request) {
	design := s.getOwnedAdDesign(w, r)
	if design == nil {
		return
	}
	if err := s.repos.AdDesigns.Delete(r.Context(), design.ID); err != nil {
		logger.Log.Error("failed to delete ad design", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to delete ad design")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- uploads ---

// handleUpload stores a creative file and returns its public URL
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := int64(s.config.Uploads.MaxSizeMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+4096)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	url, err := s.uploads.Save(header.Filename, file)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"url": url})
}
