package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mindrift/backend/internal/auth"
	"github.com/mindrift/backend/internal/core"
	"github.com/mindrift/backend/internal/store"
)

type contextKey string

const claimsContextKey contextKey = "claims"

type APIHandler struct {
	store        *store.Store
	chatService  *core.ChatService
	diaryService *core.DiaryService
	jwtSecret    []byte
	tokenTTL     time.Duration
	logger       *zap.Logger
}

func NewAPIHandler(st *store.Store, cs *core.ChatService, ds *core.DiaryService, jwtSecret []byte, tokenTTL time.Duration, logger *zap.Logger) *APIHandler {
	return &APIHandler{
		store:        st,
		chatService:  cs,
		diaryService: ds,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
		logger:       logger,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := auth.ValidateJWT(h.jwtSecret, tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(r *http.Request) *auth.Claims {
	return r.Context().Value(claimsContextKey).(*auth.Claims)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Auth handlers

type RegisterRequest struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"username"`
	Password    string `json:"password"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		req.DisplayName = req.UserID
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("failed to hash password", zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	_, err = h.store.CreateUser(r.Context(), req.UserID, req.DisplayName, hashedPassword)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUser) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "User ID already exists"})
			return
		}
		h.logger.Error("failed to create user", zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"message": "Registered successfully"})
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.store.GetUserByExternalID(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error("failed to look up user", zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(h.jwtSecret, user.ID, user.ExternalUserID, user.DisplayName, h.tokenTTL)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("user_id", req.UserID), zap.Error(err))
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token, "username": user.DisplayName})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	user, err := h.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to load user", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"user_id":  user.ExternalUserID,
		"username": user.DisplayName,
	})
}

type UpdateUsernameRequest struct {
	NewUsername string `json:"newUsername"`
}

func (h *APIHandler) UpdateUsernameHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req UpdateUsernameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.NewUsername) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "New username is required"})
		return
	}

	if err := h.store.UpdateDisplayName(r.Context(), claims.UserID, req.NewUsername); err != nil {
		h.logger.Error("failed to update display name", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Failed to update username", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "Username updated successfully",
		"newUsername": req.NewUsername,
	})
}

// Chat handlers

type ChatRequest struct {
	Message string `json:"message"`
}

func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	reply, err := h.chatService.SendMessage(r.Context(), claims.UserID, claims.DisplayName, req.Message)
	if err != nil {
		if errors.Is(err, core.ErrContentRequired) {
			http.Error(w, "Message content cannot be empty", http.StatusBadRequest)
			return
		}
		h.logger.Error("chat turn failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Chat completion failed", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (h *APIHandler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	messages, err := h.chatService.ListMessages(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to list messages", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []store.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// Diary handlers

type DiaryRequest struct {
	Diary string `json:"diary"`
}

func (h *APIHandler) CreateDiaryHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	var req DiaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := h.diaryService.CreateFromText(r.Context(), claims.UserID, claims.DisplayName, req.Diary)
	if err != nil {
		if errors.Is(err, core.ErrContentRequired) {
			http.Error(w, "Diary content is required", http.StatusBadRequest)
			return
		}
		if errors.Is(err, core.ErrSummaryFailed) {
			http.Error(w, "Diary summary generation failed", http.StatusInternalServerError)
			return
		}
		h.logger.Error("failed to create diary entry", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Failed to create diary entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": entry.ID, "reply": entry.Summary})
}

func (h *APIHandler) DiaryFromHistoryHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	entry, created, err := h.diaryService.CreateOrUpdateFromHistory(r.Context(), claims.UserID, claims.DisplayName)
	if err != nil {
		if errors.Is(err, core.ErrNoChatHistory) {
			http.Error(w, "No chat history", http.StatusBadRequest)
			return
		}
		if errors.Is(err, core.ErrSummaryFailed) {
			http.Error(w, "Diary summary generation failed", http.StatusInternalServerError)
			return
		}
		h.logger.Error("failed to consolidate diary", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Diary generation failed", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"id": entry.ID, "reply": entry.Summary}
	if created {
		resp["created"] = true
	} else {
		resp["updated"] = true
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) DiaryArchiveHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	date := r.URL.Query().Get("date")

	archive, err := h.diaryService.GetArchive(r.Context(), claims.UserID, date)
	if err != nil {
		if errors.Is(err, core.ErrDateRequired) {
			http.Error(w, "Date is required (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to load archive", zap.Int64("user_id", claims.UserID), zap.String("date", date), zap.Error(err))
		http.Error(w, "Failed to load archive", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, archive)
}

func (h *APIHandler) DiaryDatesHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	dates, err := h.diaryService.ListDates(r.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("failed to list diary dates", zap.Int64("user_id", claims.UserID), zap.Error(err))
		http.Error(w, "Failed to list diary dates", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]string{"dates": dates})
}

func (h *APIHandler) DiaryIDByDateHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	date := r.URL.Query().Get("date")

	id, err := h.diaryService.GetIDByDate(r.Context(), claims.UserID, date)
	if err != nil {
		if errors.Is(err, core.ErrDateRequired) {
			http.Error(w, "Date is required (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "No diary entry for that date", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to look up diary id", zap.Int64("user_id", claims.UserID), zap.String("date", date), zap.Error(err))
		http.Error(w, "Failed to look up diary id", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (h *APIHandler) DeleteDiaryHandler(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	id, err := strconv.ParseInt(chi.URLParam(r, "diaryID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid diary id", http.StatusBadRequest)
		return
	}

	if err := h.diaryService.DeleteByID(r.Context(), claims.UserID, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Diary not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete diary entry", zap.Int64("user_id", claims.UserID), zap.Int64("diary_id", id), zap.Error(err))
		http.Error(w, "Failed to delete diary entry", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "Deleted successfully", "deletedId": id})
}
