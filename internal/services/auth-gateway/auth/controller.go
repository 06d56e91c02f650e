package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainauth "github.com/NordCoder/Placement/internal/domain/auth"
	"github.com/NordCoder/Placement/internal/domain/principal"
	"github.com/NordCoder/Placement/internal/obs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	tokenType    = "bearer"
	maxBodyBytes = 1 << 20
	requestIDHdr = "X-Request-Id"
)

type Service interface {
	Login(ctx context.Context, role string, id int64, password string) (domainauth.TokenPair, error)
	Refresh(ctx context.Context, raw string) (domainauth.TokenPair, error)
	Logout(ctx context.Context, raw string) error
	Register(ctx context.Context, reg principal.Registration) (int64, error)
	Profile(ctx context.Context, accessToken string) (*principal.Profile, error)
}

var _ Service = (*Usecase)(nil)

type Server struct {
	log *zap.Logger
	uc  Service
}

func NewServer(uc Service, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{log: log, uc: uc}
}

// Routes registers the auth endpoints on mux, each wrapped in its own server span.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.Handle("POST /login", obs.HTTPHandler(http.HandlerFunc(s.login), "auth.login"))
	mux.Handle("POST /refresh", obs.HTTPHandler(http.HandlerFunc(s.refresh), "auth.refresh"))
	mux.Handle("POST /logout", obs.HTTPHandler(http.HandlerFunc(s.logout), "auth.logout"))
	mux.Handle("POST /register/{role}", obs.HTTPHandler(http.HandlerFunc(s.register), "auth.register"))
	mux.Handle("GET /me", obs.HTTPHandler(http.HandlerFunc(s.me), "auth.me"))
}

type loginRequest struct {
	Role       string `json:"role"`
	Identifier *int64 `json:"identifier"`
	UserID     *int64 `json:"user_id"`
	Password   string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
}

type messageResponse struct {
	Message     string `json:"message"`
	PrincipalID int64  `json:"principal_id,omitempty"`
}

type errorBody struct {
	Kind    domainauth.Kind   `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	id := req.Identifier
	if id == nil {
		id = req.UserID
	}
	if id == nil {
		s.writeErr(w, r, domainauth.NewValidationError("identifier", "is required"))
		return
	}

	pair, err := s.uc.Login(r.Context(), req.Role, *id, req.Password)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: tokenType, RefreshToken: pair.RefreshToken})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		s.writeErr(w, r, domainauth.NewValidationError("refresh_token", "is required"))
		return
	}

	pair, err := s.uc.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, TokenType: tokenType, RefreshToken: pair.RefreshToken})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if req.RefreshToken == "" {
		s.writeErr(w, r, domainauth.NewValidationError("refresh_token", "is required"))
		return
	}
	if err := s.uc.Logout(r.Context(), req.RefreshToken); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	role, err := principal.ParseRole(r.PathValue("role"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	reg, err := decodeRegistration(r, role)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	id, err := s.uc.Register(r.Context(), reg)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: role.String() + " registered", PrincipalID: id})
}

func decodeRegistration(r *http.Request, role principal.Role) (principal.Registration, error) {
	switch role {
	case principal.RoleStudent:
		var v principal.StudentRegistration
		err := decodeJSON(r, &v)
		return v, err
	case principal.RoleCompany:
		var v principal.CompanyRegistration
		err := decodeJSON(r, &v)
		return v, err
	case principal.RoleAdmin:
		var v principal.AdminRegistration
		err := decodeJSON(r, &v)
		return v, err
	default:
		return nil, fmt.Errorf("%w: %s", principal.ErrUnsupportedRole, role)
	}
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	token, ok := bearer(r)
	if !ok {
		s.writeErr(w, r, fmt.Errorf("%w: missing bearer token", domainauth.ErrTokenMalformed))
		return
	}
	p, err := s.uc.Profile(r.Context(), token)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domainauth.NewValidationError("body", "is required")
		}
		return domainauth.NewValidationError("body", "is not valid JSON: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// HTTPStatus maps a stable error kind to the status code the API answers with.
func HTTPStatus(k domainauth.Kind) int {
	switch k {
	case domainauth.KindValidation, domainauth.KindUnsupportedRole:
		return http.StatusBadRequest
	case domainauth.KindInvalidCredentials, domainauth.KindInvalidRefreshToken,
		domainauth.KindTokenExpired, domainauth.KindTokenInvalidSignature, domainauth.KindTokenMalformed:
		return http.StatusUnauthorized
	case domainauth.KindNotFound:
		return http.StatusNotFound
	case domainauth.KindConflict:
		return http.StatusConflict
	case domainauth.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var publicMessages = map[domainauth.Kind]string{
	domainauth.KindInvalidCredentials:    "invalid credentials",
	domainauth.KindInvalidRefreshToken:   "invalid refresh token",
	domainauth.KindConflict:              "account already exists",
	domainauth.KindNotFound:              "not found",
	domainauth.KindStoreUnavailable:      "service temporarily unavailable",
	domainauth.KindCorruptCredential:     "internal error",
	domainauth.KindInternal:              "internal error",
	domainauth.KindTokenExpired:          "access token expired",
	domainauth.KindTokenInvalidSignature: "access token signature is invalid",
	domainauth.KindTokenMalformed:        "access token is malformed",
}

func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := domainauth.KindOf(err)
	status := HTTPStatus(kind)
	body := errorBody{Kind: kind, Message: publicMessages[kind]}

	var verr *domainauth.ValidationError
	switch {
	case errors.As(err, &verr):
		body.Message = "validation failed"
		body.Fields = verr.Fields
	case kind == domainauth.KindUnsupportedRole:
		body.Message = err.Error()
	}

	log := obs.WithTrace(r.Context(), s.log)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.String("kind", string(kind)), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.String("kind", string(kind)), zap.Error(err))
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// AccessLog tags every request with a request id and writes one log line when it completes.
func AccessLog(log *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHdr)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHdr, id)
		ctx := obs.ContextWithRequestID(r.Context(), id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		obs.WithTrace(ctx, log).Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
