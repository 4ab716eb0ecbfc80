package pushnotification

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskgantt/internal/config"
	"github.com/kazz187/taskgantt/internal/pushsubscription"
	"github.com/kazz187/taskgantt/pkg/cerr"
)

type Server struct {
	vapidEnv *config.VAPIDEnv
	repo     pushsubscription.Repository
	sender   Notifier
}

func NewServer(vapidEnv *config.VAPIDEnv, repo pushsubscription.Repository, sender Notifier) *Server {
	return &Server{
		vapidEnv: vapidEnv,
		repo:     repo,
		sender:   sender,
	}
}

func (s *Server) Routes(r chi.Router) {
	r.Get("/push/vapid-public-key", s.GetVapidPublicKey)
	r.Post("/push/test", s.SendTestNotification)
	r.Post("/push-subscriptions", s.RegisterPushSubscription)
	r.Delete("/push-subscriptions", s.UnregisterPushSubscription)
}

type vapidPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type subscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dhKey"`
	AuthKey   string `json:"authKey"`
}

func (s *Server) GetVapidPublicKey(w http.ResponseWriter, r *http.Request) {
	if s.vapidEnv.VAPIDPublicKey == "" {
		cerr.SetNewJSONError(r.Context(), cerr.FailedPrecondition, "VAPID keys not configured", nil)
		return
	}
	cerr.SetJSONResponse(r.Context(), &vapidPublicKeyResponse{PublicKey: s.vapidEnv.VAPIDPublicKey})
}

func (s *Server) RegisterPushSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	switch {
	case req.Endpoint == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	case req.P256dhKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "p256dhKey is required", nil)
		return
	case req.AuthKey == "":
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "authKey is required", nil)
		return
	}

	sub, err := s.repo.Upsert(ctx, &pushsubscription.Subscription{
		ID:        ulid.Make().String(),
		Endpoint:  req.Endpoint,
		P256dhKey: req.P256dhKey,
		AuthKey:   req.AuthKey,
		CreatedAt: time.Now(),
	})
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponseWithStatus(ctx, http.StatusCreated, sub)
}

func (s *Server) UnregisterPushSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req subscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.Endpoint == "" {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "endpoint is required", nil)
		return
	}
	if err := s.repo.DeleteByEndpoint(ctx, req.Endpoint); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	cerr.SetJSONResponse(ctx, struct{}{})
}

func (s *Server) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	s.sender.SendToAll(r.Context(), &NotificationPayload{
		Title: "taskgantt",
		Body:  "Push notifications are working!",
	})
	cerr.SetJSONResponse(r.Context(), struct{}{})
}
