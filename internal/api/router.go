package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter builds the chi router for the server.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.healthHandler)

		// Content
		r.Get("/testimonials", s.listTestimonialsHandler)
		r.Get("/testimonials/select", s.selectTestimonialHandler)
		r.Get("/testimonials/{testimonialID}", s.getTestimonialHandler)
		r.Post("/watchlist", s.watchListHandler)
		r.Get("/watchlist/{painPoint}", s.watchListConfigHandler)

		// Landing-page funnel
		r.Post("/visits", s.recordVisitHandler)
		r.Post("/modal-sessions", s.startModalSessionHandler)
		r.Route("/modal-sessions/{sessionID}", func(r chi.Router) {
			r.Post("/responses", s.recordResponseHandler)
			r.Get("/context", s.conversionContextHandler)
			r.Post("/summary", s.generateSummaryHandler)
			r.Post("/cta-click", s.ctaClickHandler)
		})
		r.Post("/auth/callback", s.authCallbackHandler)
		r.Post("/events", s.recordEventHandler)
		r.Get("/events", s.listEventsHandler)
		r.Get("/signups", s.listSignupsHandler)
		r.Get("/campaigns/{kind}/{slug}", s.getCampaignCopyHandler)
		r.Put("/campaigns/{kind}/{slug}", s.putCampaignCopyHandler)

		// Copy experiments
		r.Post("/experiments", s.createExperimentHandler)
		r.Get("/experiments", s.listExperimentsHandler)
		r.Route("/experiments/{name}", func(r chi.Router) {
			r.Get("/", s.getExperimentHandler)
			r.Get("/assign", s.assignVariantHandler)
			r.Post("/events", s.recordExperimentEventHandler)
			r.Put("/state", s.setExperimentStateHandler)
			r.Get("/results", s.experimentResultsHandler)
		})

		// Mobile onboarding
		r.Route("/onboarding/{userID}", func(r chi.Router) {
			r.Get("/", s.getOnboardingHandler)
			r.Delete("/", s.resetOnboardingHandler)
			r.Put("/conditions", s.setConditionsHandler)
			r.Put("/priority", s.setPriorityHandler)
			r.Put("/impact", s.setImpactQuestionHandler)
			r.Put("/intent", s.setIntentHandler)
			r.Put("/baseline", s.setBaselineHandler)
			r.Post("/complete", s.completeOnboardingHandler)
		})

		// Chat placeholder
		r.Post("/chat/conversations", s.startConversationHandler)
		r.Get("/chat/conversations/{conversationID}/messages", s.listMessagesHandler)
		r.Post("/chat/conversations/{conversationID}/messages", s.postMessageHandler)
	})

	return r
}
