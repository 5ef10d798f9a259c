package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/classboard/backoffice-go/internal/domain/actor"
	"github.com/classboard/backoffice-go/internal/handler/http/middleware"
	"github.com/classboard/backoffice-go/internal/pkg/jwt"
)

func NewRouter(
	jwtService jwt.Service,
	env string,
	templateHandler TemplateHandler,
	scheduleHandler ScheduleHandler,
	assignmentHandler AssignmentHandler,
	violationHandler ViolationHandler,
	explanationHandler ExplanationHandler,
	swapHandler SwapHandler,
	payrollHandler PayrollHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "classboard-backoffice"),
		slog.String("version", "v1.0.0"),
		slog.String("env", env),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Route("/api/v1", func(r chi.Router) {

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Route("/templates", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityTemplateView))
					r.Get("/", templateHandler.List)
					r.Get("/{id}", templateHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityTemplateManage))
					r.Post("/", templateHandler.Create)
					r.Put("/{id}", templateHandler.Update)
					r.Delete("/{id}", templateHandler.Deactivate)
				})
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityScheduleView))
					r.Get("/", scheduleHandler.List)
					r.Get("/{id}", scheduleHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityScheduleManage))
					r.Post("/", scheduleHandler.Create)
					r.Post("/generate", scheduleHandler.Generate)
					r.Put("/{id}", scheduleHandler.Update)
					r.Delete("/{id}", scheduleHandler.Delete)
					r.Post("/{id}/publish", scheduleHandler.Publish)
					r.Post("/{id}/archive", scheduleHandler.Archive)
					r.Post("/{id}/cancel", scheduleHandler.Cancel)
					r.Post("/{id}/copy", scheduleHandler.Copy)
				})
			})

			r.Route("/assignments", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityAssignmentView))
					r.Get("/", assignmentHandler.List)
					r.Get("/{id}", assignmentHandler.Get)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityAssignmentWrite))
					r.Post("/", assignmentHandler.Create)
					r.Post("/bulk", assignmentHandler.BulkCreate)
					r.Post("/{id}/cancel", assignmentHandler.Cancel)
				})

				// Employees punch their own assignments.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilitySelfCheckIn))
					r.Post("/{id}/check-in", assignmentHandler.CheckIn)
					r.Post("/{id}/check-out", assignmentHandler.CheckOut)
				})
			})

			r.Route("/violations", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityViolationView))
					r.Get("/", violationHandler.List)
					r.Get("/overdue", violationHandler.ListOverdue)
					r.Get("/statistics", violationHandler.Statistics)
					r.Get("/{id}", violationHandler.Get)
					r.Get("/{id}/explanations", explanationHandler.ListByViolation)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityViolationReview))
					r.Post("/{id}/resolve", violationHandler.Resolve)
					r.Post("/{id}/escalate", violationHandler.Escalate)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityExplanationSubmit))
					r.Post("/{id}/explanations", explanationHandler.Submit)
				})
			})

			r.Route("/explanations", func(r chi.Router) {
				r.Get("/{id}", explanationHandler.Get)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityExplanationSubmit))
					r.Put("/{id}", explanationHandler.Update)
					r.Delete("/{id}", explanationHandler.Delete)
					r.Post("/{id}/evidence", explanationHandler.AttachEvidence)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityViolationReview))
					r.Post("/{id}/review", explanationHandler.Review)
				})
			})

			r.Route("/evidence", func(r chi.Router) {
				r.Delete("/{evidenceID}", explanationHandler.DeleteEvidence)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityEvidenceVerify))
					r.Post("/{evidenceID}/verify", explanationHandler.VerifyEvidence)
				})
			})

			r.Route("/swaps", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilitySwapView))
					r.Get("/", swapHandler.List)
					r.Get("/{id}", swapHandler.Get)
				})

				// Employees trade their own shifts.
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilitySwapRequest))
					r.Post("/", swapHandler.Create)
					r.Post("/{id}/respond", swapHandler.Respond)
					r.Post("/{id}/cancel", swapHandler.Cancel)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilitySwapDecide))
					r.Post("/{id}/decide", swapHandler.Decide)
				})
			})

			r.Route("/payrolls", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityPayrollView))
					r.Get("/", payrollHandler.List)
					r.Get("/summary", payrollHandler.PeriodSummary)
					r.Get("/departments", payrollHandler.DepartmentSummaries)
					r.Get("/top-earners", payrollHandler.TopEarners)
					r.Get("/trend", payrollHandler.Trend)
					r.Get("/compare", payrollHandler.ComparePeriods)
					r.Get("/{id}", payrollHandler.Get)
					r.Get("/{id}/validate", payrollHandler.Validate)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityPayrollCalculate))
					r.Post("/calculate", payrollHandler.Calculate)
					r.Post("/bulk-calculate", payrollHandler.BulkCalculate)
					r.Post("/{id}/recalculate", payrollHandler.Recalculate)
				})

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireCapability(actor.CapabilityPayrollApprove))
					r.Post("/{id}/approve", payrollHandler.Approve)
					r.Post("/{id}/pay", payrollHandler.MarkPaid)
					r.Post("/{id}/reset", payrollHandler.Reset)
					r.Post("/{id}/cancel", payrollHandler.Cancel)
				})
			})
		})
	})
	return r
}
